package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundsight/fundsight"
	"github.com/fundsight/fundsight/domain/document"
	"github.com/fundsight/fundsight/domain/extract"
	"github.com/fundsight/fundsight/domain/fund"
	"github.com/fundsight/fundsight/domain/ledger"
	"github.com/fundsight/fundsight/infrastructure/api"
	"github.com/fundsight/fundsight/infrastructure/provider"
	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/log"
)

type stubConverter struct{}

func (stubConverter) Convert(context.Context, string) (extract.Converted, error) {
	return extract.Converted{}, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{1, 0, 0}
	}
	return out, nil
}

func (stubEmbedder) Dimension() int { return 3 }

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, provider.ChatRequest) (provider.ChatResponse, error) {
	return provider.ChatResponse{Content: "stub answer"}, nil
}

func newTestClient(t *testing.T) *fundsight.Client {
	t.Helper()

	cfg := config.NewAppConfigWithOptions(
		config.WithDataDir(t.TempDir()),
		config.WithDBURL(fmt.Sprintf("sqlite:///file:%s?mode=memory&cache=shared", t.Name())),
	)

	client, err := fundsight.New(
		fundsight.WithConfig(cfg),
		fundsight.WithLogger(log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "error")),
		fundsight.WithConverter(stubConverter{}),
		fundsight.WithEmbedder(stubEmbedder{}),
		fundsight.WithTextGenerator(stubGenerator{}),
		fundsight.WithoutWorker(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func newTestAPI(t *testing.T) (*fundsight.Client, http.Handler) {
	t.Helper()
	client := newTestClient(t)
	return client, api.NewAPIServer(client).Handler()
}

func multipartUpload(t *testing.T, fileName string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func doRequest(handler http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestUploadPDF(t *testing.T) {
	client, handler := newTestAPI(t)
	ctx := context.Background()

	body, contentType := multipartUpload(t, "report.pdf", []byte("%PDF-1.4 test"), map[string]string{"fund_id": "1"})
	rec := doRequest(handler, http.MethodPost, "/api/documents/upload", body, contentType)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[api.UploadResponse](t, rec)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "Document uploaded successfully. Processing started.", resp.Message)

	doc, err := client.Documents.Get(ctx, resp.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.FileName())
	assert.Equal(t, document.StatusPending, doc.Status())
	assert.FileExists(t, doc.FilePath())

	count, err := client.Queue.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUploadNonPDF(t *testing.T) {
	_, handler := newTestAPI(t)

	body, contentType := multipartUpload(t, "report.txt", []byte("not a pdf"), nil)
	rec := doRequest(handler, http.MethodPost, "/api/documents/upload", body, contentType)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	detail := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "Only PDF files are allowed", detail["detail"])
}

func TestDocumentStatus(t *testing.T) {
	client, handler := newTestAPI(t)
	ctx := context.Background()

	doc, err := client.Documents.Create(ctx, document.New("status.pdf", "fakepath", nil))
	require.NoError(t, err)
	require.NoError(t, client.Documents.UpdateStatus(ctx, doc.ID(), document.StatusProcessing, ""))
	require.NoError(t, client.Documents.UpdateStatus(ctx, doc.ID(), document.StatusCompleted, ""))

	rec := doRequest(handler, http.MethodGet, fmt.Sprintf("/api/documents/%d/status", doc.ID()), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[api.StatusResponse](t, rec)
	assert.Equal(t, doc.ID(), resp.DocumentID)
	assert.Equal(t, "completed", resp.Status)
	assert.Nil(t, resp.ErrorMessage)
}

func TestDocumentNotFound(t *testing.T) {
	_, handler := newTestAPI(t)

	rec := doRequest(handler, http.MethodGet, "/api/documents/9999", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	detail := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "Document not found", detail["detail"])
}

func TestListDocuments(t *testing.T) {
	client, handler := newTestAPI(t)
	ctx := context.Background()

	_, err := client.Documents.Create(ctx, document.New("doc1.pdf", "path1", nil))
	require.NoError(t, err)
	_, err = client.Documents.Create(ctx, document.New("doc2.pdf", "path2", nil))
	require.NoError(t, err)

	// Trailing slashes are stripped, both forms work.
	for _, path := range []string{"/api/documents", "/api/documents/"} {
		rec := doRequest(handler, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, rec.Code, path)

		docs := decodeBody[[]api.DocumentResponse](t, rec)
		require.Len(t, docs, 2)
		names := []string{docs[0].FileName, docs[1].FileName}
		assert.Contains(t, names, "doc1.pdf")
		assert.Contains(t, names, "doc2.pdf")
	}
}

func TestDeleteDocument(t *testing.T) {
	client, handler := newTestAPI(t)
	ctx := context.Background()

	filePath := filepath.Join(client.Config().UploadDir(), "delete.pdf")
	require.NoError(t, os.WriteFile(filePath, []byte("dummy content"), 0o644))

	doc, err := client.Documents.Create(ctx, document.New("delete.pdf", filePath, nil))
	require.NoError(t, err)

	rec := doRequest(handler, http.MethodDelete, fmt.Sprintf("/api/documents/%d", doc.ID()), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "Document deleted successfully", resp["message"])

	assert.NoFileExists(t, filePath)
	rec = doRequest(handler, http.MethodGet, fmt.Sprintf("/api/documents/%d", doc.ID()), nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFundEndpoints(t *testing.T) {
	client, handler := newTestAPI(t)
	ctx := context.Background()

	created, err := client.Funds.Create(ctx, fund.New("Growth Fund III", "Acme Capital", "buyout", 2019, 500_000_000))
	require.NoError(t, err)

	rec := doRequest(handler, http.MethodGet, "/api/funds", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	funds := decodeBody[[]api.FundResponse](t, rec)
	require.Len(t, funds, 1)
	assert.Equal(t, "Growth Fund III", funds[0].Name)
	assert.Equal(t, int64(500_000_000), funds[0].FundSize)

	rec = doRequest(handler, http.MethodGet, fmt.Sprintf("/api/funds/%d", created.ID()), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[api.FundResponse](t, rec)
	assert.Equal(t, "Acme Capital", got.GPName)
	assert.Equal(t, 2019, got.VintageYear)

	rec = doRequest(handler, http.MethodGet, "/api/funds/404", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	detail := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "Fund not found", detail["detail"])
}

func seedLedger(t *testing.T, client *fundsight.Client, fundID int64) {
	t.Helper()

	callDate := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	distDate := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, client.Rows.Insert(context.Background(), []ledger.Row{
		ledger.NewRow(fundID, ledger.KindCapitalCall, &callDate, "Call 1", 1000, false, ""),
		ledger.NewRow(fundID, ledger.KindDistribution, &distDate, "Distribution", 500, false, ""),
	}))
}

func TestChatCalculation(t *testing.T) {
	client, handler := newTestAPI(t)
	ctx := context.Background()

	f, err := client.Funds.Create(ctx, fund.New("Growth Fund III", "Acme Capital", "", 2019, 0))
	require.NoError(t, err)
	seedLedger(t, client, f.ID())

	fundID := f.ID()
	payload, err := json.Marshal(api.ChatRequest{Query: "What is the current DPI?", FundID: &fundID})
	require.NoError(t, err)

	rec := doRequest(handler, http.MethodPost, "/api/chat", bytes.NewReader(payload), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[api.ChatResponse](t, rec)
	assert.Equal(t, "stub answer", resp.Answer)
	assert.Equal(t, "calculation", resp.Intent)
	require.Contains(t, resp.Metrics, "DPI")
	assert.InDelta(t, 0.5, resp.Metrics["DPI"], 1e-9)
}

func TestChatWithoutFund(t *testing.T) {
	_, handler := newTestAPI(t)

	payload, err := json.Marshal(api.ChatRequest{Query: "What does IRR mean?"})
	require.NoError(t, err)

	rec := doRequest(handler, http.MethodPost, "/api/chat", bytes.NewReader(payload), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[api.ChatResponse](t, rec)
	assert.Equal(t, "definition", resp.Intent)
	assert.Empty(t, resp.Metrics)
	assert.NotNil(t, resp.Sources)
}

func TestMetricsEndpoint(t *testing.T) {
	client, handler := newTestAPI(t)
	ctx := context.Background()

	f, err := client.Funds.Create(ctx, fund.New("Growth Fund III", "Acme Capital", "", 2019, 0))
	require.NoError(t, err)
	seedLedger(t, client, f.ID())

	rec := doRequest(handler, http.MethodGet, fmt.Sprintf("/api/metrics/%d", f.ID()), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[api.MetricsResponse](t, rec)
	assert.Equal(t, f.ID(), resp.FundID)
	for _, key := range []string{"DPI", "TVPI", "IRR"} {
		assert.Contains(t, resp.Metrics, key)
	}

	rec = doRequest(handler, http.MethodGet, "/api/metrics/404", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	detail := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "Fund not found", detail["detail"])
}

func TestSystemEndpoints(t *testing.T) {
	_, handler := newTestAPI(t)

	rec := doRequest(handler, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "healthy", health["status"])

	rec = doRequest(handler, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	root := decodeBody[map[string]string](t, rec)
	assert.Equal(t, fundsight.Version, root["version"])
	assert.NotEmpty(t, root["message"])
}
