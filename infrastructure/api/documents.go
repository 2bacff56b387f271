package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fundsight/fundsight"
	"github.com/fundsight/fundsight/domain/document"
	"github.com/fundsight/fundsight/internal/database"
	"github.com/fundsight/fundsight/internal/log"
)

// DocumentsRouter handles document upload and lifecycle endpoints.
type DocumentsRouter struct {
	client *fundsight.Client
	logger *log.Logger
}

// NewDocumentsRouter creates a new DocumentsRouter.
func NewDocumentsRouter(client *fundsight.Client) *DocumentsRouter {
	return &DocumentsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for document endpoints.
func (dr *DocumentsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/upload", dr.Upload)
	router.Get("/", dr.List)
	router.Get("/{id}", dr.Get)
	router.Get("/{id}/status", dr.Status)
	router.Delete("/{id}", dr.Delete)

	return router
}

// Upload handles POST /api/documents/upload. Only PDF files are accepted;
// the file is stored under the upload directory and a processing task is
// queued. The fund, if any, is resolved from the report during processing,
// so the fund_id form field is accepted but not trusted.
func (dr *DocumentsRouter) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() { _ = file.Close() }()

	if !strings.HasSuffix(header.Filename, ".pdf") {
		writeDetail(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	var fundID *int64
	if raw := r.FormValue("fund_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid fund_id")
			return
		}
		fundID = &id
	}

	fileName := filepath.Base(header.Filename)
	filePath := filepath.Join(dr.client.Config().UploadDir(),
		fmt.Sprintf("%d_%s", time.Now().UnixNano(), fileName))

	dst, err := os.Create(filePath)
	if err != nil {
		dr.logger.Error("failed to store upload", "path", filePath, "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to store uploaded file")
		return
	}
	_, copyErr := io.Copy(dst, file)
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(filePath)
		writeDetail(w, http.StatusInternalServerError, "Failed to store uploaded file")
		return
	}

	doc, err := dr.client.Documents.Create(ctx, document.New(fileName, filePath, fundID))
	if err != nil {
		_ = os.Remove(filePath)
		dr.logger.Error("failed to create document", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to create document")
		return
	}

	if err := dr.client.Queue.EnqueueProcessDocument(ctx, doc.ID(), filePath, fundID); err != nil {
		dr.logger.Error("failed to queue processing", "document_id", doc.ID(), "error", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to queue document processing")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		DocumentID: doc.ID(),
		Status:     document.StatusPending.String(),
		Message:    "Document uploaded successfully. Processing started.",
	})
}

// List handles GET /api/documents.
func (dr *DocumentsRouter) List(w http.ResponseWriter, r *http.Request) {
	docs, err := dr.client.Documents.List(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, toDocumentResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/documents/{id}.
func (dr *DocumentsRouter) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := dr.fetch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

// Status handles GET /api/documents/{id}/status.
func (dr *DocumentsRouter) Status(w http.ResponseWriter, r *http.Request) {
	doc, ok := dr.fetch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		DocumentID:   doc.ID(),
		Status:       doc.Status().String(),
		ErrorMessage: optionalString(doc.ErrorMessage()),
	})
}

// Delete handles DELETE /api/documents/{id}. The stored file is removed
// alongside the record.
func (dr *DocumentsRouter) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, ok := dr.fetch(w, r)
	if !ok {
		return
	}

	if doc.FilePath() != "" {
		if err := os.Remove(doc.FilePath()); err != nil && !os.IsNotExist(err) {
			dr.logger.Warn("failed to remove stored file", "path", doc.FilePath(), "error", err)
		}
	}

	if err := dr.client.Documents.Delete(ctx, doc.ID()); err != nil {
		writeDetail(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

// fetch loads the document named by the {id} URL parameter, writing the
// error response itself when it cannot.
func (dr *DocumentsRouter) fetch(w http.ResponseWriter, r *http.Request) (document.Document, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid document id")
		return document.Document{}, false
	}

	doc, err := dr.client.Documents.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Document not found")
		} else {
			writeDetail(w, http.StatusInternalServerError, "Failed to load document")
		}
		return document.Document{}, false
	}
	return doc, true
}
