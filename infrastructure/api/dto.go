package api

import (
	"time"

	"github.com/fundsight/fundsight/domain/document"
	"github.com/fundsight/fundsight/domain/fund"
	"github.com/fundsight/fundsight/domain/query"
)

// DocumentResponse is the wire form of a document.
type DocumentResponse struct {
	ID            int64     `json:"id"`
	FundID        *int64    `json:"fund_id"`
	FileName      string    `json:"file_name"`
	FilePath      string    `json:"file_path"`
	UploadDate    time.Time `json:"upload_date"`
	ParsingStatus string    `json:"parsing_status"`
	ErrorMessage  *string   `json:"error_message"`
}

func toDocumentResponse(d document.Document) DocumentResponse {
	return DocumentResponse{
		ID:            d.ID(),
		FundID:        d.FundID(),
		FileName:      d.FileName(),
		FilePath:      d.FilePath(),
		UploadDate:    d.UploadedAt(),
		ParsingStatus: d.Status().String(),
		ErrorMessage:  optionalString(d.ErrorMessage()),
	}
}

// FundResponse is the wire form of a fund.
type FundResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	GPName      string    `json:"gp_name"`
	FundType    string    `json:"fund_type"`
	VintageYear int       `json:"vintage_year"`
	FundSize    int64     `json:"fund_size"`
	CreatedAt   time.Time `json:"created_at"`
}

func toFundResponse(f fund.Fund) FundResponse {
	return FundResponse{
		ID:          f.ID(),
		Name:        f.Name(),
		GPName:      f.GPName(),
		FundType:    f.FundType(),
		VintageYear: f.VintageYear(),
		FundSize:    f.CommittedSize(),
		CreatedAt:   f.CreatedAt(),
	}
}

// UploadResponse acknowledges an accepted document upload.
type UploadResponse struct {
	DocumentID int64  `json:"document_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// StatusResponse reports the parsing status of a document.
type StatusResponse struct {
	DocumentID   int64   `json:"document_id"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message"`
}

// ChatRequest asks a question, optionally scoped to a fund.
type ChatRequest struct {
	Query  string `json:"query"`
	FundID *int64 `json:"fund_id,omitempty"`
}

// ChatResponse carries the answer with its supporting sources and, for
// calculation questions on a fund, the computed metrics.
type ChatResponse struct {
	Answer  string             `json:"answer"`
	Intent  string             `json:"intent"`
	Sources []query.Source     `json:"sources"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

func toChatResponse(r query.Response) ChatResponse {
	sources := r.Sources()
	if sources == nil {
		sources = []query.Source{}
	}
	return ChatResponse{
		Answer:  r.Answer(),
		Intent:  string(r.Intent()),
		Sources: sources,
		Metrics: r.Metrics(),
	}
}

// MetricsResponse carries the performance metrics of a fund.
type MetricsResponse struct {
	FundID  int64              `json:"fund_id"`
	Metrics map[string]float64 `json:"metrics"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
