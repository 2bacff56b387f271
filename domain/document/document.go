// Package document defines the uploaded-report aggregate and its parsing
// status state machine.
package document

import (
	"context"
	"time"
)

// ParsingStatus is the lifecycle state of a document's processing run.
type ParsingStatus string

// ParsingStatus values. These exact strings are persisted.
const (
	StatusPending    ParsingStatus = "pending"
	StatusProcessing ParsingStatus = "processing"
	StatusCompleted  ParsingStatus = "completed"
	StatusFailed     ParsingStatus = "failed"
)

// String returns the persisted status string.
func (s ParsingStatus) String() string { return string(s) }

// IsTerminal reports whether the status admits no further transitions.
func (s ParsingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the status may move to next. The machine
// is strictly forward-moving: pending → processing → {completed, failed}.
// Nothing ever returns to pending once processing has started.
func (s ParsingStatus) CanTransitionTo(next ParsingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Document represents one uploaded PDF report. The fund reference is
// nullable until resolved during processing and immutable once set.
type Document struct {
	id           int64
	fundID       *int64
	fileName     string
	filePath     string
	uploadedAt   time.Time
	status       ParsingStatus
	errorMessage string
}

// New creates a pending Document ready for persistence.
func New(fileName, filePath string, fundID *int64) Document {
	return Document{
		fundID:   copyID(fundID),
		fileName: fileName,
		filePath: filePath,
		status:   StatusPending,
	}
}

// Restore reconstructs a Document from persisted state.
func Restore(id int64, fundID *int64, fileName, filePath string, uploadedAt time.Time, status ParsingStatus, errorMessage string) Document {
	return Document{
		id:           id,
		fundID:       copyID(fundID),
		fileName:     fileName,
		filePath:     filePath,
		uploadedAt:   uploadedAt,
		status:       status,
		errorMessage: errorMessage,
	}
}

// ID returns the document identifier (0 until persisted).
func (d Document) ID() int64 { return d.id }

// FundID returns the owning fund id, or nil when unresolved.
func (d Document) FundID() *int64 { return copyID(d.fundID) }

// FileName returns the uploaded file name.
func (d Document) FileName() string { return d.fileName }

// FilePath returns the stored file path.
func (d Document) FilePath() string { return d.filePath }

// UploadedAt returns the upload timestamp.
func (d Document) UploadedAt() time.Time { return d.uploadedAt }

// Status returns the parsing status.
func (d Document) Status() ParsingStatus { return d.status }

// ErrorMessage returns the failure message, empty unless status is failed.
func (d Document) ErrorMessage() string { return d.errorMessage }

// WithFund returns a copy with the fund reference set. The reference is
// immutable once set; setting it again with a different id is a no-op.
func (d Document) WithFund(fundID int64) Document {
	if d.fundID != nil {
		return d
	}
	d.fundID = &fundID
	return d
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// Store persists documents.
type Store interface {
	// Get retrieves a document by ID.
	Get(ctx context.Context, id int64) (Document, error)

	// List returns all documents, newest upload first.
	List(ctx context.Context) ([]Document, error)

	// Create persists a new document and returns it with its assigned ID.
	Create(ctx context.Context, d Document) (Document, error)

	// UpdateStatus transitions a document's parsing status, persisting the
	// error message alongside. Implementations must reject transitions the
	// state machine forbids.
	UpdateStatus(ctx context.Context, id int64, status ParsingStatus, errorMessage string) error

	// SetFund records the owning fund on a document whose fund is unresolved.
	SetFund(ctx context.Context, id int64, fundID int64) error

	// Delete removes a document.
	Delete(ctx context.Context, id int64) error
}
