package persistence

import (
	"context"
	"fmt"

	"github.com/fundsight/fundsight/domain/document"
	"github.com/fundsight/fundsight/internal/database"
)

// DocumentStore is the GORM-backed document.Store. Status updates go
// through the parsing state machine; invalid transitions are rejected.
type DocumentStore struct {
	repo database.Repository[document.Document, DocumentModel]
}

// NewDocumentStore creates a DocumentStore.
func NewDocumentStore(db database.Database) *DocumentStore {
	return &DocumentStore{repo: database.NewRepository[document.Document, DocumentModel](db, DocumentMapper{}, "document")}
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(ctx context.Context, id int64) (document.Document, error) {
	return s.repo.FindOne(ctx, database.WithID(id))
}

// List returns all documents, newest first.
func (s *DocumentStore) List(ctx context.Context) ([]document.Document, error) {
	return s.repo.Find(ctx, database.WithOrderDesc("uploaded_at"))
}

// ListByFund returns a fund's documents, newest first.
func (s *DocumentStore) ListByFund(ctx context.Context, fundID int64) ([]document.Document, error) {
	return s.repo.Find(ctx, database.WithFundID(fundID), database.WithOrderDesc("uploaded_at"))
}

// Create persists a new document and returns it with its assigned ID.
func (s *DocumentStore) Create(ctx context.Context, d document.Document) (document.Document, error) {
	model := s.repo.Mapper().ToModel(d)
	if err := s.repo.DB(ctx).Create(&model).Error; err != nil {
		return document.Document{}, fmt.Errorf("create document: %w", err)
	}
	return s.repo.Mapper().ToDomain(model), nil
}

// UpdateStatus moves a document to the given status, enforcing the
// forward-only state machine. The error message is written alongside a
// failed status and cleared otherwise.
func (s *DocumentStore) UpdateStatus(ctx context.Context, id int64, status document.ParsingStatus, errorMessage string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status().CanTransitionTo(status) {
		return fmt.Errorf("document %d: invalid status transition %s -> %s", id, current.Status(), status)
	}
	if status != document.StatusFailed {
		errorMessage = ""
	}
	updates := map[string]any{"status": string(status), "error_message": errorMessage}
	result := s.repo.DB(ctx).Model(&DocumentModel{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update document %d status: %w", id, result.Error)
	}
	return nil
}

// SetFund attaches a document to a fund. A document already attached to a
// fund keeps its original fund.
func (s *DocumentStore) SetFund(ctx context.Context, id, fundID int64) error {
	result := s.repo.DB(ctx).Model(&DocumentModel{}).
		Where("id = ? AND fund_id IS NULL", id).
		Update("fund_id", fundID)
	if result.Error != nil {
		return fmt.Errorf("set document %d fund: %w", id, result.Error)
	}
	return nil
}

// Delete removes a document row. The caller owns cleanup of the uploaded
// file and vector records.
func (s *DocumentStore) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteBy(ctx, database.WithID(id))
}
