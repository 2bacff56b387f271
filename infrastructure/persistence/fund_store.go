package persistence

import (
	"context"
	"fmt"

	"github.com/fundsight/fundsight/domain/fund"
	"github.com/fundsight/fundsight/internal/database"
)

// FundStore is the GORM-backed fund.Store.
type FundStore struct {
	repo database.Repository[fund.Fund, FundModel]
}

// NewFundStore creates a FundStore.
func NewFundStore(db database.Database) *FundStore {
	return &FundStore{repo: database.NewRepository[fund.Fund, FundModel](db, FundMapper{}, "fund")}
}

// Get retrieves a fund by ID.
func (s *FundStore) Get(ctx context.Context, id int64) (fund.Fund, error) {
	return s.repo.FindOne(ctx, database.WithID(id))
}

// FindByName retrieves a fund by exact name match. Returns
// database.ErrNotFound when no fund carries the name.
func (s *FundStore) FindByName(ctx context.Context, name string) (fund.Fund, error) {
	return s.repo.FindOne(ctx, database.WithName(name))
}

// List returns all funds in creation order.
func (s *FundStore) List(ctx context.Context) ([]fund.Fund, error) {
	return s.repo.Find(ctx, database.WithOrderAsc("id"))
}

// Create persists a new fund. Name uniqueness is not enforced; the caller
// owns get-or-create semantics.
func (s *FundStore) Create(ctx context.Context, f fund.Fund) (fund.Fund, error) {
	model := s.repo.Mapper().ToModel(f)
	if err := s.repo.DB(ctx).Create(&model).Error; err != nil {
		return fund.Fund{}, fmt.Errorf("create fund: %w", err)
	}
	return s.repo.Mapper().ToDomain(model), nil
}
