package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fundsight/fundsight/domain/ledger"
	"github.com/fundsight/fundsight/internal/database"
)

// LedgerStore is the GORM-backed ledger.Store. Rows are routed to the
// capital_calls, distributions, or adjustments table by their kind.
type LedgerStore struct {
	db database.Database
}

// NewLedgerStore creates a LedgerStore.
func NewLedgerStore(db database.Database) *LedgerStore {
	return &LedgerStore{db: db}
}

// Insert persists the rows in a single transaction. A failure on any row
// rolls back the whole batch.
func (s *LedgerStore) Insert(ctx context.Context, rows []ledger.Row) error {
	if len(rows) == 0 {
		return nil
	}
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, row := range rows {
			if err := insertRow(tx, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertRow(tx *gorm.DB, row ledger.Row) error {
	switch row.Kind() {
	case ledger.KindCapitalCall:
		model := capitalCallToModel(row)
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("insert capital call: %w", err)
		}
	case ledger.KindDistribution:
		model := distributionToModel(row)
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("insert distribution: %w", err)
		}
	case ledger.KindAdjustment:
		model := adjustmentToModel(row)
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("insert adjustment: %w", err)
		}
	default:
		return fmt.Errorf("unknown ledger row kind: %q", row.Kind())
	}
	return nil
}

// FindByFund returns all rows of the given kind for a fund, oldest first by
// event date with undated rows last.
func (s *LedgerStore) FindByFund(ctx context.Context, fundID int64, kind ledger.Kind) ([]ledger.Row, error) {
	session := s.db.Session(ctx)
	switch kind {
	case ledger.KindCapitalCall:
		var models []CapitalCallModel
		if err := session.Where("fund_id = ?", fundID).Order("call_date IS NULL, call_date ASC, id ASC").Find(&models).Error; err != nil {
			return nil, fmt.Errorf("find capital calls: %w", err)
		}
		rows := make([]ledger.Row, 0, len(models))
		for _, m := range models {
			rows = append(rows, capitalCallToRow(m))
		}
		return rows, nil
	case ledger.KindDistribution:
		var models []DistributionModel
		if err := session.Where("fund_id = ?", fundID).Order("distribution_date IS NULL, distribution_date ASC, id ASC").Find(&models).Error; err != nil {
			return nil, fmt.Errorf("find distributions: %w", err)
		}
		rows := make([]ledger.Row, 0, len(models))
		for _, m := range models {
			rows = append(rows, distributionToRow(m))
		}
		return rows, nil
	case ledger.KindAdjustment:
		var models []AdjustmentModel
		if err := session.Where("fund_id = ?", fundID).Order("adjustment_date IS NULL, adjustment_date ASC, id ASC").Find(&models).Error; err != nil {
			return nil, fmt.Errorf("find adjustments: %w", err)
		}
		rows := make([]ledger.Row, 0, len(models))
		for _, m := range models {
			rows = append(rows, adjustmentToRow(m))
		}
		return rows, nil
	}
	return nil, fmt.Errorf("unknown ledger row kind: %q", kind)
}
