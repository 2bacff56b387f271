// Package ledger defines the fund cash-flow ledger: capital calls,
// distributions, and adjustments extracted from report tables.
package ledger

import (
	"context"
	"time"
)

// Kind identifies a ledger row variant. The value doubles as the table
// classification label produced by the table parser.
type Kind string

// Kind values.
const (
	KindCapitalCall  Kind = "capital_call"
	KindDistribution Kind = "distribution"
	KindAdjustment   Kind = "adjustment"
)

// String returns the classification label.
func (k Kind) String() string { return string(k) }

// Row is one ledger entry. Rows are created only by the table parser during
// document processing and are immutable afterwards; they always reference an
// existing fund.
//
// The Flag field is variant-specific: recallable for distributions,
// contribution-adjustment for adjustments, unused for capital calls.
type Row struct {
	id          int64
	fundID      int64
	kind        Kind
	date        *time.Time
	category    string
	amount      float64
	flag        bool
	description string
}

// NewRow creates a ledger Row ready for persistence. A nil date is legal:
// rows whose date failed every parse format are still recorded.
func NewRow(fundID int64, kind Kind, date *time.Time, category string, amount float64, flag bool, description string) Row {
	return Row{
		fundID:      fundID,
		kind:        kind,
		date:        copyDate(date),
		category:    category,
		amount:      amount,
		flag:        flag,
		description: description,
	}
}

// Restore reconstructs a Row from persisted state.
func Restore(id, fundID int64, kind Kind, date *time.Time, category string, amount float64, flag bool, description string) Row {
	r := NewRow(fundID, kind, date, category, amount, flag, description)
	r.id = id
	return r
}

// ID returns the row identifier (0 until persisted).
func (r Row) ID() int64 { return r.id }

// FundID returns the owning fund id.
func (r Row) FundID() int64 { return r.fundID }

// Kind returns the row variant.
func (r Row) Kind() Kind { return r.kind }

// Date returns the event date, or nil when unparseable.
func (r Row) Date() *time.Time { return copyDate(r.date) }

// Category returns the call/distribution/adjustment type label.
func (r Row) Category() string { return r.category }

// Amount returns the signed monetary amount.
func (r Row) Amount() float64 { return r.amount }

// Flag returns the variant-specific boolean: recallable for distributions,
// contribution-adjustment for adjustments.
func (r Row) Flag() bool { return r.flag }

// Description returns the free-text description.
func (r Row) Description() string { return r.description }

func copyDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Store persists ledger rows.
type Store interface {
	// Insert persists the given rows in one transaction, routing each row
	// to its variant's table.
	Insert(ctx context.Context, rows []Row) error

	// FindByFund returns all rows of the given kind for a fund.
	FindByFund(ctx context.Context, fundID int64, kind Kind) ([]Row, error)
}
