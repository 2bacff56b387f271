// Package fund defines the private-equity fund aggregate.
package fund

import (
	"context"
	"time"
)

// Fund is a private-equity investment vehicle tracked by name, GP, vintage
// year, and committed size. Funds are created on first sighting of a fund
// header in a processed document and are never updated or deleted by the
// pipeline. Name is the lookup key for get-or-create resolution.
//
// Note: funds.name carries no unique constraint, so two concurrent
// first-uploads with the same new fund name can create duplicate rows. This
// matches the original system's behaviour and is deliberately not fixed here.
type Fund struct {
	id            int64
	name          string
	gpName        string
	fundType      string
	vintageYear   int
	committedSize int64
	createdAt     time.Time
}

// New creates a Fund ready for persistence.
func New(name, gpName, fundType string, vintageYear int, committedSize int64) Fund {
	return Fund{
		name:          name,
		gpName:        gpName,
		fundType:      fundType,
		vintageYear:   vintageYear,
		committedSize: committedSize,
	}
}

// Restore reconstructs a Fund from persisted state.
func Restore(id int64, name, gpName, fundType string, vintageYear int, committedSize int64, createdAt time.Time) Fund {
	return Fund{
		id:            id,
		name:          name,
		gpName:        gpName,
		fundType:      fundType,
		vintageYear:   vintageYear,
		committedSize: committedSize,
		createdAt:     createdAt,
	}
}

// ID returns the fund identifier (0 until persisted).
func (f Fund) ID() int64 { return f.id }

// Name returns the fund name.
func (f Fund) Name() string { return f.name }

// GPName returns the general partner name.
func (f Fund) GPName() string { return f.gpName }

// FundType returns the fund type label.
func (f Fund) FundType() string { return f.fundType }

// VintageYear returns the vintage year (0 when unknown).
func (f Fund) VintageYear() int { return f.vintageYear }

// CommittedSize returns the committed fund size in dollars (0 when unknown).
func (f Fund) CommittedSize() int64 { return f.committedSize }

// CreatedAt returns the creation timestamp.
func (f Fund) CreatedAt() time.Time { return f.createdAt }

// Header holds fund attributes extracted from a report's first page.
// Every field is independently optional; an absent pattern leaves the
// zero value.
type Header struct {
	Name          string
	GPName        string
	VintageYear   int
	CommittedSize int64
	ReportDate    string
}

// IsEmpty reports whether no header field was extracted.
func (h Header) IsEmpty() bool {
	return h.Name == "" && h.GPName == "" && h.VintageYear == 0 &&
		h.CommittedSize == 0 && h.ReportDate == ""
}

// Store persists funds.
type Store interface {
	// Get retrieves a fund by ID.
	Get(ctx context.Context, id int64) (Fund, error)

	// FindByName retrieves a fund by exact name match.
	FindByName(ctx context.Context, name string) (Fund, error)

	// List returns all funds.
	List(ctx context.Context) ([]Fund, error)

	// Create persists a new fund and returns it with its assigned ID.
	Create(ctx context.Context, f Fund) (Fund, error)
}
