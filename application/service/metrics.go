package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fundsight/fundsight/domain/ledger"
)

// MetricsCalculator derives fund performance metrics from ledger rows.
type MetricsCalculator struct {
	rows ledger.Store
}

// NewMetricsCalculator creates a MetricsCalculator.
func NewMetricsCalculator(rows ledger.Store) *MetricsCalculator {
	return &MetricsCalculator{rows: rows}
}

// CalculateAll computes DPI, TVPI, and IRR for a fund.
//
// Paid-in capital is the sum of capital calls plus contribution
// adjustments; non-contribution adjustments reduce it. Distributed capital
// is the sum of distributions. With no NAV source in the ledger, residual
// value is zero and TVPI equals DPI.
func (c *MetricsCalculator) CalculateAll(ctx context.Context, fundID int64) (map[string]float64, error) {
	calls, err := c.rows.FindByFund(ctx, fundID, ledger.KindCapitalCall)
	if err != nil {
		return nil, fmt.Errorf("load capital calls: %w", err)
	}
	distributions, err := c.rows.FindByFund(ctx, fundID, ledger.KindDistribution)
	if err != nil {
		return nil, fmt.Errorf("load distributions: %w", err)
	}
	adjustments, err := c.rows.FindByFund(ctx, fundID, ledger.KindAdjustment)
	if err != nil {
		return nil, fmt.Errorf("load adjustments: %w", err)
	}

	var paidIn, distributed float64
	var flows []cashFlow

	for _, row := range calls {
		paidIn += row.Amount()
		if d := row.Date(); d != nil {
			flows = append(flows, cashFlow{date: *d, amount: -row.Amount()})
		}
	}
	for _, row := range adjustments {
		amount := row.Amount()
		if !row.Flag() {
			amount = -amount
		}
		paidIn += amount
		if d := row.Date(); d != nil {
			flows = append(flows, cashFlow{date: *d, amount: -amount})
		}
	}
	for _, row := range distributions {
		distributed += row.Amount()
		if d := row.Date(); d != nil {
			flows = append(flows, cashFlow{date: *d, amount: row.Amount()})
		}
	}

	metrics := map[string]float64{"DPI": 0, "TVPI": 0, "IRR": 0}
	if paidIn != 0 {
		metrics["DPI"] = distributed / paidIn
		metrics["TVPI"] = distributed / paidIn
	}
	if irr, ok := irrBisection(flows); ok {
		metrics["IRR"] = irr
	}
	return metrics, nil
}

type cashFlow struct {
	date   time.Time
	amount float64
}

const (
	irrLow        = -0.999
	irrHigh       = 10.0
	irrTolerance  = 1e-7
	irrIterations = 200
)

// irrBisection solves for the annual rate that zeroes the net present
// value of the dated cash flows. It needs at least one outflow and one
// inflow, and the NPV must change sign over the bracket.
func irrBisection(flows []cashFlow) (float64, bool) {
	if len(flows) < 2 {
		return 0, false
	}
	var hasInflow, hasOutflow bool
	for _, f := range flows {
		if f.amount > 0 {
			hasInflow = true
		}
		if f.amount < 0 {
			hasOutflow = true
		}
	}
	if !hasInflow || !hasOutflow {
		return 0, false
	}

	sort.Slice(flows, func(i, j int) bool { return flows[i].date.Before(flows[j].date) })
	start := flows[0].date

	npv := func(rate float64) float64 {
		var total float64
		for _, f := range flows {
			years := f.date.Sub(start).Hours() / (24 * 365.25)
			total += f.amount / math.Pow(1+rate, years)
		}
		return total
	}

	low, high := irrLow, irrHigh
	npvLow, npvHigh := npv(low), npv(high)
	if npvLow*npvHigh > 0 {
		return 0, false
	}
	for i := 0; i < irrIterations; i++ {
		mid := (low + high) / 2
		npvMid := npv(mid)
		if math.Abs(npvMid) < irrTolerance || (high-low)/2 < irrTolerance {
			return mid, true
		}
		if npvLow*npvMid < 0 {
			high = mid
		} else {
			low = mid
			npvLow = npvMid
		}
	}
	return (low + high) / 2, true
}
