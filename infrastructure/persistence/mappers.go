package persistence

import (
	"time"

	"github.com/fundsight/fundsight/domain/document"
	"github.com/fundsight/fundsight/domain/fund"
	"github.com/fundsight/fundsight/domain/ledger"
	"github.com/fundsight/fundsight/domain/task"
)

// FundMapper converts between fund.Fund and FundModel.
type FundMapper struct{}

func (FundMapper) ToModel(f fund.Fund) FundModel {
	return FundModel{
		ID:            f.ID(),
		Name:          f.Name(),
		GPName:        f.GPName(),
		FundType:      f.FundType(),
		VintageYear:   f.VintageYear(),
		CommittedSize: f.CommittedSize(),
		CreatedAt:     f.CreatedAt(),
	}
}

func (FundMapper) ToDomain(m FundModel) fund.Fund {
	return fund.Restore(m.ID, m.Name, m.GPName, m.FundType, m.VintageYear, m.CommittedSize, m.CreatedAt)
}

// DocumentMapper converts between document.Document and DocumentModel.
type DocumentMapper struct{}

func (DocumentMapper) ToModel(d document.Document) DocumentModel {
	return DocumentModel{
		ID:           d.ID(),
		FundID:       d.FundID(),
		FileName:     d.FileName(),
		FilePath:     d.FilePath(),
		UploadedAt:   d.UploadedAt(),
		Status:       string(d.Status()),
		ErrorMessage: d.ErrorMessage(),
	}
}

func (DocumentMapper) ToDomain(m DocumentModel) document.Document {
	return document.Restore(m.ID, m.FundID, m.FileName, m.FilePath, m.UploadedAt, document.ParsingStatus(m.Status), m.ErrorMessage)
}

// TaskMapper converts between task.Task and TaskModel.
type TaskMapper struct{}

func (TaskMapper) ToModel(t task.Task) TaskModel {
	return TaskModel{
		ID:        t.ID(),
		Operation: string(t.Operation()),
		Priority:  int(t.Priority()),
		Payload:   t.Payload(),
		CreatedAt: t.CreatedAt(),
		UpdatedAt: t.UpdatedAt(),
	}
}

func (TaskMapper) ToDomain(m TaskModel) task.Task {
	return task.Restore(m.ID, task.Operation(m.Operation), task.Priority(m.Priority), m.Payload, m.CreatedAt, m.UpdatedAt)
}

func capitalCallToModel(r ledger.Row) CapitalCallModel {
	return CapitalCallModel{
		FundID:      r.FundID(),
		CallDate:    r.Date(),
		CallType:    r.Category(),
		Amount:      r.Amount(),
		Description: r.Description(),
	}
}

func capitalCallToRow(m CapitalCallModel) ledger.Row {
	return ledger.Restore(m.ID, m.FundID, ledger.KindCapitalCall, cloneDate(m.CallDate), m.CallType, m.Amount, false, m.Description)
}

func distributionToModel(r ledger.Row) DistributionModel {
	return DistributionModel{
		FundID:           r.FundID(),
		DistributionDate: r.Date(),
		DistributionType: r.Category(),
		Amount:           r.Amount(),
		IsRecallable:     r.Flag(),
		Description:      r.Description(),
	}
}

func distributionToRow(m DistributionModel) ledger.Row {
	return ledger.Restore(m.ID, m.FundID, ledger.KindDistribution, cloneDate(m.DistributionDate), m.DistributionType, m.Amount, m.IsRecallable, m.Description)
}

func adjustmentToModel(r ledger.Row) AdjustmentModel {
	return AdjustmentModel{
		FundID:         r.FundID(),
		AdjustmentDate: r.Date(),
		AdjustmentType: r.Category(),
		Amount:         r.Amount(),
		IsContribution: r.Flag(),
		Description:    r.Description(),
	}
}

func adjustmentToRow(m AdjustmentModel) ledger.Row {
	return ledger.Restore(m.ID, m.FundID, ledger.KindAdjustment, cloneDate(m.AdjustmentDate), m.AdjustmentType, m.Amount, m.IsContribution, m.Description)
}

func cloneDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
