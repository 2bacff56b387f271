package persistence

import (
	"time"
)

// FundModel is the funds table.
type FundModel struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	Name          string `gorm:"index;not null"`
	GPName        string `gorm:"column:gp_name"`
	FundType      string
	VintageYear   int
	CommittedSize int64
	CreatedAt     time.Time
}

func (FundModel) TableName() string { return "funds" }

// DocumentModel is the documents table. Status holds the parsing state
// machine value; ErrorMessage is set only on failure.
type DocumentModel struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	FundID       *int64 `gorm:"index"`
	FileName     string `gorm:"not null"`
	FilePath     string `gorm:"not null"`
	UploadedAt   time.Time
	Status       string `gorm:"index;not null;default:pending"`
	ErrorMessage string
}

func (DocumentModel) TableName() string { return "documents" }

// CapitalCallModel is the capital_calls ledger table.
type CapitalCallModel struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	FundID      int64 `gorm:"index"`
	CallDate    *time.Time
	CallType    string
	Amount      float64
	Description string
	CreatedAt   time.Time
}

func (CapitalCallModel) TableName() string { return "capital_calls" }

// DistributionModel is the distributions ledger table.
type DistributionModel struct {
	ID               int64 `gorm:"primaryKey;autoIncrement"`
	FundID           int64 `gorm:"index"`
	DistributionDate *time.Time
	DistributionType string
	Amount           float64
	IsRecallable     bool
	Description      string
	CreatedAt        time.Time
}

func (DistributionModel) TableName() string { return "distributions" }

// AdjustmentModel is the adjustments ledger table.
type AdjustmentModel struct {
	ID               int64 `gorm:"primaryKey;autoIncrement"`
	FundID           int64 `gorm:"index"`
	AdjustmentDate   *time.Time
	AdjustmentType   string
	Amount           float64
	IsContribution   bool
	Description      string
	CreatedAt        time.Time
}

func (AdjustmentModel) TableName() string { return "adjustments" }

// TaskModel is the durable background task queue table.
type TaskModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Operation string `gorm:"not null"`
	Priority  int    `gorm:"index;not null"`
	Payload   map[string]any `gorm:"serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (TaskModel) TableName() string { return "tasks" }

// EmbeddingModel is the document_embeddings table. Embedding is stored as
// JSON on SQLite and as a pgvector column on PostgreSQL; the vector store
// owns that column's type.
type EmbeddingModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	DocumentID *int64 `gorm:"index"`
	FundID     *int64 `gorm:"index"`
	Content    string `gorm:"not null"`
	Metadata   map[string]any `gorm:"serializer:json"`
	CreatedAt  time.Time
}

func (EmbeddingModel) TableName() string { return "document_embeddings" }
