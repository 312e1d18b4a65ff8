package ports

import (
	"context"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/domain"
)

// SheetStore is the append-only tabular store behind the ingest endpoint
type SheetStore interface {
	// EnsureSheet returns the named sheet of a workbook, creating it with
	// the header row when it does not exist yet. Safe to call on every request.
	EnsureSheet(ctx context.Context, workbook, name string, header []string) (SheetHandle, error)
	// FindSheet returns nil, nil when the sheet was never created.
	FindSheet(ctx context.Context, workbook, name string) (SheetHandle, error)
}

// SheetHandle is a resolved sheet
type SheetHandle interface {
	Name() string
	AppendRow(ctx context.Context, cells []string) error
	Rows(ctx context.Context, limit, offset int) ([]domain.Row, error)
	Count(ctx context.Context) (int64, error)
}

// EventPublisher mirrors accepted rows to another system
type EventPublisher interface {
	Publish(ctx context.Context, row domain.LogRow) error
	Close() error
}

// IngestService defines the business logic of the ingest endpoint
type IngestService interface {
	Ingest(ctx context.Context, sub domain.Submission) error
	ListRows(ctx context.Context, page, limit int) ([]domain.Row, int64, error)
}

// KeyValueStorage is the beacon's local persisted state, the
// counterpart of browser localStorage. Missing keys read as "".
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
