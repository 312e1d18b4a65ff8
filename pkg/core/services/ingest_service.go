package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/domain"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/ports"
)

// Target names the sheet events are appended to.
type Target struct {
	Workbook string
	Sheet    string
}

type IngestService struct {
	store     ports.SheetStore
	target    Target
	publisher ports.EventPublisher
	log       *slog.Logger
}

// NewIngestService wires the store. publisher may be nil.
func NewIngestService(store ports.SheetStore, target Target, publisher ports.EventPublisher, log *slog.Logger) *IngestService {
	return &IngestService{
		store:     store,
		target:    target,
		publisher: publisher,
		log:       log,
	}
}

// Ingest validates one submission and appends it as a row.
func (s *IngestService) Ingest(ctx context.Context, sub domain.Submission) error {
	if err := validateSubmission(sub); err != nil {
		return err
	}

	row, err := domain.NewLogRow(sub)
	if err != nil {
		return err
	}

	sheet, err := s.store.EnsureSheet(ctx, s.target.Workbook, s.target.Sheet, domain.Header)
	if err != nil {
		return fmt.Errorf("open sheet %s: %w", s.target.Sheet, err)
	}

	if err := sheet.AppendRow(ctx, row.Cells()); err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	s.log.Debug("row appended", "workbook", s.target.Workbook, "sheet", sheet.Name(), "event", row.Event)

	// Mirror is best-effort; the row is already stored.
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, row); err != nil {
			s.log.Warn("publish event failed", "event", row.Event, "error", err)
		}
	}
	return nil
}

// ListRows pages through the target sheet, header included as row 1.
func (s *IngestService) ListRows(ctx context.Context, page, limit int) ([]domain.Row, int64, error) {
	page, limit = domain.NormalizePage(page, limit)
	offset := (page - 1) * limit

	sheet, err := s.store.FindSheet(ctx, s.target.Workbook, s.target.Sheet)
	if err != nil {
		return nil, 0, err
	}
	if sheet == nil {
		return []domain.Row{}, 0, nil
	}

	rows, err := sheet.Rows(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	count, err := sheet.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}
