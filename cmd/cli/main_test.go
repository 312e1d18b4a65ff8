package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/domain"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/logger"
)

func seedRepo(t *testing.T, workbook string, rows ...[]string) *sqlite.SheetRepository {
	t.Helper()
	repo, err := sqlite.NewSheetRepository(filepath.Join(t.TempDir(), t.Name()+".db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	sheet, err := repo.EnsureSheet(context.Background(), workbook, "events", domain.Header)
	require.NoError(t, err)
	for _, cells := range rows {
		require.NoError(t, sheet.AppendRow(context.Background(), cells))
	}
	return repo
}

func TestExportCSV(t *testing.T) {
	repo := seedRepo(t, "wb",
		[]string{"2023-11-14T22:13:20.000Z", "cta_click", "A", "u_1", `{"page":"/"}`},
	)

	var out bytes.Buffer
	require.NoError(t, exportRows(context.Background(), repo, "wb", "events", "csv", &out))

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.Header, records[0])
	assert.Equal(t, `{"page":"/"}`, records[1][4])
}

func TestExportMissingSheet(t *testing.T) {
	repo := seedRepo(t, "wb")

	err := exportRows(context.Background(), repo, "other", "events", "json", &bytes.Buffer{})
	assert.ErrorContains(t, err, "not found")
}

func TestExportUnknownFormat(t *testing.T) {
	repo := seedRepo(t, "wb")

	err := exportRows(context.Background(), repo, "wb", "events", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seedRepo(t, "wb",
		[]string{"2023-11-14T22:13:20.000Z", "cta_click", "A", "u_1", "{}"},
		[]string{"2023-11-14T22:13:21.000Z", "heartbeat", "", "u_1", "{}"},
	)

	var dump bytes.Buffer
	require.NoError(t, exportRows(ctx, src, "wb", "events", "json", &dump))

	dst := seedRepo(t, "restored")
	n, err := importRows(ctx, dst, "restored", "events", &dump, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sheet, err := dst.FindSheet(ctx, "restored", "events")
	require.NoError(t, err)
	rows, err := sheet.Rows(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.Header, rows[0].Cells)
	assert.Equal(t, "cta_click", rows[1].Cells[1])
	assert.Equal(t, "heartbeat", rows[2].Cells[1])
}

func TestImportSkipsMisshapenRows(t *testing.T) {
	ctx := context.Background()
	dst := seedRepo(t, "wb")

	dump := `[{"row":1,"cells":["ts_iso","event","variant","userId","meta"]},
		{"row":2,"cells":["only","three","cells"]},
		{"row":3,"cells":["2023-11-14T22:13:20.000Z","heartbeat","","u_1","{}"]}]`
	n, err := importRows(ctx, dst, "wb", "events", bytes.NewBufferString(dump), logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
