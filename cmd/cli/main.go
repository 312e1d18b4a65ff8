package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/wadjakorntonsri/go-event-beacon/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/config"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/core/domain"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/logger"
	"github.com/wadjakorntonsri/go-event-beacon/pkg/ports"
)

const pageSize = 500

func main() {
	cfg := config.Load()
	log := logger.New("beacon-cli", cfg.AppEnv, cfg.LogLevel)

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportFormat := exportCmd.String("format", "json", "output format: json or csv")
	exportSheet := exportCmd.String("sheet", cfg.SheetName, "sheet to export")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file produced by export")
	importSheet := importCmd.String("sheet", cfg.SheetName, "sheet to append to")

	if len(os.Args) < 2 {
		fmt.Println("expected 'export' or 'import' subcommands")
		os.Exit(1)
	}

	repo, err := sqlite.NewSheetRepository(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()
	workbook := cfg.Workbook()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := exportRows(ctx, repo, workbook, *exportSheet, *exportFormat, os.Stdout); err != nil {
			log.Error("export failed", "error", err)
			os.Exit(1)
		}
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		file, err := os.Open(*importFile)
		if err != nil {
			log.Error("failed to open file", "file", *importFile, "error", err)
			os.Exit(1)
		}
		defer file.Close()

		n, err := importRows(ctx, repo, workbook, *importSheet, file, log)
		if err != nil {
			log.Error("import failed", "imported", n, "error", err)
			os.Exit(1)
		}
		log.Info("import finished", "imported", n)
	default:
		fmt.Println("expected 'export' or 'import' subcommands")
		os.Exit(1)
	}
}

// exportRows writes every row of the sheet, header included.
func exportRows(ctx context.Context, store ports.SheetStore, workbook, sheetName, format string, w io.Writer) error {
	if format != "json" && format != "csv" {
		return fmt.Errorf("unknown format %q", format)
	}

	sheet, err := store.FindSheet(ctx, workbook, sheetName)
	if err != nil {
		return err
	}
	if sheet == nil {
		return fmt.Errorf("sheet %q not found in %q", sheetName, workbook)
	}

	var all []domain.Row
	for offset := 0; ; offset += pageSize {
		rows, err := sheet.Rows(ctx, pageSize, offset)
		if err != nil {
			return err
		}
		all = append(all, rows...)
		if len(rows) < pageSize {
			break
		}
	}

	if format == "csv" {
		cw := csv.NewWriter(w)
		for _, row := range all {
			if err := cw.Write(row.Cells); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(all)
}

// importRows appends exported rows to a sheet, skipping header rows.
// Row numbers in the file are ignored; rows get the next free numbers.
func importRows(ctx context.Context, store ports.SheetStore, workbook, sheetName string, r io.Reader, log *slog.Logger) (int, error) {
	var rows []domain.Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}

	sheet, err := store.EnsureSheet(ctx, workbook, sheetName, domain.Header)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		if slices.Equal(row.Cells, domain.Header) {
			continue
		}
		if len(row.Cells) != len(domain.Header) {
			log.Warn("skipping row", "row", row.Number, "cells", len(row.Cells))
			continue
		}
		if err := sheet.AppendRow(ctx, row.Cells); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
