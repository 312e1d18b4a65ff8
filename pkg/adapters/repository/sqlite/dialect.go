package sqlite

import "strings"

type dialect struct {
	driver    string
	numbered  bool // $1 style placeholders
	lockSheet bool // appends hold SELECT ... FOR UPDATE on the sheet row
	schema    []string
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sheets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workbook TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (workbook, name)
	)`,
	`CREATE TABLE IF NOT EXISTS sheet_rows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sheet_id INTEGER NOT NULL,
		row_num INTEGER NOT NULL,
		cells TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (sheet_id, row_num),
		FOREIGN KEY(sheet_id) REFERENCES sheets(id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS sheets (
		id BIGSERIAL PRIMARY KEY,
		workbook TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now(),
		UNIQUE (workbook, name)
	)`,
	`CREATE TABLE IF NOT EXISTS sheet_rows (
		id BIGSERIAL PRIMARY KEY,
		sheet_id BIGINT NOT NULL REFERENCES sheets(id),
		row_num BIGINT NOT NULL,
		cells TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now(),
		UNIQUE (sheet_id, row_num)
	)`,
}

func dialectFor(dbURL string) dialect {
	switch {
	case strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://"):
		return dialectByDriver("libsql")
	case strings.HasPrefix(dbURL, "postgres://") || strings.HasPrefix(dbURL, "postgresql://"):
		return dialectByDriver("postgres")
	default:
		return dialectByDriver("sqlite")
	}
}

func dialectByDriver(driver string) dialect {
	if driver == "postgres" {
		return dialect{driver: driver, numbered: true, lockSheet: true, schema: postgresSchema}
	}
	return dialect{driver: driver, schema: sqliteSchema}
}
