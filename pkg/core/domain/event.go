package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Header is the first row of every event sheet.
var Header = []string{"ts_iso", "event", "variant", "userId", "meta"}

// ISOLayout matches JavaScript's Date.toISOString.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Submission is an inbound event as decoded from the request body.
// Absent fields are empty strings.
type Submission struct {
	Event   string `json:"event"`
	Variant string `json:"variant,omitempty"`
	UserID  string `json:"userId"`
	TS      string `json:"ts"`
	Meta    string `json:"meta,omitempty"` // raw JSON text, never re-encoded
}

// LogRow is the normalized record appended to the sheet.
type LogRow struct {
	TSISO   string `json:"ts_iso"`
	Event   string `json:"event"`
	Variant string `json:"variant"`
	UserID  string `json:"userId"`
	Meta    string `json:"meta"`
}

// Cells returns the row in sheet column order.
func (r LogRow) Cells() []string {
	return []string{r.TSISO, r.Event, r.Variant, r.UserID, r.Meta}
}

// Row is a stored sheet row. Number 1 is the header.
type Row struct {
	Number int64    `json:"row"`
	Cells  []string `json:"cells"`
}

// NewLogRow converts a validated submission into its stored form.
func NewLogRow(s Submission) (LogRow, error) {
	iso, err := MillisToISO(s.TS)
	if err != nil {
		return LogRow{}, err
	}
	return LogRow{
		TSISO:   iso,
		Event:   s.Event,
		Variant: s.Variant,
		UserID:  s.UserID,
		Meta:    s.Meta,
	}, nil
}

// MaxMillis bounds the representable instants, +-100,000,000 days
// around the epoch.
const MaxMillis = 8.64e15

// MillisToISO converts a millisecond epoch given as decimal text.
// Fractional milliseconds are truncated. Years outside 0000-9999 use the
// expanded six digit form, e.g. +275760-09-13T00:00:00.000Z.
func MillisToISO(ts string) (string, error) {
	ts = strings.TrimSpace(ts)
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: ts %q is not a number", ErrValidation, ts)
	}
	if math.Abs(f) > MaxMillis {
		return "", fmt.Errorf("%w: ts %q is out of range", ErrValidation, ts)
	}

	ms := int64(f)
	if n, err := strconv.ParseInt(ts, 10, 64); err == nil {
		ms = n
	}

	t := time.UnixMilli(ms).UTC()
	if y := t.Year(); y < 0 || y > 9999 {
		return fmt.Sprintf("%+07d", y) + t.Format("-01-02T15:04:05.000Z"), nil
	}
	return t.Format(ISOLayout), nil
}
