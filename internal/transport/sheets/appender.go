// Package sheets appends audit rows to a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/kailas-cloud/supportdesk/internal/domain/audit"
)

// DefaultRange targets the first sheet; Append finds the end of the table itself.
const DefaultRange = "Sheet1!A:L"

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID string
	Range         string
	// CredentialsFile is a service-account JSON file path. Inline JSON (starting with "{") is accepted too.
	CredentialsFile string
}

// Appender writes one spreadsheet row per audit record.
type Appender struct {
	svc           *gsheets.Service
	spreadsheetID string
	rng           string
}

// New creates an Appender. Extra options are applied after the credentials (tests pass an endpoint).
func New(ctx context.Context, cfg Config, extra ...option.ClientOption) (*Appender, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if cfg.Range == "" {
		cfg.Range = DefaultRange
	}

	opts := append(credentialOptions(cfg.CredentialsFile), extra...)
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Appender{svc: svc, spreadsheetID: cfg.SpreadsheetID, rng: cfg.Range}, nil
}

func credentialOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	switch {
	case creds == "":
		// Application default credentials.
	case strings.HasPrefix(creds, "{"):
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	default:
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return opts
}

// Append adds the record as a new row. Values are written RAW so user text is never
// evaluated as a formula.
func (a *Appender) Append(ctx context.Context, rec *audit.Record) error {
	cells := rec.Row()
	row := make([]any, len(cells))
	for i, c := range cells {
		row[i] = c
	}

	_, err := a.svc.Spreadsheets.Values.
		Append(a.spreadsheetID, a.rng, &gsheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", a.spreadsheetID, err)
	}
	return nil
}
