// =============================================================================
// sheets.go - Google Sheets sink
// =============================================================================
package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// RowSink receives finished rows for one spreadsheet tab. Runs depend on
// this interface so tests can capture rows without network access.
type RowSink interface {
	AppendRows(ctx context.Context, tab string, rows [][]string) error
}

// SheetsSink appends rows to a Google Sheets spreadsheet using a service
// account.
type SheetsSink struct {
	svc     *sheets.Service
	sheetID string
}

// NewSheetsSink authenticates with the service-account JSON in
// GOOGLE_SERVICE_ACCOUNT, accepted either raw or base64-encoded.
func NewSheetsSink(ctx context.Context, sheetID string) (*SheetsSink, error) {
	if sheetID == "" {
		return nil, fmt.Errorf("sheet ID is required")
	}
	creds := os.Getenv("GOOGLE_SERVICE_ACCOUNT")
	if creds == "" {
		return nil, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT is not set")
	}
	raw := []byte(creds)
	if decoded, err := base64.StdEncoding.DecodeString(creds); err == nil {
		raw = decoded
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(raw),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return &SheetsSink{svc: svc, sheetID: sheetID}, nil
}

// AppendRows inserts rows at the top of the tab's data region.
func (s *SheetsSink) AppendRows(ctx context.Context, tab string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	values := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.sheetID, tab+"!A1", &sheets.ValueRange{
		Values: values,
	}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", tab, err)
	}
	return nil
}
