package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"aotw/internal/services"
)

// GoogleSheets is a Sheet backed by one tab of a Google spreadsheet.
type GoogleSheets struct {
	service       *sheets.Service
	spreadsheetID string
	tab           string
}

// GoogleSheetsOpener opens tabs with service-account credentials.
type GoogleSheetsOpener struct {
	// ClientOptions are appended after the credential options; tests use
	// them to point at a local endpoint.
	ClientOptions []option.ClientOption
}

// Open authenticates and returns the tab named by ref.
func (o GoogleSheetsOpener) Open(ctx context.Context, ref Ref) (Sheet, error) {
	if ref.SpreadsheetID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ledger", "open", "spreadsheet id is required", nil)
	}
	if ref.Tab == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ledger", "open", "sheet tab is required", nil)
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case len(ref.Credentials.JSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(ref.Credentials.JSON))
	case ref.Credentials.File != "":
		opts = append(opts, option.WithCredentialsFile(ref.Credentials.File))
	case len(o.ClientOptions) == 0:
		return nil, services.Wrap(services.ErrConfiguration, "ledger", "open", "missing service account credentials; set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE", nil)
	}
	opts = append(opts, o.ClientOptions...)

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "ledger", "open", "create sheets client", err)
	}
	return &GoogleSheets{service: service, spreadsheetID: ref.SpreadsheetID, tab: ref.Tab}, nil
}

// Values implements Sheet.
func (g *GoogleSheets) Values(ctx context.Context) ([][]string, error) {
	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, QuoteTab(g.tab)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifyAPIError("read values", err)
	}
	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			if cell != nil {
				row[j] = fmt.Sprint(cell)
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// AppendRow implements Sheet.
func (g *GoogleSheets) AppendRow(ctx context.Context, row []string) error {
	values := make([]any, len(row))
	for i, cell := range row {
		values[i] = cell
	}
	_, err := g.service.Spreadsheets.Values.Append(g.spreadsheetID, QuoteTab(g.tab), &sheets.ValueRange{Values: [][]any{values}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classifyAPIError("append row", err)
	}
	return nil
}

// UpdateCells implements Sheet.
func (g *GoogleSheets) UpdateCells(ctx context.Context, updates []CellUpdate) error {
	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, update := range updates {
		data = append(data, &sheets.ValueRange{
			Range:  QuoteTab(g.tab) + "!" + update.A1(),
			Values: [][]any{{update.Value}},
		})
	}
	req := &sheets.BatchUpdateValuesRequest{ValueInputOption: "USER_ENTERED", Data: data}
	if _, err := g.service.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classifyAPIError("batch update", err)
	}
	return nil
}

func classifyAPIError(operation string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return services.Wrap(services.ErrNotFound, "ledger", operation, "spreadsheet or tab not found", err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "ledger", operation, "service account lacks access", err)
		case http.StatusTooManyRequests:
			return services.Wrap(services.ErrTransient, "ledger", operation, "rate limited", err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "ledger", operation, "", err)
	}
	return services.Wrap(services.ErrExternal, "ledger", operation, "", err)
}
