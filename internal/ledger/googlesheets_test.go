package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"aotw/internal/ledger"
	"aotw/internal/services"
)

func newSheetsServer(t *testing.T, handler http.HandlerFunc) ledger.Sheet {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opener := ledger.GoogleSheetsOpener{ClientOptions: []option.ClientOption{
		option.WithEndpoint(srv.URL + "/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	}}
	sheet, err := opener.Open(context.Background(), ledger.Ref{SpreadsheetID: "sheet-1", Tab: "Sheet1"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return sheet
}

func TestGoogleSheetsValues(t *testing.T) {
	sheet := newSheetsServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-1/values/") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("valueRenderOption"); got != "FORMATTED_VALUE" {
			t.Errorf("unexpected render option %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Sheet1!A1:C2","majorDimension":"ROWS","values":[["Pick","Date","Artist"],["1","1/5/2025","Björk"]]}`))
	})

	values, err := sheet.Values(context.Background())
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if len(values) != 2 || values[1][2] != "Björk" {
		t.Fatalf("unexpected values %v", values)
	}
}

func TestGoogleSheetsAppendUsesUserEnteredMode(t *testing.T) {
	var body struct {
		Values [][]string `json:"values"`
	}
	sheet := newSheetsServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":append") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("valueInputOption"); got != "USER_ENTERED" {
			t.Errorf("unexpected input option %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	})

	if err := sheet.AppendRow(context.Background(), []string{"=ROW()-1", "1/12/2025", "Radiohead"}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if len(body.Values) != 1 || body.Values[0][0] != "=ROW()-1" {
		t.Fatalf("unexpected appended values %v", body.Values)
	}
}

func TestGoogleSheetsBatchUpdateAddressesCells(t *testing.T) {
	var body struct {
		ValueInputOption string `json:"valueInputOption"`
		Data             []struct {
			Range  string     `json:"range"`
			Values [][]string `json:"values"`
		} `json:"data"`
	}
	sheet := newSheetsServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/values:batchUpdate") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	})

	err := sheet.UpdateCells(context.Background(), []ledger.CellUpdate{{Row: 5, Column: 9, Value: "DG"}})
	if err != nil {
		t.Fatalf("UpdateCells: %v", err)
	}
	if body.ValueInputOption != "USER_ENTERED" || len(body.Data) != 1 {
		t.Fatalf("unexpected request body %+v", body)
	}
	if body.Data[0].Range != "'Sheet1'!I5" || body.Data[0].Values[0][0] != "DG" {
		t.Fatalf("unexpected range data %+v", body.Data[0])
	}
}

func TestGoogleSheetsClassifiesErrors(t *testing.T) {
	cases := []struct {
		status int
		marker error
	}{
		{status: http.StatusNotFound, marker: services.ErrNotFound},
		{status: http.StatusForbidden, marker: services.ErrConfiguration},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			sheet := newSheetsServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			})
			_, err := sheet.Values(context.Background())
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestGoogleSheetsOpenRequiresConfiguration(t *testing.T) {
	opener := ledger.GoogleSheetsOpener{}
	_, err := opener.Open(context.Background(), ledger.Ref{Tab: "Sheet1"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	_, err = opener.Open(context.Background(), ledger.Ref{SpreadsheetID: "x", Tab: "Sheet1"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}
