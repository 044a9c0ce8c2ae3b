package testsupport

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"aotw/internal/ledger"
)

// MemorySheet is an in-memory ledger.Sheet that records calls. Formula cells
// of the form "=ROW()-N" are evaluated on append so reads see pick numbers.
type MemorySheet struct {
	mu          sync.Mutex
	rows        [][]string
	ValuesErr   error
	AppendErr   error
	UpdateErr   error
	ValuesCalls int
	Appended    [][]string
	Updates     []ledger.CellUpdate
}

// NewMemorySheet returns a sheet holding a copy of rows.
func NewMemorySheet(rows ...[]string) *MemorySheet {
	s := &MemorySheet{}
	for _, row := range rows {
		s.rows = append(s.rows, append([]string(nil), row...))
	}
	return s
}

// Rows returns a copy of the current contents.
func (s *MemorySheet) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Values implements ledger.Sheet.
func (s *MemorySheet) Values(context.Context) ([][]string, error) {
	s.mu.Lock()
	s.ValuesCalls++
	err := s.ValuesErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Rows(), nil
}

// AppendRow implements ledger.Sheet.
func (s *MemorySheet) AppendRow(_ context.Context, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	stored := append([]string(nil), row...)
	s.Appended = append(s.Appended, append([]string(nil), row...))
	s.rows = append(s.rows, stored)
	rowNumber := len(s.rows)
	for i, cell := range stored {
		var offset int
		if n, _ := fmt.Sscanf(cell, "=ROW()-%d", &offset); n == 1 {
			stored[i] = strconv.Itoa(rowNumber - offset)
		}
	}
	return nil
}

// UpdateCells implements ledger.Sheet.
func (s *MemorySheet) UpdateCells(_ context.Context, updates []ledger.CellUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	for _, update := range updates {
		s.Updates = append(s.Updates, update)
		for len(s.rows) < update.Row {
			s.rows = append(s.rows, nil)
		}
		row := s.rows[update.Row-1]
		for len(row) < update.Column {
			row = append(row, "")
		}
		row[update.Column-1] = update.Value
		s.rows[update.Row-1] = row
	}
	return nil
}

// Opener returns a ledger.Opener that always yields s and records refs.
func (s *MemorySheet) Opener(refs *[]ledger.Ref) ledger.Opener {
	return ledger.OpenerFunc(func(_ context.Context, ref ledger.Ref) (ledger.Sheet, error) {
		if refs != nil {
			*refs = append(*refs, ref)
		}
		return s, nil
	})
}
