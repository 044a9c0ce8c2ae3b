package enrich

import (
	"context"

	"aotw/internal/ledger"
	"aotw/internal/logging"
	"aotw/internal/picker"
)

// BackfillPickers fills empty picker cells from the rotation by pick number.
// Rows without a positive pick number are skipped.
func (r *Runner) BackfillPickers(ctx context.Context, ref ledger.Ref, rotation picker.Rotation, opts Options) (Report, error) {
	report := Report{Job: "backfill-pickers"}
	l, err := r.connect(ctx, ref)
	if err != nil {
		return report, err
	}
	if err := requireColumns(l, ledger.ColumnPicker, ledger.ColumnPick); err != nil {
		return report, err
	}

	var results []rowUpdate
	for _, row := range l.Rows() {
		report.Scanned++
		if row.Value(ledger.ColumnPicker) != "" && !opts.Force {
			report.Skipped++
			continue
		}
		pick, ok := ledger.ParsePick(row.Value(ledger.ColumnPick))
		code := rotation.For(pick)
		if !ok || code == "" {
			report.Skipped++
			continue
		}
		cell, _ := l.Cell(row, ledger.ColumnPicker)
		cell.Value = code
		r.logger.Debug("picker assigned",
			logging.Int(logging.FieldPick, pick),
			logging.Int("row", row.Number),
			logging.String(logging.FieldPicker, code),
		)
		results = append(results, rowUpdate{cells: []ledger.CellUpdate{cell}})
	}
	return report, r.finish(ctx, l, &report, results, opts)
}
