package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"aotw/internal/enrich"
	"aotw/internal/picker"
)

type enrichJob func(ctx context.Context, runner *enrich.Runner, opts enrich.Options) (enrich.Report, error)

// runEnrichJob loads config, holds the run lock, and prints the report.
func runEnrichJob(ctx *commandContext, cmd *cobra.Command, opts enrich.Options, verbose bool, job enrichJob) error {
	cfg, logger, err := ctx.setup()
	if err != nil {
		return err
	}
	if err := ctx.requireLedger(cfg); err != nil {
		return err
	}
	runner := enrich.NewRunner(ctx.ledgerOpener(), logger)

	var report enrich.Report
	runCtx := commandCtx(cmd)
	if err := withRunLock(runCtx, cfg, func() error {
		var jobErr error
		report, jobErr = job(runCtx, runner, opts)
		return jobErr
	}); err != nil {
		return err
	}
	printReport(cmd, report, verbose)
	return nil
}

func printReport(cmd *cobra.Command, report enrich.Report, verbose bool) {
	w := newStatusWriter(cmd)
	verb := "Updated"
	if report.DryRun {
		verb = "Would update"
	}
	kind := statusOK
	if report.Failed > 0 {
		kind = statusWarn
	}
	w.line(kind, "%s %d of %d rows (%d skipped, %d not found, %d failed)",
		verb, report.Updated, report.Scanned, report.Skipped, report.NotFound, report.Failed)

	if !verbose || len(report.Updates) == 0 {
		return
	}
	rows := make([][]string, 0, len(report.Updates))
	for _, u := range report.Updates {
		rows = append(rows, []string{u.A1(), strconv.Itoa(u.Row), u.Value})
	}
	fmt.Fprintln(w.out, renderTable([]string{"Cell", "Row", "Value"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
}

func bindEnrichFlags(cmd *cobra.Command, opts *enrich.Options, verbose *bool) {
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Show planned updates without writing them")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite cells that already hold a value")
	cmd.Flags().BoolVarP(verbose, "verbose", "v", false, "List every cell update")
}

func newBackfillPickersCommand(ctx *commandContext) *cobra.Command {
	var opts enrich.Options
	var verbose bool

	cmd := &cobra.Command{
		Use:   "backfill-pickers",
		Short: "Fill empty picker cells from the rotation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrichJob(ctx, cmd, opts, verbose, func(runCtx context.Context, runner *enrich.Runner, opts enrich.Options) (enrich.Report, error) {
				cfg, _ := ctx.ensureConfig()
				return runner.BackfillPickers(runCtx, ctx.ledgerRef(cfg), picker.NewRotation(cfg.Pickers), opts)
			})
		},
	}
	bindEnrichFlags(cmd, &opts, &verbose)
	return cmd
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	enrichCmd := &cobra.Command{
		Use:   "enrich",
		Short: "Backfill ledger columns from external services",
	}
	enrichCmd.AddCommand(newEnrichAppleMusicCommand(ctx))
	enrichCmd.AddCommand(newEnrichSpotifyCommand(ctx))
	return enrichCmd
}

func newEnrichAppleMusicCommand(ctx *commandContext) *cobra.Command {
	var opts enrich.Options
	var verbose bool

	cmd := &cobra.Command{
		Use:   "apple-music",
		Short: "Fill empty Apple Music links through Odesli",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrichJob(ctx, cmd, opts, verbose, func(runCtx context.Context, runner *enrich.Runner, opts enrich.Options) (enrich.Report, error) {
				cfg, _ := ctx.ensureConfig()
				links, err := linkClient(cfg)
				if err != nil {
					return enrich.Report{}, fmt.Errorf("create odesli client: %w", err)
				}
				if links == nil {
					return enrich.Report{}, fmt.Errorf("odesli is disabled; set odesli.enabled = true")
				}
				return runner.AppleMusicLinks(runCtx, ctx.ledgerRef(cfg), links, opts)
			})
		},
	}
	bindEnrichFlags(cmd, &opts, &verbose)
	return cmd
}

func newEnrichSpotifyCommand(ctx *commandContext) *cobra.Command {
	var opts enrich.Options
	var verbose bool

	cmd := &cobra.Command{
		Use:   "spotify",
		Short: "Fill missing label, genres, and track counts from Spotify",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrichJob(ctx, cmd, opts, verbose, func(runCtx context.Context, runner *enrich.Runner, opts enrich.Options) (enrich.Report, error) {
				cfg, _ := ctx.ensureConfig()
				client, err := catalogClient(cfg)
				if err != nil {
					return enrich.Report{}, err
				}
				return runner.SpotifyMetadata(runCtx, ctx.ledgerRef(cfg), client, opts)
			})
		},
	}
	bindEnrichFlags(cmd, &opts, &verbose)
	return cmd
}
