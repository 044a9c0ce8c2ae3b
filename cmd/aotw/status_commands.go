package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aotw/internal/history"
	"aotw/internal/preflight"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runCtx := commandCtx(cmd)
			subs, err := store.Recent(runCtx, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, subs)
			}

			out := cmd.OutOrStdout()
			if len(subs) == 0 {
				fmt.Fprintln(out, "No submissions recorded")
				return nil
			}
			w := newStatusWriter(cmd)
			rows := make([][]string, 0, len(subs))
			for _, sub := range subs {
				rows = append(rows, []string{
					sub.CreatedAt.Local().Format("2006-01-02 15:04"),
					submissionStatus(w, sub),
					pickLabel(sub.PickNumber),
					albumLabel(sub),
					sub.Picker,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"When", "Status", "Pick", "Album", "Picker"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))

			pending, err := store.PendingPublish(runCtx)
			if err != nil {
				return err
			}
			if pending != nil {
				w.line(statusWarn, "Website update pending since pick #%d; run 'aotw sync'", pending.PickNumber)
			}
			if last, err := store.LastPublish(runCtx); err == nil && last != nil {
				fmt.Fprintf(out, "Last sync: %s (%s, %d albums)\n", last.CreatedAt.Local().Format(time.DateTime), yesNo(last.Success), last.Albums)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of submissions to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print submissions as JSON")
	return cmd
}

func submissionStatus(w statusWriter, sub history.Submission) string {
	switch {
	case sub.Success && sub.PartialFailure:
		return w.label(statusWarn, "pending publish")
	case sub.Success:
		return w.label(statusOK, "added")
	default:
		return w.label(statusError, strings.ReplaceAll(sub.Kind, "_", " "))
	}
}

func pickLabel(pick int) string {
	if pick <= 0 {
		return "-"
	}
	return strconv.Itoa(pick)
}

func albumLabel(sub history.Submission) string {
	switch {
	case sub.Album != "" && sub.Artist != "":
		return sub.Album + " - " + sub.Artist
	case sub.Album != "":
		return sub.Album
	default:
		return sub.SourceURL
	}
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the ledger, Spotify, and publish target are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			probes := preflight.Probes{Ref: ctx.ledgerRef(cfg)}
			if ctx.requireLedger(cfg) == nil {
				probes.Opener = ctx.ledgerOpener()
			}
			if catalog, err := catalogClient(cfg); err == nil {
				probes.Catalog = catalog
			}
			if repo, err := contentsClient(cfg); err == nil && repo != nil {
				probes.Repo = repo
			}

			results := preflight.RunAll(commandCtx(cmd), cfg, probes)
			w := newStatusWriter(cmd)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := w.label(statusOK, "ok")
				if !r.Passed {
					status = w.label(statusError, "fail")
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(w.out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); failed > 0 {
				w.line(statusError, "%d of %d checks failed", failed, len(results))
				return errReported
			}
			w.line(statusOK, "All checks passed")
			return nil
		},
	}
}
