package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"aotw/internal/history"
	"aotw/internal/logging"
	"aotw/internal/publish"
	"aotw/internal/snapshot"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Export the ledger and publish the website snapshot now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if err := ctx.requireLedger(cfg); err != nil {
				return err
			}
			if !cfg.PublishConfigured() {
				return errors.New("publishing is not configured. Set publish.enabled, GITHUB_TOKEN, GITHUB_REPO_OWNER, and GITHUB_REPO_NAME")
			}
			pub, err := ctx.publisher(cfg, logger)
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			w := newStatusWriter(cmd)
			runCtx := commandCtx(cmd)
			if pending, err := store.PendingPublish(runCtx); err == nil && pending != nil {
				fmt.Fprintf(w.out, "Pending since pick #%d (%s by %s)\n", pending.PickNumber, pending.Album, pending.Artist)
			}

			run := history.PublishRun{CorrelationID: uuid.NewString(), Trigger: "manual"}
			syncErr := withRunLock(runCtx, cfg, func() error {
				entries, err := snapshot.NewExporter(ctx.ledgerOpener(), logger).Export(runCtx, ctx.ledgerRef(cfg))
				if err != nil {
					return fmt.Errorf("export snapshot: %w", err)
				}
				run.Albums = len(entries)
				content, err := snapshot.Marshal(entries)
				if err != nil {
					return err
				}
				return pub.PushSnapshot(runCtx, content, publish.CommitMessage(nil))
			})
			run.Success = syncErr == nil
			if syncErr != nil {
				run.Message = syncErr.Error()
			} else {
				run.Message = publish.MessagePublished
			}
			if _, err := store.RecordPublish(runCtx, run); err != nil {
				logging.WarnWithContext(logger, "record publish run failed", "history_write_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "publish run missing from history"),
				)
			}
			if syncErr != nil {
				return syncErr
			}
			w.line(statusOK, "Published %d albums to %s", run.Albums, cfg.Publish.Owner+"/"+cfg.Publish.Repo)
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the website snapshot locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if err := ctx.requireLedger(cfg); err != nil {
				return err
			}
			entries, err := snapshot.NewExporter(ctx.ledgerOpener(), logger).Export(commandCtx(cmd), ctx.ledgerRef(cfg))
			if err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}

			if output = strings.TrimSpace(output); output == "" {
				data, err := snapshot.Marshal(entries)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := snapshot.WriteFile(output, entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d albums to %s\n", len(entries), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (defaults to stdout)")
	return cmd
}
