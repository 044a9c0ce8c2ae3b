package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"aotw/internal/pipeline"
)

type addOutput struct {
	Success        bool     `json:"success"`
	PartialFailure bool     `json:"partial_failure"`
	Kind           string   `json:"kind"`
	Message        string   `json:"message"`
	PickNumber     int      `json:"pick_number,omitempty"`
	Artist         string   `json:"artist,omitempty"`
	Album          string   `json:"album,omitempty"`
	Picker         string   `json:"picker,omitempty"`
	Missing        []string `json:"missing,omitempty"`
	PublishMessage string   `json:"publish_message,omitempty"`
	CorrelationID  string   `json:"correlation_id"`
}

func newAddOutput(res pipeline.Result) addOutput {
	out := addOutput{
		Success:        res.Success,
		PartialFailure: res.PartialFailure,
		Kind:           string(res.Kind),
		Message:        res.Message,
		Missing:        res.Missing,
		PublishMessage: res.PublishMessage,
		CorrelationID:  res.CorrelationID,
	}
	if res.Album != nil {
		out.PickNumber = res.Album.PickNumber
		out.Artist = res.Album.Artist
		out.Album = res.Album.Title
		out.Picker = res.Album.Picker
	}
	return out
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var req pipeline.Request
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "add <spotify-album-url>",
		Short: "Add an album to the ledger and publish the website snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if strings.TrimSpace(req.SheetID) == "" {
				if err := ctx.requireLedger(cfg); err != nil {
					return err
				}
			}
			orch, store, err := ctx.orchestrator(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			req.URL = args[0]
			var res pipeline.Result
			if err := withRunLock(commandCtx(cmd), cfg, func() error {
				res = orch.Process(commandCtx(cmd), req)
				return nil
			}); err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, newAddOutput(res)); err != nil {
					return err
				}
			} else {
				printResult(newStatusWriter(cmd), res)
			}
			if res.Rejected() {
				return errReported
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.SheetID, "sheet-id", "", "Spreadsheet id (defaults to ledger.spreadsheet_id)")
	cmd.Flags().StringVar(&req.SheetTab, "sheet-tab", "", "Sheet tab name (defaults to ledger.tab)")
	cmd.Flags().StringVar(&req.CredentialsPath, "service-account-file", "", "Service account key file for the ledger")
	cmd.Flags().StringVar(&req.Picker, "picker", "", "Picker code credited for the album")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

func printResult(w statusWriter, res pipeline.Result) {
	switch {
	case res.Success && !res.PartialFailure:
		w.line(statusOK, "%s", res.Message)
	case res.Success:
		w.line(statusWarn, "%s", res.Message)
	default:
		w.line(statusError, "%s", res.Message)
		if cause := res.Cause(); cause != nil {
			fmt.Fprintf(w.out, "Cause: %v\n", cause)
		}
	}
	if res.CorrelationID != "" {
		fmt.Fprintf(w.out, "Correlation ID: %s\n", res.CorrelationID)
	}
}
