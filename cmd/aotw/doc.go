// Package main hosts the aotw CLI entrypoint and command graph.
//
// The Cobra command tree submits albums through the pipeline, republishes and
// exports the website snapshot, runs the Telegram bot, backfills ledger
// columns, and scaffolds configuration. Client construction lives in
// commandContext so subcommands only deal with flags and output.
package main
