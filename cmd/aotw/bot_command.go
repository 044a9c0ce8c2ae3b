package main

import (
	"context"
	"errors"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"aotw/internal/bot"
	"aotw/internal/picker"
	"aotw/internal/runlock"
)

func newBotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if err := cfg.RequireTelegram(); err != nil {
				return err
			}
			if err := ctx.requireLedger(cfg); err != nil {
				return err
			}
			orch, store, err := ctx.orchestrator(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			lock := func(lockCtx context.Context) (func(), error) {
				held, err := runlock.Acquire(lockCtx, cfg.LockPath(), lockWait)
				if err != nil {
					return nil, err
				}
				return func() { _ = held.Release() }, nil
			}
			handler, err := bot.NewHandler(orch, picker.NewDirectory(cfg.Pickers.Usernames), cfg.Telegram.AllowedChatID, cfg.Telegram.Trigger, logger, bot.WithLock(lock))
			if err != nil {
				return err
			}
			runner, err := bot.NewRunner(cfg.Telegram.BotToken, handler, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(commandCtx(cmd), unix.SIGINT, unix.SIGTERM)
			defer stop()
			if err := runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
