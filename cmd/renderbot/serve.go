package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shihab98bc/Render-Bot/bot"
	"github.com/shihab98bc/Render-Bot/dispense"
	"github.com/shihab98bc/Render-Bot/internal/fsstore"
	"github.com/shihab98bc/Render-Bot/internal/logutil"
	"github.com/shihab98bc/Render-Bot/internal/telegram"
	"github.com/shihab98bc/Render-Bot/report"
	"github.com/shihab98bc/Render-Bot/store"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot: long polling plus the daily report scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			token := strings.TrimSpace(flagOrViperString(cmd, "bot-token", "bot.token"))
			if token == "" {
				return fmt.Errorf("missing bot.token (set via --bot-token or RENDER_BOT_BOT_TOKEN)")
			}

			var admins []int64
			for _, s := range flagOrViperStringArray(cmd, "admin-id", "bot.admin_ids") {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				id, err := strconv.ParseInt(s, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid bot.admin_ids entry %q: %w", s, err)
				}
				admins = append(admins, id)
			}
			if len(admins) == 0 {
				return fmt.Errorf("missing bot.admin_ids (set via --admin-id or RENDER_BOT_BOT_ADMIN_IDS)")
			}

			support := strings.TrimSpace(flagOrViperString(cmd, "support-username", "bot.support_username"))
			if support == "" {
				support = "@shihab98bc"
			}

			dataDir := strings.TrimSpace(flagOrViperString(cmd, "data-dir", "data.dir"))
			if dataDir == "" {
				dataDir = "data"
			}
			sessionsDir := filepath.Join(dataDir, "sessions")
			uploadsDir := filepath.Join(dataDir, "uploads")
			userFilesDir := filepath.Join(uploadsDir, "user_files")
			reportsDir := filepath.Join(dataDir, "reports")
			for _, dir := range []string{dataDir, sessionsDir, uploadsDir, userFilesDir, reportsDir} {
				if err := fsstore.EnsureDir(dir, 0); err != nil {
					return fmt.Errorf("preparing %s: %w", dir, err)
				}
			}

			cooldown := flagOrViperDuration(cmd, "dispense-cooldown", "dispense.cooldown")
			if cooldown <= 0 {
				cooldown = dispense.DefaultCooldown
			}

			st, err := store.Open(filepath.Join(dataDir, "data.json"), logger)
			if err != nil {
				return err
			}

			client, err := telegram.New(token, logger)
			if err != nil {
				return err
			}

			runner := report.NewRunner(st, userFilesDir, reportsDir, client, admins, logger)
			schedule := st.Snapshot().Schedule
			sched := report.NewScheduler(schedule.JobID, func() {
				runner.Run(context.Background())
			}, logger)
			if err := sched.Reschedule(schedule.Time, schedule.Timezone); err != nil {
				logger.Error("restoring report schedule failed", "error", err)
			}
			sched.Start()
			defer sched.Stop()

			router := bot.NewRouter(bot.Config{
				Store:           st,
				Sessions:        bot.NewSessionStore(sessionsDir, logger),
				Distributor:     dispense.New(st, uploadsDir, logger, dispense.WithCooldown(cooldown)),
				Messenger:       client,
				Scheduler:       sched,
				Logger:          logger,
				AdminIDs:        admins,
				SupportUsername: support,
				UploadsDir:      uploadsDir,
				UserFilesDir:    userFilesDir,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("bot ready", "bot", client.Username(), "admins", len(admins), "data_dir", dataDir)
			if err := client.Poll(ctx, router.Handle); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("shutting down")
			return nil
		},
	}

	cmd.Flags().String("bot-token", "", "Telegram bot token.")
	cmd.Flags().StringArray("admin-id", nil, "Admin user ID (repeatable).")
	cmd.Flags().String("support-username", "", "Support contact shown to users.")
	cmd.Flags().String("data-dir", "", "Directory for state, sessions and uploads (default ./data).")
	cmd.Flags().Duration("dispense-cooldown", 0, "Global cooldown between number dispenses (default 10s).")

	return cmd
}
