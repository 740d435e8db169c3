package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ai-consulting-be/internal/config"
	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/internal/repository/unitofwork"
	"ai-consulting-be/pkg/database"
	"ai-consulting-be/pkg/events"
	"ai-consulting-be/pkg/intelligence/intent"
	"ai-consulting-be/pkg/intelligence/retention"
	"ai-consulting-be/pkg/intelligence/stage"
	"ai-consulting-be/pkg/intelligence/suggest"
	"ai-consulting-be/pkg/locker"
	pktNats "ai-consulting-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "contextctl",
		Short:         "Operate the conversational context service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newDetectCmd(),
		newSuggestCmd(),
		newStageCmd(),
		newGetCmd(),
		newSweepCmd(),
		newWatchCmd(),
	)
	return root
}

// cliLogger logs to stderr so it never mixes with the JSON on stdout.
func cliLogger() logger.ILogger {
	l, err := zap.NewDevelopment(zap.IncreaseLevel(zap.InfoLevel))
	if err != nil {
		return logger.NewNopLogger()
	}
	return logger.NewZapLoggerFrom(l)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <message>",
		Short: "Classify a message offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, intent.NewDetector().Detect(args[0]))
		},
	}
}

func newSuggestCmd() *cobra.Command {
	var (
		role         string
		confidence   float64
		capabilities []string
		catalogPath  string
		max          int
	)
	cmd := &cobra.Command{
		Use:   "suggest <message>",
		Short: "Rank catalog tools for a message and an optional role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := suggest.LoadCatalogFile(catalogPath)
			if err != nil {
				return err
			}
			engine := suggest.NewEngine(catalog, suggest.Config{MaxSuggestions: max})

			snapshot := &entity.ContextSnapshot{Role: role, Capabilities: capabilities}
			if role != "" {
				snapshot.RoleConfidence = &confidence
			}
			detected := intent.NewDetector().Detect(args[0])
			return printJSON(cmd, map[string]interface{}{
				"intent":      detected,
				"suggestions": engine.Suggest(snapshot, detected),
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "visitor role, e.g. CTO")
	cmd.Flags().Float64Var(&confidence, "role-confidence", 1, "confidence in --role")
	cmd.Flags().StringSliceVar(&capabilities, "shown", nil, "capabilities already shown")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog YAML (defaults to the embedded one)")
	cmd.Flags().IntVar(&max, "max", suggest.DefaultMaxSuggestions, "maximum suggestions")
	return cmd
}

func newStageCmd() *cobra.Command {
	var hasIntent, hasContext bool
	cmd := &cobra.Command{
		Use:   "stage <current>",
		Short: "Evaluate one stage transition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := stage.Parse(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stage.Next(current, hasIntent, hasContext))
			return nil
		},
	}
	cmd.Flags().BoolVar(&hasIntent, "intent", false, "a strong intent is known")
	cmd.Flags().BoolVar(&hasContext, "context", false, "lead, company, person or intent is known")
	return cmd
}

func openFactory() (unitofwork.RepositoryFactory, func(), error) {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		return nil, nil, fmt.Errorf("DB_CONNECTION_STRING is not set")
	}
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, database.DefaultPoolConfig())
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	return unitofwork.NewRepositoryFactory(db), func() { sqlDB.Close() }, nil
}

// openLocker shares the server's Redis session locks when REDIS_URL is set, so
// a sweep never deletes a session mid-update. Without Redis only this process
// is serialized.
func openLocker(cfg *config.Config, log logger.ILogger) (locker.Locker, func(), error) {
	if cfg.App.RedisURL == "" {
		return locker.NewKeyedMutex(cfg.Intelligence.LockTTL), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	return locker.NewRedisLocker(rdb, cfg.Intelligence.LockTTL, cfg.Intelligence.LockTTL, log), func() { rdb.Close() }, nil
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <sessionId>",
		Short: "Print the stored context snapshot of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, closeDB, err := openFactory()
			if err != nil {
				return err
			}
			defer closeDB()

			snapshot, err := factory.NewUnitOfWork(cmd.Context()).ConversationContextRepository().FindBySessionId(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if snapshot == nil {
				return fmt.Errorf("no context for session %s", args[0])
			}
			return printJSON(cmd, snapshot)
		},
	}
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one retention sweep with the configured TTLs",
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, closeDB, err := openFactory()
			if err != nil {
				return err
			}
			defer closeDB()

			cfg := config.FromEnv()
			log := cliLogger()
			sessionLocker, closeLocker, err := openLocker(cfg, log)
			if err != nil {
				return err
			}
			defer closeLocker()

			sweeper := retention.NewSweeper(factory, sessionLocker, cfg.Intelligence.ContextTTL, cfg.Intelligence.CapabilityLogRetention, log)
			res, err := sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newWatchCmd() *cobra.Command {
	var durable string
	cmd := &cobra.Command{
		Use:   "watch [event-type]",
		Short: "Tail context events from NATS",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.App.NatsURL == "" {
				return fmt.Errorf("NATS_URL is not set")
			}

			subject := pktNats.SubjectPrefix + ">"
			if len(args) == 1 {
				subject = pktNats.Subject(args[0])
			}

			sub, err := pktNats.NewSubscriber(cfg.App.NatsURL, cliLogger())
			if err != nil {
				return err
			}
			defer sub.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			typeColor := color.New(color.FgCyan, color.Bold)
			return sub.Subscribe(ctx, subject, durable, func(_ context.Context, evt events.Event) error {
				payload, _ := json.Marshal(evt.Payload())
				typeColor.Fprintf(cmd.OutOrStdout(), "%-18s", evt.EventType())
				fmt.Fprintf(cmd.OutOrStdout(), " %s %s %s\n", evt.Timestamp().Format("15:04:05"), evt.Key(), payload)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&durable, "durable", "", "durable consumer name (ephemeral when empty)")
	return cmd
}
