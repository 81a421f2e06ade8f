package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/oit-infosec/awareness-compliance/internal"
	"github.com/oit-infosec/awareness-compliance/internal/awareness"
	"github.com/oit-infosec/awareness-compliance/internal/directory"
	"github.com/oit-infosec/awareness-compliance/internal/mailer"
	"github.com/oit-infosec/awareness-compliance/internal/pastdue"
	"github.com/oit-infosec/awareness-compliance/pkg/logger"
	"github.com/spf13/cobra"
)

var syncGroupCmd = &cobra.Command{
	Use:   "sync-group",
	Short: "Reconcile the past-due AD group with current past-due users",
	Long: `Fetches the year's training enrollments, determines which active users
are past due, and updates the configured Active Directory group so it
contains exactly those users (minus configured exceptions).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSyncGroup(cmd.Context())
	},
}

// Dependencies holds everything a command run wires together.
type Dependencies struct {
	Config    *internal.Config
	Awareness *awareness.Service
	Directory *directory.Service
	Conn      directory.Conn
	Mailer    *mailer.Mailer
	Logger    *slog.Logger
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.LoggerWrapper()

	client := awareness.NewClient(cfg.Platform, tokenProvider(cfg.Platform), log)

	return &Dependencies{
		Config:    cfg,
		Awareness: awareness.NewService(client, log),
		Mailer:    mailer.New(cfg.SMTP, log),
		Logger:    log,
	}, nil
}

// connectDirectory binds to AD; only sync-group needs it, so the report
// commands never touch the directory.
func (d *Dependencies) connectDirectory() error {
	conn, err := directory.Connect(d.Config.Directory)
	if err != nil {
		return err
	}
	d.Conn = conn
	d.Directory = directory.NewService(conn, d.Config.Directory, d.Logger)
	return nil
}

func tokenProvider(cfg internal.PlatformConfig) awareness.TokenProvider {
	if cfg.APIToken != "" {
		return awareness.StaticToken(cfg.APIToken)
	}
	return awareness.TokenFile(cfg.APITokenFile)
}

func runSyncGroup(ctx context.Context) error {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		return err
	}
	if err := deps.connectDirectory(); err != nil {
		deps.Logger.Error("directory connection failed", "error", err)
		return err
	}
	defer deps.Conn.Close()

	service := pastdue.NewService(
		deps.Awareness,
		deps.Directory,
		deps.Mailer,
		deps.Config.Campaigns,
		deps.Config.Directory,
		deps.Config.SMTP,
		deps.Logger,
	)

	summary, err := service.Run(ctx)
	if err != nil {
		deps.Logger.Error("group sync failed", "error", err)
		return err
	}

	deps.Logger.Info("group sync finished",
		"run_id", summary.RunID,
		"current_members", summary.CurrentMembers,
		"past_due_users", summary.PastDueUsers,
		"additions", summary.Additions,
		"removals", summary.Removals,
		"changed", summary.Changed())
	return nil
}
