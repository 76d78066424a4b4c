package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/agents"
	"github.com/Wikid82/warden/backend/internal/api/routes"
	"github.com/Wikid82/warden/backend/internal/config"
	"github.com/Wikid82/warden/backend/internal/database"
	"github.com/Wikid82/warden/backend/internal/llm"
	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/Wikid82/warden/backend/internal/metrics"
	"github.com/Wikid82/warden/backend/internal/orchestrator"
	"github.com/Wikid82/warden/backend/internal/scheduler"
	"github.com/Wikid82/warden/backend/internal/server"
	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/Wikid82/warden/backend/internal/version"
)

var configPath string

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "warden",
	Short:        "Vendor risk management API",
	Version:      version.Full(),
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the maintenance scheduler",
	RunE:  runServe,
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Run one maintenance sweep and exit",
	Long: `Run the maintenance sweep once: escalate overdue remediation actions,
flag documents expiring within 30 days and count upcoming assessments.`,
	RunE: runMaintenance,
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <email> <new-password>",
	Short: "Set a user's password",
	Args:  cobra.ExactArgs(2),
	RunE:  runResetPassword,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (env WARDEN_CONFIG)")
	rootCmd.AddCommand(serveCmd, maintenanceCmd, resetPasswordCmd)
}

// app holds everything built from config that the commands share.
type app struct {
	cfg           config.Config
	db            *gorm.DB
	notifications *services.NotificationService
	agents        *agents.Set
	orchestrator  *orchestrator.Orchestrator
}

func bootstrap() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := setupLogging(cfg.Log); err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	client, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	notifications := services.NewNotificationService(db)
	deps := agents.Deps{LLM: client, DB: db, Notifier: notifications}
	if cfg.Mail.SMTPURL != "" {
		deps.Mailer = services.NewMailService(cfg.Mail.SMTPURL)
	}
	set := agents.NewSet(deps)

	return &app{
		cfg:           cfg,
		db:            db,
		notifications: notifications,
		agents:        set,
		orchestrator:  orchestrator.New(db, cfg.Policy, orchestrator.FromSet(set)),
	}, nil
}

// setupLogging sends logs to stdout and a rotated file under the log dir.
func setupLogging(cfg config.LogConfig) error {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Dir, "warden.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logger.Init(cfg.Debug, io.MultiWriter(os.Stdout, rotator))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	log := logger.Log()
	log.WithField("version", version.Full()).Infof("starting %s backend", version.Name)
	if a.cfg.LLM.ResolvedProvider() == "" {
		log.Warn("no LLM credentials configured; agent calls will fail")
	}
	if !a.cfg.AuthEnabled() {
		log.Warn("auth.jwt_secret is empty; API routes are unauthenticated")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	srv, err := server.New(routes.Deps{
		DB:            a.db,
		Config:        a.cfg,
		Agents:        a.agents,
		Orchestrator:  a.orchestrator,
		Notifications: a.notifications,
		Registry:      registry,
	})
	if err != nil {
		return err
	}

	sched, err := scheduler.New(a.cfg.Maintenance.Schedule, func(ctx context.Context) {
		a.orchestrator.RunMaintenance(ctx)
	})
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func runMaintenance(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	res := a.orchestrator.RunMaintenance(cmd.Context())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "overdue escalations:  %d\n", res.OverdueEscalations)
	fmt.Fprintf(out, "expiring documents:   %d\n", res.ExpiringDocuments)
	fmt.Fprintf(out, "upcoming assessments: %d\n", res.UpcomingAssessments)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "error: %s\n", e)
	}
	if len(res.Errors) > 0 {
		return fmt.Errorf("maintenance finished with %d errors", len(res.Errors))
	}
	return nil
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	authService := services.NewAuthService(a.db, a.cfg.Auth)
	if err := authService.ResetPassword(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Password updated successfully for user %s\n", args[0])
	return nil
}
