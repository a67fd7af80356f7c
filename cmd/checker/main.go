package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/prommonitor/internal/config"
	"github.com/hamed0406/prommonitor/internal/logging"
	"github.com/hamed0406/prommonitor/internal/maintenance"
	"github.com/hamed0406/prommonitor/internal/metrics"
	"github.com/hamed0406/prommonitor/internal/notify"
	"github.com/hamed0406/prommonitor/internal/repo/registry"
	"github.com/hamed0406/prommonitor/internal/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run a single evaluation pass and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New("checker", cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := cfg.ValidateEvaluator(); err != nil {
		logger.Fatal("config_invalid", zap.Error(err))
	}
	loc, _ := cfg.Location() // checked by ValidateEvaluator

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clusters, closeRegistry, err := registry.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("registry_open_failed", zap.String("backend", cfg.RegistryBackend), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = closeRegistry(closeCtx)
	}()

	notifier, err := newNotifier(cfg)
	if err != nil {
		logger.Fatal("notifier_init_failed", zap.String("notifier", cfg.Notifier), zap.Error(err))
	}

	oracle := maintenance.NewCronOracle(loc)
	window := maintenance.NewWindow(cfg.MaintenanceClusters, cfg.ScaleDownCron, cfg.ScaleUpCron, oracle)
	if window != nil {
		for name, expr := range map[string]string{"SCALE_DOWN_CRON": cfg.ScaleDownCron, "SCALE_UP_CRON": cfg.ScaleUpCron} {
			if !oracle.IsValid(expr) {
				logger.Warn("maintenance_cron_invalid", zap.String("var", name), zap.String("expr", expr))
			}
		}
	}

	ev := scheduler.NewEvaluator(logger, clusters, notifier, metrics.New(), scheduler.EvaluatorConfig{
		MaxAllowedSeconds: cfg.MaxAllowedSeconds,
		Window:            window,
	})
	runner := scheduler.NewRunner(logger, ev, cfg.CheckSchedule, loc)

	if *once {
		if err := runner.RunOnce(ctx); err != nil {
			logger.Error("evaluate_pass_failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}
	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("runner_failed", zap.Error(err))
		os.Exit(1)
	}
}

func newNotifier(cfg config.Config) (notify.Notifier, error) {
	framing := notify.Framing{Environment: cfg.EnvironmentName, MaxAllowed: cfg.MaxAllowed()}
	switch cfg.Notifier {
	case config.NotifierSlack:
		if cfg.SlackWebhook != "" {
			return notify.NewSlack(cfg.SlackWebhook, framing), nil
		}
		return notify.NewSlackBot(cfg.NotificationToken, cfg.NotificationChannel, framing), nil
	case config.NotifierTelegram:
		chatID, err := strconv.ParseInt(cfg.NotificationChannel, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("telegram chat id: %w", err)
		}
		return notify.NewTelegram(cfg.NotificationToken, chatID, framing)
	}
	return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
}
