package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/proofr/notifier/internal/handlers"
	"github.com/proofr/notifier/internal/notification"
	"github.com/proofr/notifier/pkg/config"
	"github.com/proofr/notifier/pkg/httpserver"
	"github.com/proofr/notifier/pkg/logger"
	"github.com/proofr/notifier/pkg/mailer"
	"github.com/proofr/notifier/pkg/pg"
	"github.com/proofr/notifier/pkg/redis"
	"github.com/proofr/notifier/pkg/templates"
)

type appConfig struct {
	AppEnv     string `env:"APP_ENV" envDefault:"production"`
	CronSecret string `env:"CRON_SECRET,required"`

	// TemplateDir optionally overlays file-based templates on the builtins.
	TemplateDir string `env:"TEMPLATE_DIR"`

	// DevMailDir redirects outbound email to disk instead of the provider.
	DevMailDir string `env:"DEV_MAIL_DIR"`

	// RedisEnabled turns on best-effort tick deduplication.
	RedisEnabled bool `env:"REDIS_ENABLED" envDefault:"false"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("notifier exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	var (
		appCfg   appConfig
		logCfg   logger.Config
		pgCfg    pg.Config
		httpCfg  httpserver.Config
		mailCfg  mailer.Config
		tplCfg   templates.PlatformDefaults
		redisCfg redis.Config
	)
	if err := errors.Join(
		config.Load(&appCfg),
		config.Load(&logCfg),
		config.Load(&pgCfg),
		config.Load(&httpCfg),
		config.Load(&mailCfg),
		config.Load(&tplCfg),
		config.Load(&redisCfg),
	); err != nil {
		return err
	}

	log := logger.NewFromConfig(logCfg, logger.WithService("notifier"))
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	registryOpts := []templates.RegistryOption{
		templates.WithPlatformDefaults(tplCfg),
		templates.WithLogger(log),
	}
	if appCfg.TemplateDir != "" {
		registryOpts = append(registryOpts, templates.WithSource(templates.NewFileSource(appCfg.TemplateDir)))
	}
	registry := templates.NewRegistry(registryOpts...)

	var sender mailer.Sender
	if appCfg.DevMailDir != "" {
		sender = mailer.NewDevSender(appCfg.DevMailDir)
		log.Info("outbound email redirected to disk", slog.String("dir", appCfg.DevMailDir))
	} else {
		sender, err = mailer.NewPostmarkSender(mailCfg)
		if err != nil {
			return err
		}
	}

	storage, err := notification.NewPostgresStorage(pool)
	if err != nil {
		return err
	}

	svc, err := notification.NewService(storage, log)
	if err != nil {
		return err
	}

	processor, err := notification.NewProcessor(storage, registry, sender,
		notification.WithProcessorLogger(log))
	if err != nil {
		return err
	}

	reconciler, err := notification.NewReconciler(storage,
		notification.WithReconcilerLogger(log))
	if err != nil {
		return err
	}

	healthchecks := []func(context.Context) error{pg.Healthcheck(pool)}

	triggerOpts := []handlers.TriggerOption{}
	if appCfg.RedisEnabled {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()

		// The TTL covers a full processing tick with headroom; an expired
		// lock is harmless because the storage claim stays authoritative.
		triggerOpts = append(triggerOpts,
			handlers.WithTickLock(redis.NewTickLock(client, "notifier:tick", 55*time.Second)))
		healthchecks = append(healthchecks, redis.Healthcheck(client))
	}

	deps := handlers.RouterDeps{
		Notifications: handlers.NewNotificationsHandler(svc, log),
		Webhook:       handlers.NewWebhookHandler(reconciler, log),
		Trigger:       handlers.NewTriggerHandler(processor, appCfg.CronSecret, log, triggerOpts...),
		Healthchecks:  healthchecks,
		Log:           log,
	}
	if appCfg.AppEnv != "production" {
		deps.DevEmail = handlers.NewDevEmailHandler(registry, sender, log)
	}

	server := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	log.Info("notifier starting",
		slog.String("addr", httpCfg.Addr),
		slog.String("env", appCfg.AppEnv))

	return server.Run(ctx, handlers.NewRouter(deps))
}
