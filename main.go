package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"seatlicense/config"
	"seatlicense/database"
	_ "seatlicense/docs" // Swagger 문서
	"seatlicense/handlers"
	"seatlicense/logger"
	"seatlicense/metrics"
	"seatlicense/middleware"
	"seatlicense/notifier"
	"seatlicense/scheduler"
	"seatlicense/services"
)

const version = "1.0.0"

// @title Seat License Server API
// @version 1.0
// @description 결제 웹훅 기반 라이선스 발급 및 디바이스 좌석 관리 서버

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "seatlicense",
		Usage:   "License issuance and device seat server",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"SEATLICENSE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			keygenCommand(),
			licenseCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the license HTTP server",
		Action: runServe,
	}
}

// initLogger 설정 기반 로거 초기화
func initLogger(cfg *config.Config) error {
	return logger.Initialize(logger.Config{
		Level:    logger.ParseLevel(cfg.Log.Level),
		LogDir:   cfg.Log.Dir,
		MaxSize:  cfg.Log.MaxSizeMB,
		MaxAge:   cfg.Log.MaxAgeDays,
		UseColor: cfg.Log.Color,
	})
}

func newSender(cfg *config.Config) (notifier.Sender, error) {
	if cfg.Notify.Mode != "smtp" {
		return notifier.LogNotifier{}, nil
	}
	return notifier.NewSMTPNotifier(notifier.SMTPConfig{
		Host:     cfg.Notify.SMTPHost,
		Port:     cfg.Notify.SMTPPort,
		Username: cfg.Notify.SMTPUsername,
		Password: cfg.Notify.SMTPPassword,
		From:     cfg.Notify.SMTPFrom,
	})
}

func runServe(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := initLogger(cfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if l := logger.Default(); l != nil {
		defer l.Close()
	}

	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Info("Seat License Server %s starting", version)
	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	privateKey, publicKey, err := cfg.Token.Keys()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseOptions())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	m := metrics.New()

	sender, err := newSender(cfg)
	if err != nil {
		return err
	}
	dispatcher := notifier.NewDispatcher(sender, notifier.Config{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		MaxAttempts: cfg.Notify.MaxAttempts,
		RetryDelay:  cfg.Notify.RetryDelay,
		Product:     cfg.License.ProductCode,
	}, m)
	dispatcher.Start()

	tokens, err := services.NewTokenService(privateKey, cfg.Token.TTL(), services.NewRevocationChecker(db),
		services.WithPublicKey(publicKey))
	if err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.Deps{
		DB: db,
		Issuer: services.NewLicenseIssuer(db, services.IssuerConfig{
			KeyPrefix:    cfg.License.KeyPrefix,
			DefaultSeats: cfg.License.DefaultSeats,
		}, dispatcher),
		Activation: services.NewActivationService(db, tokens, services.ActivationConfig{
			EnforceEmail:       cfg.License.EnforceEmail,
			StrictDeactivation: cfg.License.StrictDeactivation,
		}),
		Tokens:          tokens,
		Signature:       services.NewSignatureVerifier(cfg.Webhook.Secret),
		Metrics:         m,
		Limiter:         middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		SignatureHeader: cfg.Webhook.SignatureHeader,
		Product:         cfg.License.ProductCode,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,

		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scheduler.New(services.NewLicenseAdmin(db), m, cfg.Server.StatsInterval).Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("Server listening on %s", cfg.Server.Addr)
		logger.Info("Swagger UI: http://localhost%s/swagger/index.html", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Warn("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown: %v", err)
		}
		// 커밋된 발급 건의 안내는 종료 전에 최대한 발송한다
		if err := dispatcher.Stop(shutdownCtx); err != nil {
			logger.Error("Notification dispatcher shutdown: %v", err)
		}
		return nil
	})

	return g.Wait()
}
