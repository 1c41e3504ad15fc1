package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telegram-course-store/internal/config"
	"telegram-course-store/internal/domain/ports/adapter"
	"telegram-course-store/internal/infra/content"
	pg "telegram-course-store/internal/infra/db/postgres"
	"telegram-course-store/internal/infra/logging"
	"telegram-course-store/internal/infra/metrics"
	paypkg "telegram-course-store/internal/infra/payment"
	red "telegram-course-store/internal/infra/redis"
	"telegram-course-store/internal/infra/sched"
	tgram "telegram-course-store/internal/infra/telegram"
	"telegram-course-store/internal/infra/web"
	"telegram-course-store/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	logger.Info().Str("env", cfg.Env).Bool("dev", cfg.Runtime.Dev).Msg("starting")

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	courseCache := red.NewCourseCache(redisClient, cfg.Redis.TTL)
	replayGuard := red.NewReplayGuard(redisClient)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	entitlementRepo := pg.NewEntitlementRepo(pool)
	transactionRepo := pg.NewTransactionRepo(pool)
	eventRepo := pg.NewWebhookEventRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Content catalog ----
	catalog := content.NewStore(cfg.Content.Dir)

	// ---- PayPal ----
	gateway := paypkg.NewPayPalGateway(
		cfg.PayPal.ClientID, cfg.PayPal.Secret, cfg.PayPal.Sandbox,
		cfg.PayPal.WebhookID, cfg.PayPal.ReturnURL, cfg.PayPal.CancelURL,
	)

	// ---- Courier ----
	courier, err := tgram.NewCourier(cfg.Bot.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram courier")
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, logger)
	courseUC := usecase.NewCourseUseCase(catalog, entitlementRepo, courseCache, logger)
	orderUC := usecase.NewOrderUseCase(catalog, entitlementRepo, transactionRepo, gateway, courier, logger)
	webhookUC := usecase.NewWebhookUseCase(catalog, userRepo, entitlementRepo, transactionRepo, eventRepo, gateway, courseCache, courier, tm, logger)

	// ---- Web server ----
	sessions := web.NewSessionManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	var verifier adapter.WebhookVerifier
	if cfg.PayPal.WebhookID != "" {
		verifier = gateway
	}
	srv := web.NewServer(
		orderUC, webhookUC, courseUC, userUC,
		sessions, replayGuard, verifier,
		cfg.Bot.Token, cfg.Auth.InitDataTTL, cfg.IsProduction(), logger,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Admin/metrics listener ----
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())
	adminServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.AdminPort), Handler: adminMux}
	go func() {
		logger.Info().Str("addr", adminServer.Addr).Msg("metrics listening")
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Stale order reconciler ----
	reconciler := sched.NewOrderReconciler(transactionRepo, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	_ = adminServer.Shutdown(shutdownCtx)
}
