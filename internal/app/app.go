package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/machiba/internal/admin"
	"github.com/hitoshi/machiba/internal/auth"
	"github.com/hitoshi/machiba/internal/booking"
	"github.com/hitoshi/machiba/internal/business"
	"github.com/hitoshi/machiba/internal/config"
	"github.com/hitoshi/machiba/internal/database"
	"github.com/hitoshi/machiba/internal/handler"
	"github.com/hitoshi/machiba/internal/listing"
	"github.com/hitoshi/machiba/internal/logger"
	"github.com/hitoshi/machiba/internal/metrics"
	"github.com/hitoshi/machiba/internal/middleware"
	"github.com/hitoshi/machiba/internal/repository"
	"github.com/hitoshi/machiba/internal/review"
	"github.com/hitoshi/machiba/internal/security"
	"github.com/hitoshi/machiba/internal/token"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	businessRepo := repository.NewPostgresBusinessRepo(db)
	planRepo := repository.NewPostgresPlanRepo(db)
	listingRepo := repository.NewPostgresListingRepo(db)
	bookingRepo := repository.NewPostgresBookingRepo(db)
	reviewRepo := repository.NewPostgresReviewRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. トークンコーデックの初期化
	codec := token.NewCodec(cfg.JWTSecret, cfg.TokenTTL)

	// 5. OAuthプロバイダーの初期化
	providers := []auth.OAuthProvider{
		auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/api/auth/google/callback",
		}),
	}
	if cfg.AppleEnabled() {
		appleProvider, err := auth.NewAppleProvider(auth.AppleConfig{
			ClientID:      cfg.AppleClientID,
			TeamID:        cfg.AppleTeamID,
			KeyID:         cfg.AppleKeyID,
			PrivateKeyPEM: cfg.ApplePrivateKey,
			RedirectURL:   cfg.BaseURL + "/api/auth/apple/callback",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize apple provider: %w", err)
		}
		providers = append(providers, appleProvider)
	} else {
		slog.Info("apple sign in disabled: credentials not configured")
	}

	// 6. ドメインサービスの初期化
	passwordService := auth.NewPasswordService(userRepo)
	oauthService := auth.NewOAuthService(userRepo, collector, providers...)
	oauthService.ExchangeTimeout = cfg.OAuthExchangeTimeout

	sanitizer := security.NewReviewSanitizer()

	listingService := listing.NewListingService(listingRepo, businessRepo)
	businessService := business.NewBusinessService(businessRepo, planRepo)
	bookingService := booking.NewBookingService(bookingRepo, listingRepo, businessRepo, collector)
	reviewService := review.NewReviewService(reviewRepo, sanitizer)
	adminService := admin.NewAdminService(userRepo, businessRepo, listingRepo)

	// 7. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのレートはreq/min単位なのでreq/secに変換する
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitAuth > 0 {
		rateLimiterCfg.AuthRate = rate.Limit(float64(cfg.RateLimitAuth) / 60.0)
		rateLimiterCfg.AuthBurst = cfg.RateLimitAuth
	}

	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Verifier:          codec,
		Users:             userRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		PasswordService: passwordService,
		OAuthService:    oauthService,
		TokenIssuer:     codec,
		AuthMetrics:     collector,
		AuthConfig: handler.AuthHandlerConfig{
			FrontendURL:  cfg.FrontendURL,
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
			TokenMaxAge:  int(cfg.TokenTTL.Seconds()),
		},

		ListingService:  listingService,
		BusinessService: businessService,
		BookingService:  bookingService,
		ReviewService:   reviewService,
		AdminService:    adminService,

		HTTPMetrics:  collector,
		MetricsGath:  registry,
		HealthTarget: db,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
