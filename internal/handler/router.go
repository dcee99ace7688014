package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/machiba/internal/metrics"
	"github.com/hitoshi/machiba/internal/middleware"
	"github.com/hitoshi/machiba/internal/model"
)

// HealthChecker はヘルスチェックで疎通確認する依存を表す。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier          middleware.TokenVerifier
	Users             middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// 認証
	PasswordService PasswordAuthService
	OAuthService    OAuthFlowService
	TokenIssuer     TokenIssuer
	AuthMetrics     AuthMetrics
	AuthConfig      AuthHandlerConfig

	// マーケットプレイス
	ListingService  ListingServiceInterface
	BusinessService BusinessServiceInterface
	BookingService  BookingServiceInterface
	ReviewService   ReviewServiceInterface
	AdminService    AdminServiceInterface

	// 可観測性
	HTTPMetrics  middleware.HTTPMetrics
	MetricsGath  prometheus.Gatherer
	HealthTarget HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → Logging → Metrics
//
// 認証ルート（/api/auth/*）は認証ミドルウェアの外、IP別レート制限の内に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	authHandler := NewAuthHandler(
		deps.PasswordService,
		deps.OAuthService,
		deps.TokenIssuer,
		deps.Users,
		deps.AuthMetrics,
		deps.AuthConfig,
	)
	listingHandler := NewListingHandler(deps.ListingService)
	businessHandler := NewBusinessHandler(deps.BusinessService)
	bookingHandler := NewBookingHandler(deps.BookingService)
	reviewHandler := NewReviewHandler(deps.ReviewService)
	adminHandler := NewAdminHandler(deps.AdminService)

	// --- 認証不要のルート ---

	// 認証ルート。ブルートフォース対策としてIP別レート制限を適用する。
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(deps.RateLimiter.AuthMiddleware())

		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// OAuthフロー
		r.Get("/google", authHandler.OAuthStart("google"))
		r.Get("/google/callback", authHandler.GoogleCallback)
		r.Get("/apple", authHandler.OAuthStart("apple"))
		// Appleはresponse_mode=form_postのためコールバックはPOSTで届く
		r.Post("/apple/callback", authHandler.AppleCallback)
	})

	// 掲載カタログ（公開）
	r.Route("/api/services", func(r chi.Router) {
		r.Get("/", listingHandler.List)
		r.Get("/categories", listingHandler.ServiceCategories)
		r.Get("/{id}", listingHandler.Get)
	})
	r.Get("/api/search/services", listingHandler.ServiceCategories)
	r.Get("/api/search/places", listingHandler.PlaceCategories)
	r.Get("/api/amenities", listingHandler.Amenities)
	r.Get("/plans", businessHandler.Plans)

	// レビュー閲覧（公開）
	r.Get("/api/reviews/{businessID}", reviewHandler.ListForBusiness)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Verifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/api/auth/profile", authHandler.Profile)

		// 事業者オンボーディング
		r.Post("/businesses/onboard", businessHandler.Onboard)
		r.Get("/businesses/me", businessHandler.Mine)

		// 掲載管理。プランが許可するフィールドのみ保存される。
		r.Route("/businesses/me/listings", func(r chi.Router) {
			r.Post("/", listingHandler.Create)
			r.Put("/{id}", listingHandler.Update)
		})

		// 予約管理
		r.Route("/api/bookings", func(r chi.Router) {
			r.Post("/", bookingHandler.Create)
			r.Get("/my", bookingHandler.Mine)
			r.Get("/business/{id}", bookingHandler.ListForBusiness)
			r.Get("/business/{id}/alerts", bookingHandler.Alerts)
			r.Patch("/{id}/status", bookingHandler.UpdateStatus)
		})

		// レビュー投稿
		r.Post("/api/reviews", reviewHandler.Add)

		// 管理者専用。トークンのロールは信用せず、DB上のロールで再検証する。
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NewRoleMiddleware(deps.Users, model.RoleAdmin))
			r.Get("/dashboard", adminHandler.Dashboard)
			r.Get("/users", adminHandler.Users)
		})
	})

	// --- 運用エンドポイント ---

	r.Get("/health", newHealthHandler(deps.HealthTarget))
	if deps.MetricsGath != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGath))
	}

	return r
}

// newHealthHandler は依存先の疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(target HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if target != nil {
			if err := target.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
