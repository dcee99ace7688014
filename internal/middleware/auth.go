// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/machiba/internal/model"
	"github.com/hitoshi/machiba/internal/token"
)

const (
	// tokenCookieName は認証トークンを保持するCookieの名前。
	tokenCookieName = "token"

	// fallbackTokenHeader はSafariなどサードパーティCookieが
	// 使えないクライアント向けの代替ヘッダー名。
	fallbackTokenHeader = "X-Access-Token"
)

// contextKey はコンテキストキーの衝突を防ぐための型。
type contextKey string

const identityContextKey contextKey = "identity"

// ErrNoIdentityInContext はコンテキストに認証情報が存在しない場合のエラー。
var ErrNoIdentityInContext = errors.New("no identity in context")

// TokenVerifier はトークン文字列を検証済みクレームに解決する。
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// UserFinder は認証後のロール再取得に使う最小インターフェース。
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// IdentityFromContext はコンテキストから検証済みクレームを取得する。
func IdentityFromContext(ctx context.Context) (*token.Claims, error) {
	claims, ok := ctx.Value(identityContextKey).(*token.Claims)
	if !ok || claims == nil {
		return nil, ErrNoIdentityInContext
	}
	return claims, nil
}

// ContextWithIdentity は検証済みクレームをコンテキストに格納する。テスト用。
func ContextWithIdentity(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, identityContextKey, claims)
}

// extractToken はリクエストからトークンを取り出す。
// 優先順位: Cookie → Authorization: Bearer → X-Access-Tokenヘッダー。
// 最初に見つかったものを採用し、後続は検証失敗でも参照しない。
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(tokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if authz := r.Header.Get("Authorization"); authz != "" {
		if rest, ok := strings.CutPrefix(authz, "Bearer "); ok && rest != "" {
			return rest
		}
	}
	return r.Header.Get(fallbackTokenHeader)
}

// NewAuthMiddleware はトークン認証ミドルウェアを生成する。
// トークン未提供と不正トークンは別のエラーコードで401を返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				slog.Warn("token verification failed",
					slog.String("path", r.URL.Path),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			ctx := ContextWithIdentity(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewRoleMiddleware は指定ロールのユーザーのみ通過させるミドルウェアを生成する。
// トークンに埋め込まれたロールは発行時点の値のため信用せず、
// emailで現在のユーザーを引き直して判定する。
func NewRoleMiddleware(users UserFinder, required model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := IdentityFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
				return
			}

			user, err := users.FindByEmail(r.Context(), claims.Email)
			if err != nil {
				slog.Error("failed to find user for role check", "error", err)
				WriteInternalServerError(w)
				return
			}
			if user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUserNotFoundError())
				return
			}
			if user.Role != required {
				slog.Warn("role check failed",
					slog.String("path", r.URL.Path),
					slog.String("role", string(user.Role)),
					slog.String("required", string(required)),
				)
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
