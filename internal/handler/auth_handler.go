package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/machiba/internal/auth"
	"github.com/hitoshi/machiba/internal/middleware"
	"github.com/hitoshi/machiba/internal/model"
)

const tokenCookieName = "token"

// PasswordAuthService は認証ハンドラーが必要とするパスワード認証インターフェース。
type PasswordAuthService interface {
	Signup(ctx context.Context, email, password, fullName string, role model.Role) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
}

// OAuthFlowService は認証ハンドラーが必要とするOAuthフローインターフェース。
type OAuthFlowService interface {
	AuthURL(provider string, state auth.FlowState) (string, error)
	HandleCallback(ctx context.Context, provider, code string, state auth.FlowState) (*model.User, error)
}

// TokenIssuer はセッショントークンの発行インターフェース。
type TokenIssuer interface {
	Issue(u *model.User) (string, error)
}

// AuthMetrics は認証ハンドラーの計測点。
type AuthMetrics interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordSignup(role string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	FrontendURL  string
	CookieDomain string
	CookieSecure bool
	TokenMaxAge  int // トークンCookieの有効期間（秒）。トークン自体のTTLと揃える。
}

// AuthHandler は認証関連のHTTPハンドラー。
// OAuthコールバック後のセッション受け渡しはプラットフォームで分岐する:
// webはCookie + リダイレクト、mobileはディープリンク、それ以外はJSONで返す。
type AuthHandler struct {
	password PasswordAuthService
	oauth    OAuthFlowService
	issuer   TokenIssuer
	users    middleware.UserFinder
	metrics  AuthMetrics
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnil可。
func NewAuthHandler(
	password PasswordAuthService,
	oauth OAuthFlowService,
	issuer TokenIssuer,
	users middleware.UserFinder,
	metrics AuthMetrics,
	config AuthHandlerConfig,
) *AuthHandler {
	return &AuthHandler{
		password: password,
		oauth:    oauth,
		issuer:   issuer,
		users:    users,
		metrics:  metrics,
		config:   config,
	}
}

// signupRequest はサインアップリクエストのボディ。
type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse は認証成功時のAPIレスポンス。
type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Signup はローカルアカウントのサインアップを処理する。
// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, err := h.password.Signup(r.Context(), req.Email, req.Password, req.FullName, model.ParseRole(req.Role))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		slog.Error("failed to issue token", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSignup(string(user.Role))
	}
	h.setTokenCookie(w, token)
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: toUserResponse(user)})
}

// Login はローカルアカウントのログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, err := h.password.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// 失敗カウントは資格情報の不一致のみ。入力不備やDB障害は数えない。
		var apiErr *model.APIError
		if h.metrics != nil && errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidCredentials {
			h.metrics.RecordLoginFailure()
		}
		handleServiceError(w, err)
		return
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		slog.Error("failed to issue token", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLoginSuccess()
	}
	h.setTokenCookie(w, token)
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: toUserResponse(user)})
}

// Logout はトークンCookieを破棄する。
// サーバー側にセッション状態はないため、Cookieのクリアのみを行う。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearTokenCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "ログアウトしました。"})
}

// Profile は現在のログインユーザー情報を返す。
// トークンのクレームは発行時点のスナップショットのため、
// emailで現在のレコードを引き直して返す。
// GET /api/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	user, err := h.users.FindByEmail(r.Context(), claims.Email)
	if err != nil {
		slog.Error("failed to find user for profile", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if user == nil {
		// トークンは有効だがアカウントが消えている
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUserNotFoundError())
		return
	}

	writeJSON(w, http.StatusOK, map[string]userResponse{"user": toUserResponse(user)})
}

// OAuthStart は指定プロバイダのOAuthフローを開始する。
// GET /api/auth/{google|apple}?role=&intent=&platform=&redirect_uri=
func (h *AuthHandler) OAuthStart(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		state := auth.FlowState{
			Role:              model.ParseRole(q.Get("role")),
			Intent:            model.ParseIntent(q.Get("intent")),
			Platform:          model.ParsePlatform(q.Get("platform")),
			MobileRedirectURI: q.Get("redirect_uri"),
		}

		authURL, err := h.oauth.AuthURL(provider, state)
		if err != nil {
			slog.Error("failed to build auth url", slog.String("provider", provider), slog.String("error", err.Error()))
			middleware.WriteInternalServerError(w)
			return
		}
		http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
	}
}

// GoogleCallback はGoogleのOAuthコールバックを処理する。
// GET /api/auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.completeOAuth(w, r, "google", q.Get("code"), q.Get("state"))
}

// AppleCallback はAppleのOAuthコールバックを処理する。
// Appleはresponse_mode=form_postのため、POSTフォームで届く。
// POST /api/auth/apple/callback
func (h *AuthHandler) AppleCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("failed to parse callback form"))
		return
	}
	h.completeOAuth(w, r, "apple", r.PostForm.Get("code"), r.PostForm.Get("state"))
}

// completeOAuth はコード交換からセッション受け渡しまでを実行する。
func (h *AuthHandler) completeOAuth(w http.ResponseWriter, r *http.Request, provider, code, rawState string) {
	state, ok := auth.ParseFlowState(rawState)
	if !ok {
		// stateの破損はフローを止めず、デフォルト値で続行する
		slog.Warn("failed to parse oauth state, using defaults", slog.String("provider", provider))
	}

	if code == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("missing authorization code"))
		return
	}

	user, err := h.oauth.HandleCallback(r.Context(), provider, code, state)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	token, err := h.issuer.Issue(user)
	if err != nil {
		slog.Error("failed to issue token", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.deliverSession(w, r, user, token, state)
}

// deliverSession は発行済みトークンをプラットフォームに応じた方法で受け渡す。
//   - web: HttpOnly Cookie + ロール・意図に応じたフロントエンドへのリダイレクト
//   - mobile（redirect_uriあり）: ディープリンクのクエリにトークンを載せてリダイレクト
//   - それ以外: JSONでトークンを返す
//
// Appleのform_post POSTからのリダイレクトでメソッドを引き継がないよう303を使う。
func (h *AuthHandler) deliverSession(w http.ResponseWriter, r *http.Request, user *model.User, token string, state auth.FlowState) {
	if state.Platform == model.PlatformMobile {
		if state.MobileRedirectURI != "" {
			sep := "?"
			if strings.Contains(state.MobileRedirectURI, "?") {
				sep = "&"
			}
			http.Redirect(w, r, state.MobileRedirectURI+sep+"token="+url.QueryEscape(token), http.StatusSeeOther)
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: toUserResponse(user)})
		return
	}

	h.setTokenCookie(w, token)
	http.Redirect(w, r, h.postLoginRedirect(user.Role, state.Intent), http.StatusSeeOther)
}

// postLoginRedirect はログイン完了後のフロントエンド遷移先を返す。
// ロールはトークンに載せた遷移適用後の現在値を使う。
func (h *AuthHandler) postLoginRedirect(role model.Role, intent model.Intent) string {
	switch {
	case role == model.RoleBusiness && intent == model.IntentSignup:
		return h.config.FrontendURL + "/business-onboarding"
	case role == model.RoleBusiness:
		return h.config.FrontendURL + "/dashboard"
	case role == model.RoleAdmin:
		return h.config.FrontendURL + "/admin"
	default:
		return h.config.FrontendURL + "/"
	}
}

// setTokenCookie はトークンCookieを設定する。
// フロントエンドとAPIが別オリジンのため、SameSite=Noneを使う。
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.TokenMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}

// clearTokenCookie はトークンCookieを削除する。
func (h *AuthHandler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteNoneMode,
	})
}
