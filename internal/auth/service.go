package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/machiba/internal/model"
	"github.com/hitoshi/machiba/internal/repository"
)

// OAuthMetrics はOAuthフローの計測点。
type OAuthMetrics interface {
	RecordOAuthCallback(provider, outcome string)
}

// OAuthService はOAuthフロー全体を編成する。
// プロバイダとの通信、ユーザーの解決・作成、ロール遷移ポリシーの適用を担う。
type OAuthService struct {
	users     repository.UserRepository
	providers map[string]OAuthProvider
	metrics   OAuthMetrics

	// ExchangeTimeout はプロバイダとのコード交換に適用する上限時間。
	// ゼロの場合はリクエストコンテキストの期限のみに従う。
	ExchangeTimeout time.Duration
}

// NewOAuthService は新しいOAuthServiceを生成する。metricsはnil可。
func NewOAuthService(users repository.UserRepository, metrics OAuthMetrics, providers ...OAuthProvider) *OAuthService {
	m := make(map[string]OAuthProvider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &OAuthService{users: users, providers: m, metrics: metrics}
}

// AuthURL は指定プロバイダの認可URLを構築する。
func (s *OAuthService) AuthURL(providerName string, state FlowState) (string, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return "", fmt.Errorf("unknown oauth provider: %s", providerName)
	}
	return p.AuthURL(state.Encode()), nil
}

// HandleCallback は認可コードを検証済みユーザーに解決する。
// 返却されるユーザーのRoleは遷移ポリシー適用後の現在値である。
func (s *OAuthService) HandleCallback(ctx context.Context, providerName, code string, state FlowState) (*model.User, error) {
	p, ok := s.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %s", providerName)
	}

	exchangeCtx := ctx
	if s.ExchangeTimeout > 0 {
		var cancel context.CancelFunc
		exchangeCtx, cancel = context.WithTimeout(ctx, s.ExchangeTimeout)
		defer cancel()
	}

	info, err := p.Exchange(exchangeCtx, code)
	if err != nil {
		slog.Error("oauth code exchange failed", "provider", providerName, "error", err)
		s.recordCallback(providerName, "exchange_error")
		return nil, model.NewUpstreamAuthError()
	}
	if info.Email == "" {
		slog.Warn("oauth provider returned no email", "provider", providerName)
		s.recordCallback(providerName, "missing_email")
		return nil, model.NewOAuthEmailMissingError()
	}

	email := strings.ToLower(strings.TrimSpace(info.Email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if user == nil {
		user, err = s.createFromProvider(ctx, email, info, state)
		if err != nil {
			return nil, err
		}
		s.recordCallback(providerName, "signup")
		return user, nil
	}

	if err := s.applyRoleTransition(ctx, user, state.Role); err != nil {
		return nil, err
	}
	if err := s.refreshProviderProfile(ctx, user, info); err != nil {
		return nil, err
	}
	s.recordCallback(providerName, "login")
	return user, nil
}

// createFromProvider はIdP情報から新規ユーザーを作成する。
func (s *OAuthService) createFromProvider(ctx context.Context, email string, info *OAuthUserInfo, state FlowState) (*model.User, error) {
	fullName := strings.TrimSpace(info.Name)
	if fullName == "" {
		// Appleは2回目以降の認可で氏名を渡さない
		fullName = localPart(email)
	}

	now := time.Now()
	user := &model.User{
		ID:             uuid.New().String(),
		Email:          email,
		FullName:       fullName,
		Role:           state.Role,
		Provider:       info.Provider,
		ProviderUserID: info.ProviderUserID,
		AvatarURL:      info.AvatarURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// 並行コールバックとの競合。勝者の行を引き直して続行する。
			existing, findErr := s.users.FindByEmail(ctx, email)
			if findErr != nil {
				return nil, fmt.Errorf("failed to find user after duplicate: %w", findErr)
			}
			if existing != nil {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// applyRoleTransition はロール遷移ポリシーを適用する。
// 許可される遷移はvisitor→businessの昇格のみ。その他の不一致は
// 現在のロールを維持したまま黙って成功させる。
func (s *OAuthService) applyRoleTransition(ctx context.Context, user *model.User, requested model.Role) error {
	if requested == user.Role {
		return nil
	}
	if user.Role == model.RoleVisitor && requested == model.RoleBusiness {
		if err := s.users.UpdateRole(ctx, user.ID, model.RoleBusiness); err != nil {
			return fmt.Errorf("failed to update user role: %w", err)
		}
		user.Role = model.RoleBusiness
	}
	return nil
}

// refreshProviderProfile はIdPのプロフィール情報を非破壊的に取り込む。
// 空の値で既存の値を上書きすることはない。
func (s *OAuthService) refreshProviderProfile(ctx context.Context, user *model.User, info *OAuthUserInfo) error {
	provider := user.Provider
	providerUserID := user.ProviderUserID
	avatarURL := user.AvatarURL

	if info.ProviderUserID != "" {
		provider = info.Provider
		providerUserID = info.ProviderUserID
	}
	if info.AvatarURL != "" {
		avatarURL = info.AvatarURL
	}

	if provider == user.Provider && providerUserID == user.ProviderUserID && avatarURL == user.AvatarURL {
		return nil
	}
	if err := s.users.UpdateProviderProfile(ctx, user.ID, provider, providerUserID, avatarURL); err != nil {
		return fmt.Errorf("failed to update provider profile: %w", err)
	}
	user.Provider = provider
	user.ProviderUserID = providerUserID
	user.AvatarURL = avatarURL
	return nil
}

func (s *OAuthService) recordCallback(provider, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordOAuthCallback(provider, outcome)
	}
}

// localPart はメールアドレスの@より前を返す。
func localPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
