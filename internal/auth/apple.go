package auth

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const (
	defaultAppleAuthURL  = "https://appleid.apple.com/auth/authorize"
	defaultAppleTokenURL = "https://appleid.apple.com/auth/token"
	defaultAppleAudience = "https://appleid.apple.com"

	// client_secretアサーションの有効期間。Appleの上限は6ヶ月だが、
	// 交換のたびに発行するため短命でよい。
	appleSecretTTL = 5 * time.Minute
)

// AppleConfig はAppleProviderの設定。AuthURL/TokenURL/Audienceは
// 未指定ならApple本番のものが使われる(テストで差し替え可能)。
type AppleConfig struct {
	ClientID      string
	TeamID        string
	KeyID         string
	PrivateKeyPEM string
	RedirectURL   string
	AuthURL       string
	TokenURL      string
	Audience      string
}

// AppleProvider はSign in with Appleによるサインインを提供する。
// AppleはOIDCの変種を要求する: client_secretは固定値ではなく、
// チームの秘密鍵でES256署名したJWTアサーションを都度発行する。
type AppleProvider struct {
	clientID    string
	teamID      string
	keyID       string
	privateKey  *ecdsa.PrivateKey
	redirectURL string
	authURL     string
	tokenURL    string
	audience    string
	now         func() time.Time
}

// NewAppleProvider は新しいAppleProviderを生成する。
// 秘密鍵PEMが不正な場合はエラーを返す。
func NewAppleProvider(cfg AppleConfig) (*AppleProvider, error) {
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse apple private key: %w", err)
	}

	p := &AppleProvider{
		clientID:    cfg.ClientID,
		teamID:      cfg.TeamID,
		keyID:       cfg.KeyID,
		privateKey:  key,
		redirectURL: cfg.RedirectURL,
		authURL:     cfg.AuthURL,
		tokenURL:    cfg.TokenURL,
		audience:    cfg.Audience,
		now:         time.Now,
	}
	if p.authURL == "" {
		p.authURL = defaultAppleAuthURL
	}
	if p.tokenURL == "" {
		p.tokenURL = defaultAppleTokenURL
	}
	if p.audience == "" {
		p.audience = defaultAppleAudience
	}
	return p, nil
}

// Name はプロバイダ識別子を返す。
func (p *AppleProvider) Name() string {
	return "apple"
}

// AuthURL はユーザーをリダイレクトすべき認可URLを構築する。
// nameスコープを要求するためresponse_mode=form_postが必須で、
// コールバックはGETではなくPOSTで届く。
func (p *AppleProvider) AuthURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("response_mode", "form_post")
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", p.redirectURL)
	q.Set("scope", "name email")
	q.Set("state", state)
	return p.authURL + "?" + q.Encode()
}

// clientSecret は交換1回分のclient_secretアサーションを発行する。
func (p *AppleProvider) clientSecret() (string, error) {
	now := p.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.RegisteredClaims{
		Issuer:    p.teamID,
		Subject:   p.clientID,
		Audience:  jwt.ClaimStrings{p.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(appleSecretTTL)),
	})
	tok.Header["kid"] = p.keyID

	secret, err := tok.SignedString(p.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign apple client secret: %w", err)
	}
	return secret, nil
}

// Exchange は認可コードをトークンに交換し、id_tokenからプロフィールを取り出す。
// id_tokenはTLSで保護されたトークンエンドポイントから直接受け取るため、
// ここでは署名検証せずにクレームを読む。
func (p *AppleProvider) Exchange(ctx context.Context, code string) (*OAuthUserInfo, error) {
	secret, err := p.clientSecret()
	if err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: secret,
		RedirectURL:  p.redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.authURL,
			TokenURL:  p.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return nil, fmt.Errorf("token response missing id_token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse id_token: %w", err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("id_token missing subject")
	}
	email, _ := claims["email"].(string)

	// Appleは初回認可時のみフォームのuserフィールドで氏名を渡す。
	// id_tokenには氏名が含まれないため、Nameは空のまま返す。
	return &OAuthUserInfo{
		Provider:       p.Name(),
		ProviderUserID: sub,
		Email:          email,
	}, nil
}

// compile-time interface check
var _ OAuthProvider = (*AppleProvider)(nil)
