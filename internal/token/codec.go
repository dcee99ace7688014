// Package token は署名付きセッショントークンの発行と検証を提供する。
//
// トークンはHMAC-SHA-256で署名されたJWTで、アカウントの
// {id, email, fullName, role} と発行時刻・有効期限を含む。
// サーバー側にセッション状態を持たないため、期限前の失効はできない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/machiba/internal/model"
)

// ErrInvalidToken は検証失敗を表す。
// パース失敗・署名不一致・期限切れのいずれもこの1種類に正規化する（fail closed）。
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims はトークンに埋め込むアカウント情報。
// roleとfullNameは発行時点のスナップショットであり、
// 最新状態が必要なハンドラーはemailでストアを引き直すこと。
type Claims struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Codec はトークンの発行と検証を行う。
// 秘密鍵と有効期間は起動時に固定され、以後変更されない。
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time // テストで差し替え可能
}

// NewCodec はCodecを生成する。
func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue はユーザーの署名付きトークンを発行する。
// 有効期限は発行時刻 + TTL（既定1時間）。リフレッシュ機構は存在しない。
func (c *Codec) Issue(u *model.User) (string, error) {
	now := c.now().UTC()
	claims := Claims{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、Claimsを返す。
// いかなる失敗もErrInvalidTokenに正規化する。部分的な信頼は返さない。
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
