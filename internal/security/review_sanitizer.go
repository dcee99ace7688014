// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ReviewSanitizerService はレビュー本文と投稿者表示名をサニタイズし、
// XSS攻撃や個人情報の露出からユーザーを保護する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// レビュー本文はプレーンテキストのみを通過させる。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// anonymousDisplayName はメールアドレスらしき表示名の置換先。
const anonymousDisplayName = "匿名ユーザー"

// ReviewSanitizerService はレビュー公開前のサニタイズ機能のインターフェースを定義する。
// レビュー保存前およびAPI応答時に使用される。
type ReviewSanitizerService interface {
	// SanitizeComment はレビュー本文から全てのHTMLタグを除去し、
	// プレーンテキストのみを返す。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeComment(raw string) string

	// DisplayName は投稿者の表示名を公開用に整形する。
	// OAuth経由の登録で表示名がメールアドレスになっている場合があるため、
	// "@"を含む表示名は匿名表示に置き換える。
	DisplayName(name string) string
}

// reviewSanitizer はReviewSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type reviewSanitizer struct {
	policy *bluemonday.Policy
}

// NewReviewSanitizer はReviewSanitizerServiceの新しいインスタンスを生成する。
// レビュー本文はリッチテキストを想定しないため、StrictPolicy
// （全タグ除去）を使用する。
func NewReviewSanitizer() *reviewSanitizer {
	return &reviewSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeComment はレビュー本文から全てのHTMLタグを除去する。
func (s *reviewSanitizer) SanitizeComment(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// DisplayName は投稿者の表示名を公開用に整形する。
func (s *reviewSanitizer) DisplayName(name string) string {
	name = strings.TrimSpace(s.policy.Sanitize(name))
	if name == "" || strings.Contains(name, "@") {
		return anonymousDisplayName
	}
	return name
}

// compile-time interface check
var _ ReviewSanitizerService = (*reviewSanitizer)(nil)
