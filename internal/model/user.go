// Package model はドメインモデルを定義する。
package model

import "time"

// Role はアカウントのロールを表す閉じた列挙型。
type Role string

const (
	// RoleVisitor は一般訪問者ロール。デフォルトロール。
	RoleVisitor Role = "visitor"
	// RoleBusiness は事業者ロール。
	RoleBusiness Role = "business"
	// RoleAdmin は管理者ロール。
	RoleAdmin Role = "admin"
)

// ParseRole は文字列をRoleに変換する。
// 未知の値および空文字列はRoleVisitorとして扱う。
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleBusiness:
		return RoleBusiness
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleVisitor
	}
}

// Platform は認証クライアントのプラットフォームを表す。
type Platform string

const (
	// PlatformWeb はWebブラウザクライアント。デフォルト。
	PlatformWeb Platform = "web"
	// PlatformMobile はモバイルアプリクライアント。
	PlatformMobile Platform = "mobile"
)

// ParsePlatform は文字列をPlatformに変換する。
// 未知の値および空文字列はPlatformWebとして扱う。
func ParsePlatform(s string) Platform {
	if Platform(s) == PlatformMobile {
		return PlatformMobile
	}
	return PlatformWeb
}

// Intent はOAuthフローの開始意図を表す。
type Intent string

const (
	// IntentLogin は既存アカウントへのログイン意図。デフォルト。
	IntentLogin Intent = "login"
	// IntentSignup は新規アカウント作成意図。
	IntentSignup Intent = "signup"
)

// ParseIntent は文字列をIntentに変換する。
// 未知の値および空文字列はIntentLoginとして扱う。
func ParseIntent(s string) Intent {
	if Intent(s) == IntentSignup {
		return IntentSignup
	}
	return IntentLogin
}

// User はアカウントレコードを表す。emailでグローバルに一意。
// PasswordHashが空のアカウントはOAuth専用アカウントであり、
// ProviderUserIDが必ず設定されている。
type User struct {
	ID             string
	Email          string
	FullName       string
	Role           Role
	PasswordHash   string // bcryptハッシュ。OAuth専用アカウントでは空。
	Provider       string // "google", "apple" 等。ローカルアカウントでは空。
	ProviderUserID string
	AvatarURL      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPassword はローカルパスワード認証が可能かどうかを返す。
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
