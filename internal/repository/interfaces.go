// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/machiba/internal/model"
)

// ErrDuplicateEmail はemailのユニーク制約違反を表す。
// アプリケーション層の存在チェックはレースに勝てないため、
// この制約違反こそが重複登録の正である。
var ErrDuplicateEmail = errors.New("duplicate email")

// ErrDuplicateReview はユーザー×事業者のレビュー重複を表す。
var ErrDuplicateReview = errors.New("duplicate review")

// UserRepository はアカウントデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail は指定emailのユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成する。
	// emailのユニーク制約違反の場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateRole は指定ユーザーのロールを更新する。
	UpdateRole(ctx context.Context, id string, role model.Role) error

	// UpdateProviderProfile はOAuth再ログイン時にプロバイダー紐付け情報を更新する。
	// 空文字のフィールドは渡さないこと（非破壊マージは呼び出し側の責務）。
	UpdateProviderProfile(ctx context.Context, id, provider, providerUserID, avatarURL string) error

	// ListForAdmin は管理画面用のユーザー一覧を返す。
	// searchはfull_nameの部分一致、roleは空文字で全ロール。
	ListForAdmin(ctx context.Context, search string, role model.Role, sortKey string, desc bool) ([]*model.User, error)

	// CountAll は全ユーザー数を返す。
	CountAll(ctx context.Context) (int, error)
}

// BusinessRepository は事業者データの永続化インターフェース。
type BusinessRepository interface {
	// FindByOwnerEmail はオーナーemailで事業者を検索する。見つからない場合はnilを返す。
	FindByOwnerEmail(ctx context.Context, email string) (*model.Business, error)

	// CreateWithSubscription は事業者とプラン加入を同一トランザクションで作成する。
	CreateWithSubscription(ctx context.Context, business *model.Business, sub *model.Subscription) error

	// FindActivePlan は事業者の有効なプランを取得する。見つからない場合はnilを返す。
	FindActivePlan(ctx context.Context, businessID string) (*model.Plan, error)

	// CountAll は全事業者数を返す。
	CountAll(ctx context.Context) (int, error)
}

// PlanRepository はサブスクリプションプランの読み取りインターフェース。
type PlanRepository interface {
	// ListAll は全プランを返す。
	ListAll(ctx context.Context) ([]*model.Plan, error)
}

// ListingRepository は掲載データの永続化インターフェース。
type ListingRepository interface {
	// FindByID は指定IDの掲載を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Listing, error)

	// List は掲載一覧をoffsetページネーションで返す。
	// listingTypeとcategoryは空文字で絞り込みなし。
	List(ctx context.Context, listingType, category string, limit, offset int) ([]*model.Listing, error)

	// ListServiceCategories はサービスカテゴリ一覧を返す。
	ListServiceCategories(ctx context.Context) ([]*model.Category, error)

	// ListPlaceCategories は場所カテゴリ一覧を返す。
	ListPlaceCategories(ctx context.Context) ([]*model.Category, error)

	// ListAmenities は設備一覧を返す。
	ListAmenities(ctx context.Context) ([]*model.Amenity, error)

	// FindBookingOption は予約オプションを取得する。見つからない場合はnilを返す。
	FindBookingOption(ctx context.Context, optionID string) (*model.BookingOption, error)

	// CreateWithOptions は掲載と予約オプションを同一トランザクションで作成する。
	CreateWithOptions(ctx context.Context, listing *model.Listing, options []*model.BookingOption) error

	// Update は掲載を更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, listing *model.Listing) (bool, error)

	// CountAll は全掲載数を返す。
	CountAll(ctx context.Context) (int, error)
}

// BookingRepository は予約データの永続化インターフェース。
type BookingRepository interface {
	// Create は予約を作成する。
	Create(ctx context.Context, booking *model.Booking) error

	// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Booking, error)

	// ListByUserID はユーザーの予約一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Booking, error)

	// ListByBusinessID は事業者の掲載に紐付く予約一覧を返す。
	ListByBusinessID(ctx context.Context, businessID string) ([]*model.Booking, error)

	// UpdateStatus は予約のステータスを更新する。
	// 対象が存在しない場合はfalseを返す。
	UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (bool, error)

	// CreateAlert は予約通知を作成する。
	CreateAlert(ctx context.Context, alert *model.DashboardAlert) error

	// ListAlertsByBusinessID は事業者の掲載に紐付く通知一覧を作成日時降順で返す。
	ListAlertsByBusinessID(ctx context.Context, businessID string) ([]*model.DashboardAlert, error)
}

// ReviewRepository はレビューデータの永続化インターフェース。
type ReviewRepository interface {
	// ListByBusinessID は事業者のレビュー一覧を作成日時降順で返す。
	ListByBusinessID(ctx context.Context, businessID string) ([]*model.Review, error)

	// Create はレビューを作成する。
	// ユーザー×事業者のユニーク制約違反の場合はErrDuplicateReviewを返す。
	Create(ctx context.Context, review *model.Review) error

	// FindByUserAndBusiness はユーザーの既存レビューを検索する。見つからない場合はnilを返す。
	FindByUserAndBusiness(ctx context.Context, userID, businessID string) (*model.Review, error)
}
