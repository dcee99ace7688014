// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, booking, review, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNoToken            = "NO_TOKEN"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeUpstreamAuth       = "UPSTREAM_AUTH_ERROR"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeBusinessNotFound   = "BUSINESS_NOT_FOUND"
	ErrCodeBusinessExists     = "BUSINESS_ALREADY_ONBOARDED"
	ErrCodePlanRequired       = "PLAN_REQUIRED"
	ErrCodeListingNotFound    = "LISTING_NOT_FOUND"
	ErrCodeBookingNotFound    = "BOOKING_NOT_FOUND"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeDuplicateReview    = "DUPLICATE_REVIEW"
	ErrCodeInvalidRating      = "INVALID_RATING"
	ErrCodeOAuthEmailMissing  = "OAUTH_EMAIL_MISSING"
	ErrCodeRateLimited        = "RATE_LIMITED"
)

// NewValidationError は必須項目の欠落・不正入力エラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に不備があります: %s", detail),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスで登録してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// アカウント列挙を防ぐため、ユーザー不存在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewSocialAccountError はOAuth専用アカウントへのパスワードログイン試行エラーを生成する。
func NewSocialAccountError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "このアカウントはソーシャルログインで登録されています。",
		Category: "auth",
		Action:   "GoogleまたはAppleでログインしてください。",
	}
}

// NewNoTokenError はトークン未提供エラーを生成する。
func NewNoTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeNoToken,
		Message:  "認証トークンが提供されていません。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidTokenError はトークン不正・期限切れエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "認証トークンが無効または期限切れです。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "必要な権限を持つアカウントでログインしてください。",
	}
}

// NewUpstreamAuthError は外部IdPとの通信失敗エラーを生成する。
func NewUpstreamAuthError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamAuth,
		Message:  "外部認証プロバイダーとの通信に失敗しました。",
		Category: "auth",
		Action:   "しばらく待ってからログインをやり直してください。",
	}
}

// NewOAuthEmailMissingError はIdPがメールアドレスを返さなかった場合のエラーを生成する。
func NewOAuthEmailMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeOAuthEmailMissing,
		Message:  "外部認証プロバイダーからメールアドレスを取得できませんでした。",
		Category: "auth",
		Action:   "プロバイダーの設定でメールアドレスの共有を許可してください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewBusinessNotFoundError は事業者が見つからない場合のエラーを生成する。
func NewBusinessNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeBusinessNotFound,
		Message:  "事業者情報が見つかりません。",
		Category: "validation",
		Action:   "事業者登録を行ってください。",
	}
}

// NewBusinessExistsError は事業者の重複登録エラーを生成する。
func NewBusinessExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeBusinessExists,
		Message:  "このアカウントには既に事業者が登録されています。",
		Category: "validation",
		Action:   "登録済みの事業者情報を確認してください。",
	}
}

// NewPlanRequiredError は有効なプランなしで掲載操作を行った場合のエラーを生成する。
func NewPlanRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodePlanRequired,
		Message:  "有効なサブスクリプションプランがありません。",
		Category: "validation",
		Action:   "プランに加入してから掲載を登録してください。",
	}
}

// NewListingNotFoundError は掲載情報が見つからない場合のエラーを生成する。
func NewListingNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeListingNotFound,
		Message:  fmt.Sprintf("指定された掲載情報が見つかりません: %s", id),
		Category: "validation",
		Action:   "掲載IDを確認してください。",
	}
}

// NewBookingNotFoundError は予約が見つからない場合のエラーを生成する。
func NewBookingNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeBookingNotFound,
		Message:  "指定された予約が見つかりません。",
		Category: "booking",
		Action:   "予約IDを確認してください。",
	}
}

// NewInvalidStatusError は予約ステータスの不正値エラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効な予約ステータスです: %s", status),
		Category: "booking",
		Action:   "pending、ongoing、completed、cancelled のいずれかを指定してください。",
	}
}

// NewDuplicateReviewError はレビューの重複投稿エラーを生成する。
func NewDuplicateReviewError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateReview,
		Message:  "この事業者には既にレビューを投稿しています。",
		Category: "review",
		Action:   "投稿済みのレビューを確認してください。",
	}
}

// NewInvalidRatingError は評価値の範囲外エラーを生成する。
func NewInvalidRatingError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRating,
		Message:  "評価は1から5の整数で指定してください。",
		Category: "review",
		Action:   "評価値を確認して再度お試しください。",
	}
}
