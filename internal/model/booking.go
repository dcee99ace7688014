// Package model はドメインモデルを定義する。
package model

import "time"

// BookingStatus は予約の状態を表す閉じた列挙型。
type BookingStatus string

const (
	// BookingPending は受付済み・未対応の予約。初期状態。
	BookingPending BookingStatus = "pending"
	// BookingOngoing は対応中の予約。
	BookingOngoing BookingStatus = "ongoing"
	// BookingCompleted は完了した予約。
	BookingCompleted BookingStatus = "completed"
	// BookingCancelled はキャンセルされた予約。
	BookingCancelled BookingStatus = "cancelled"
)

// ValidBookingStatus は文字列が定義済みの予約ステータスかどうかを返す。
func ValidBookingStatus(s string) bool {
	switch BookingStatus(s) {
	case BookingPending, BookingOngoing, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Booking は予約を表す。
type Booking struct {
	ID          string
	UserID      string
	ListingID   string
	OptionID    string
	OptionTitle string
	Price       int
	Note        string
	Status      BookingStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DashboardAlert は予約発生時に事業者ダッシュボードへ積まれる通知を表す。
type DashboardAlert struct {
	ID        string
	ListingID string
	BookingID string
	Message   string
	CreatedAt time.Time
}

// Review は事業者へのレビューを表す。ユーザーごとに事業者1件まで。
type Review struct {
	ID         string
	UserID     string
	BusinessID string
	FullName   string
	Rating     int
	Comment    string
	CreatedAt  time.Time
}
