// Package model はドメインモデルを定義する。
package model

import "time"

// ListingType は掲載の種別を表す。
type ListingType string

const (
	// ListingService はサービス掲載。
	ListingService ListingType = "service"
	// ListingPlace は場所掲載。
	ListingPlace ListingType = "place"
)

// Listing はサービス・場所の掲載情報を表す。
// BookingURL・VideoURL・GalleryURLsは加入プランの許可がある場合のみ保存される。
type Listing struct {
	ID          string
	BusinessID  string
	Type        ListingType
	Name        string
	Category    string
	Description string
	ImageURL    string
	BookingURL  string
	VideoURL    string
	GalleryURLs []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookingOption は掲載に紐付く予約オプションを表す。
type BookingOption struct {
	ID        string
	ListingID string
	Type      string
	Price     int
}

// Category は掲載カテゴリを表す。サービスと場所で別テーブルを持つ。
type Category struct {
	ID      string
	Label   string
	IconURL string
}

// Amenity は場所掲載に付与できる設備を表す。
type Amenity struct {
	ID      string
	Name    string
	IconURL string
}
