// Package model はドメインモデルを定義する。
package model

import "time"

// Business は事業者を表す。owner emailごとに1件のみ登録できる。
type Business struct {
	ID         string
	Name       string
	Location   string
	Contact    string
	Website    string
	OwnerEmail string
	Latitude   *float64
	Longitude  *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Plan はサブスクリプションプランを表す。
type Plan struct {
	ID              string
	Name            string
	Price           int
	DurationDays    int
	AllowBooking    bool
	AllowVideo      bool
	AllowGallery    bool
	AllowReviews    bool
	FeaturedListing bool
}

// Subscription は事業者とプランの紐付けを表す。
type Subscription struct {
	ID         string
	BusinessID string
	PlanID     string
	StartedAt  time.Time
	ExpiresAt  *time.Time
	IsActive   bool
}
