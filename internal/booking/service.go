// Package booking は予約のドメインロジックを提供する。
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/machiba/internal/model"
	"github.com/hitoshi/machiba/internal/repository"
)

// BookingMetrics は予約関連の計測点。
type BookingMetrics interface {
	RecordBookingCreated()
}

// BookingService は予約作成・照会・状態遷移のサービス層。
type BookingService struct {
	bookings   repository.BookingRepository
	listings   repository.ListingRepository
	businesses repository.BusinessRepository
	metrics    BookingMetrics
}

// NewBookingService はBookingServiceの新しいインスタンスを生成する。metricsはnil可。
func NewBookingService(
	bookings repository.BookingRepository,
	listings repository.ListingRepository,
	businesses repository.BusinessRepository,
	metrics BookingMetrics,
) *BookingService {
	return &BookingService{
		bookings:   bookings,
		listings:   listings,
		businesses: businesses,
		metrics:    metrics,
	}
}

// Create は予約オプションから新規予約を作成する。
// 価格はクライアント入力ではなく、保存済みオプションの値を使う。
func (s *BookingService) Create(ctx context.Context, userID, optionID, note string) (*model.Booking, error) {
	if optionID == "" {
		return nil, model.NewValidationError("optionId is required")
	}

	option, err := s.listings.FindBookingOption(ctx, optionID)
	if err != nil {
		return nil, fmt.Errorf("予約オプションの取得に失敗しました: %w", err)
	}
	if option == nil {
		return nil, model.NewValidationError(fmt.Sprintf("unknown booking option: %s", optionID))
	}

	now := time.Now()
	booking := &model.Booking{
		ID:          uuid.New().String(),
		UserID:      userID,
		ListingID:   option.ListingID,
		OptionID:    option.ID,
		OptionTitle: option.Type,
		Price:       option.Price,
		Note:        note,
		Status:      model.BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("予約の作成に失敗しました: %w", err)
	}

	// 事業者ダッシュボードへの通知。予約本体は成立しているため失敗してもエラーにしない。
	alert := &model.DashboardAlert{
		ID:        uuid.New().String(),
		ListingID: option.ListingID,
		BookingID: booking.ID,
		Message:   fmt.Sprintf("%s に新しい予約が入りました。", option.Type),
		CreatedAt: now,
	}
	if err := s.bookings.CreateAlert(ctx, alert); err != nil {
		slog.Warn("failed to create dashboard alert",
			slog.String("booking_id", booking.ID),
			slog.String("error", err.Error()),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordBookingCreated()
	}
	return booking, nil
}

// Mine はユーザー本人の予約一覧を返す。
func (s *BookingService) Mine(ctx context.Context, userID string) ([]*model.Booking, error) {
	bookings, err := s.bookings.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	return bookings, nil
}

// ListForBusiness は事業者の掲載に紐付く予約一覧を返す。
// 照会できるのは事業者のオーナー本人のみ。
func (s *BookingService) ListForBusiness(ctx context.Context, ownerEmail, businessID string) ([]*model.Booking, error) {
	biz, err := s.businesses.FindByOwnerEmail(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("事業者の検索に失敗しました: %w", err)
	}
	if biz == nil || biz.ID != businessID {
		return nil, model.NewForbiddenError()
	}

	bookings, err := s.bookings.ListByBusinessID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗しました: %w", err)
	}
	return bookings, nil
}

// AlertsForBusiness は事業者ダッシュボード向けの予約通知一覧を返す。
// 照会できるのは事業者のオーナー本人のみ。
func (s *BookingService) AlertsForBusiness(ctx context.Context, ownerEmail, businessID string) ([]*model.DashboardAlert, error) {
	biz, err := s.businesses.FindByOwnerEmail(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("事業者の検索に失敗しました: %w", err)
	}
	if biz == nil || biz.ID != businessID {
		return nil, model.NewForbiddenError()
	}

	alerts, err := s.bookings.ListAlertsByBusinessID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("通知一覧の取得に失敗しました: %w", err)
	}
	return alerts, nil
}

// UpdateStatus は予約のステータスを更新する。
// ステータスは定義済みの4値に閉じており、それ以外は拒否する。
func (s *BookingService) UpdateStatus(ctx context.Context, id, status string) error {
	if !model.ValidBookingStatus(status) {
		return model.NewInvalidStatusError(status)
	}

	found, err := s.bookings.UpdateStatus(ctx, id, model.BookingStatus(status))
	if err != nil {
		return fmt.Errorf("予約ステータスの更新に失敗しました: %w", err)
	}
	if !found {
		return model.NewBookingNotFoundError()
	}
	return nil
}
