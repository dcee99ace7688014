package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/machiba/internal/model"
)

// PostgresBookingRepo はPostgreSQLを使用した予約リポジトリ。
type PostgresBookingRepo struct {
	db *sql.DB
}

// NewPostgresBookingRepo はPostgresBookingRepoを生成する。
func NewPostgresBookingRepo(db *sql.DB) *PostgresBookingRepo {
	return &PostgresBookingRepo{db: db}
}

const bookingColumns = `id, user_id, listing_id, option_id, option_title, price,
	COALESCE(note, ''), status, created_at, updated_at`

// Create は予約を作成する。
func (r *PostgresBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, listing_id, option_id, option_title, price, note, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)`,
		booking.ID, booking.UserID, booking.ListingID, booking.OptionID,
		booking.OptionTitle, booking.Price, booking.Note, string(booking.Status),
		booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// FindByID は指定IDの予約を取得する。見つからない場合はnilを返す。
func (r *PostgresBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	b := &model.Booking{}
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.UserID, &b.ListingID, &b.OptionID, &b.OptionTitle,
		&b.Price, &b.Note, &status, &b.CreatedAt, &b.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	b.Status = model.BookingStatus(status)
	return b, nil
}

func (r *PostgresBookingRepo) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b := &model.Booking{}
		var status string
		if err := rows.Scan(&b.ID, &b.UserID, &b.ListingID, &b.OptionID, &b.OptionTitle,
			&b.Price, &b.Note, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.Status = model.BookingStatus(status)
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// ListByUserID はユーザーの予約一覧を作成日時降順で返す。
func (r *PostgresBookingRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Booking, error) {
	return r.queryBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
}

// ListByBusinessID は事業者の掲載に紐付く予約一覧を返す。
func (r *PostgresBookingRepo) ListByBusinessID(ctx context.Context, businessID string) ([]*model.Booking, error) {
	return r.queryBookings(ctx,
		`SELECT b.id, b.user_id, b.listing_id, b.option_id, b.option_title, b.price,
		        COALESCE(b.note, ''), b.status, b.created_at, b.updated_at
		 FROM bookings b
		 JOIN listings l ON l.id = b.listing_id
		 WHERE l.business_id = $1
		 ORDER BY b.created_at DESC`,
		businessID,
	)
}

// UpdateStatus は予約のステータスを更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresBookingRepo) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CreateAlert は予約通知を作成する。
func (r *PostgresBookingRepo) CreateAlert(ctx context.Context, alert *model.DashboardAlert) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO dashboard_alerts (id, listing_id, booking_id, message, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		alert.ID, alert.ListingID, alert.BookingID, alert.Message, alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dashboard alert: %w", err)
	}
	return nil
}

// ListAlertsByBusinessID は事業者の掲載に紐付く通知一覧を作成日時降順で返す。
func (r *PostgresBookingRepo) ListAlertsByBusinessID(ctx context.Context, businessID string) ([]*model.DashboardAlert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.listing_id, a.booking_id, a.message, a.created_at
		 FROM dashboard_alerts a
		 JOIN listings l ON l.id = a.listing_id
		 WHERE l.business_id = $1
		 ORDER BY a.created_at DESC`,
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*model.DashboardAlert
	for rows.Next() {
		a := &model.DashboardAlert{}
		if err := rows.Scan(&a.ID, &a.ListingID, &a.BookingID, &a.Message, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dashboard alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dashboard alerts: %w", err)
	}
	return alerts, nil
}

// compile-time interface check
var _ BookingRepository = (*PostgresBookingRepo)(nil)
