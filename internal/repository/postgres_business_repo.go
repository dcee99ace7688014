package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/machiba/internal/model"
)

// PostgresBusinessRepo はPostgreSQLを使用した事業者リポジトリ。
type PostgresBusinessRepo struct {
	db *sql.DB
}

// NewPostgresBusinessRepo はPostgresBusinessRepoを生成する。
func NewPostgresBusinessRepo(db *sql.DB) *PostgresBusinessRepo {
	return &PostgresBusinessRepo{db: db}
}

// FindByOwnerEmail はオーナーemailで事業者を検索する。見つからない場合はnilを返す。
func (r *PostgresBusinessRepo) FindByOwnerEmail(ctx context.Context, email string) (*model.Business, error) {
	b := &model.Business{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, location, COALESCE(contact, ''), COALESCE(website, ''),
		        owner_email, latitude, longitude, created_at, updated_at
		 FROM businesses WHERE owner_email = $1`,
		email,
	).Scan(&b.ID, &b.Name, &b.Location, &b.Contact, &b.Website,
		&b.OwnerEmail, &b.Latitude, &b.Longitude, &b.CreatedAt, &b.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find business: %w", err)
	}
	return b, nil
}

// CreateWithSubscription は事業者とプラン加入を同一トランザクションで作成する。
func (r *PostgresBusinessRepo) CreateWithSubscription(ctx context.Context, business *model.Business, sub *model.Subscription) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO businesses (id, name, location, contact, website, owner_email, latitude, longitude, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10)`,
		business.ID, business.Name, business.Location, business.Contact, business.Website,
		business.OwnerEmail, business.Latitude, business.Longitude,
		business.CreatedAt, business.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert business: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO business_subscriptions (id, business_id, plan_id, started_at, expires_at, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.BusinessID, sub.PlanID, sub.StartedAt, sub.ExpiresAt, sub.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindActivePlan は事業者の有効なプランを取得する。見つからない場合はnilを返す。
func (r *PostgresBusinessRepo) FindActivePlan(ctx context.Context, businessID string) (*model.Plan, error) {
	p := &model.Plan{}
	err := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.name, p.price, p.duration_days,
		        p.allow_booking, p.allow_video, p.allow_gallery, p.allow_reviews, p.featured_listing
		 FROM business_subscriptions s
		 JOIN subscription_plans p ON p.id = s.plan_id
		 WHERE s.business_id = $1 AND s.is_active`,
		businessID,
	).Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays,
		&p.AllowBooking, &p.AllowVideo, &p.AllowGallery, &p.AllowReviews, &p.FeaturedListing)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active plan: %w", err)
	}
	return p, nil
}

// CountAll は全事業者数を返す。
func (r *PostgresBusinessRepo) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM businesses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count businesses: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ BusinessRepository = (*PostgresBusinessRepo)(nil)

// PostgresPlanRepo はPostgreSQLを使用したプランリポジトリ。
type PostgresPlanRepo struct {
	db *sql.DB
}

// NewPostgresPlanRepo はPostgresPlanRepoを生成する。
func NewPostgresPlanRepo(db *sql.DB) *PostgresPlanRepo {
	return &PostgresPlanRepo{db: db}
}

// ListAll は全プランを返す。
func (r *PostgresPlanRepo) ListAll(ctx context.Context) ([]*model.Plan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price, duration_days,
		        allow_booking, allow_video, allow_gallery, allow_reviews, featured_listing
		 FROM subscription_plans ORDER BY price`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*model.Plan
	for rows.Next() {
		p := &model.Plan{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays,
			&p.AllowBooking, &p.AllowVideo, &p.AllowGallery, &p.AllowReviews, &p.FeaturedListing); err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}
	return plans, nil
}

// compile-time interface check
var _ PlanRepository = (*PostgresPlanRepo)(nil)
