package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/machiba/internal/model"
)

// PostgresListingRepo はPostgreSQLを使用した掲載リポジトリ。
type PostgresListingRepo struct {
	db *sql.DB
}

// NewPostgresListingRepo はPostgresListingRepoを生成する。
func NewPostgresListingRepo(db *sql.DB) *PostgresListingRepo {
	return &PostgresListingRepo{db: db}
}

const listingColumns = `id, business_id, type, name, category,
	COALESCE(description, ''), COALESCE(image_url, ''),
	COALESCE(booking_url, ''), COALESCE(video_url, ''), gallery_urls,
	created_at, updated_at`

func scanListing(row interface{ Scan(...any) error }) (*model.Listing, error) {
	l := &model.Listing{}
	var typ string
	err := row.Scan(&l.ID, &l.BusinessID, &typ, &l.Name, &l.Category,
		&l.Description, &l.ImageURL,
		&l.BookingURL, &l.VideoURL, pq.Array(&l.GalleryURLs),
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Type = model.ListingType(typ)
	return l, nil
}

// FindByID は指定IDの掲載を取得する。見つからない場合はnilを返す。
func (r *PostgresListingRepo) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`,
		id,
	)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return l, nil
}

// List は掲載一覧をoffsetページネーションで返す。
func (r *PostgresListingRepo) List(ctx context.Context, listingType, category string, limit, offset int) ([]*model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listingColumns+`
		 FROM listings
		 WHERE ($1 = '' OR type = $1)
		   AND ($2 = '' OR category = $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		listingType, category, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var listings []*model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}
	return listings, nil
}

func (r *PostgresListingRepo) listCategories(ctx context.Context, table string) ([]*model.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, label, COALESCE(icon_url, '') FROM `+table+` ORDER BY label`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		c := &model.Category{}
		if err := rows.Scan(&c.ID, &c.Label, &c.IconURL); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// ListServiceCategories はサービスカテゴリ一覧を返す。
func (r *PostgresListingRepo) ListServiceCategories(ctx context.Context) ([]*model.Category, error) {
	return r.listCategories(ctx, "service_categories")
}

// ListPlaceCategories は場所カテゴリ一覧を返す。
func (r *PostgresListingRepo) ListPlaceCategories(ctx context.Context) ([]*model.Category, error) {
	return r.listCategories(ctx, "place_categories")
}

// ListAmenities は設備一覧を返す。
func (r *PostgresListingRepo) ListAmenities(ctx context.Context) ([]*model.Amenity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(icon_url, '') FROM amenities ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list amenities: %w", err)
	}
	defer rows.Close()

	var amenities []*model.Amenity
	for rows.Next() {
		a := &model.Amenity{}
		if err := rows.Scan(&a.ID, &a.Name, &a.IconURL); err != nil {
			return nil, fmt.Errorf("failed to scan amenity: %w", err)
		}
		amenities = append(amenities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate amenities: %w", err)
	}
	return amenities, nil
}

// FindBookingOption は予約オプションを取得する。見つからない場合はnilを返す。
func (r *PostgresListingRepo) FindBookingOption(ctx context.Context, optionID string) (*model.BookingOption, error) {
	o := &model.BookingOption{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, listing_id, type, price FROM booking_options WHERE id = $1`,
		optionID,
	).Scan(&o.ID, &o.ListingID, &o.Type, &o.Price)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking option: %w", err)
	}
	return o, nil
}

// CreateWithOptions は掲載と予約オプションを同一トランザクションで作成する。
func (r *PostgresListingRepo) CreateWithOptions(ctx context.Context, listing *model.Listing, options []*model.BookingOption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO listings (id, business_id, type, name, category, description, image_url,
		                       booking_url, video_url, gallery_urls, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11, $12)`,
		listing.ID, listing.BusinessID, string(listing.Type), listing.Name, listing.Category,
		listing.Description, listing.ImageURL,
		listing.BookingURL, listing.VideoURL, pq.Array(listing.GalleryURLs),
		listing.CreatedAt, listing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}

	for _, o := range options {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO booking_options (id, listing_id, type, price) VALUES ($1, $2, $3, $4)`,
			o.ID, o.ListingID, o.Type, o.Price,
		)
		if err != nil {
			return fmt.Errorf("failed to insert booking option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update は掲載を更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresListingRepo) Update(ctx context.Context, listing *model.Listing) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE listings
		 SET name = $1, category = $2, description = NULLIF($3, ''), image_url = NULLIF($4, ''),
		     booking_url = NULLIF($5, ''), video_url = NULLIF($6, ''), gallery_urls = $7, updated_at = now()
		 WHERE id = $8`,
		listing.Name, listing.Category, listing.Description, listing.ImageURL,
		listing.BookingURL, listing.VideoURL, pq.Array(listing.GalleryURLs), listing.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update listing: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountAll は全掲載数を返す。
func (r *PostgresListingRepo) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM listings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ ListingRepository = (*PostgresListingRepo)(nil)
