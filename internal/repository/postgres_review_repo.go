package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/machiba/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用したレビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// ListByBusinessID は事業者のレビュー一覧を作成日時降順で返す。
func (r *PostgresReviewRepo) ListByBusinessID(ctx context.Context, businessID string) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, business_id, COALESCE(full_name, ''), rating, COALESCE(comment, ''), created_at
		 FROM reviews WHERE business_id = $1 ORDER BY created_at DESC`,
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		rev := &model.Review{}
		if err := rows.Scan(&rev.ID, &rev.UserID, &rev.BusinessID, &rev.FullName,
			&rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return reviews, nil
}

// Create はレビューを作成する。
// ユーザー×事業者のユニーク制約違反の場合はErrDuplicateReviewを返す。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, business_id, full_name, rating, comment, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), $7)`,
		review.ID, review.UserID, review.BusinessID, review.FullName,
		review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// FindByUserAndBusiness はユーザーの既存レビューを検索する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByUserAndBusiness(ctx context.Context, userID, businessID string) (*model.Review, error) {
	rev := &model.Review{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, business_id, COALESCE(full_name, ''), rating, COALESCE(comment, ''), created_at
		 FROM reviews WHERE user_id = $1 AND business_id = $2`,
		userID, businessID,
	).Scan(&rev.ID, &rev.UserID, &rev.BusinessID, &rev.FullName,
		&rev.Rating, &rev.Comment, &rev.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return rev, nil
}

// compile-time interface check
var _ ReviewRepository = (*PostgresReviewRepo)(nil)
