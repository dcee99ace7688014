// Package review は事業者レビューのドメインロジックを提供する。
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/machiba/internal/model"
	"github.com/hitoshi/machiba/internal/repository"
	"github.com/hitoshi/machiba/internal/security"
)

// ReviewService はレビュー投稿・公開のサービス層。
// 公開時は表示名とコメントを必ずサニタイザに通す。
type ReviewService struct {
	reviews   repository.ReviewRepository
	sanitizer security.ReviewSanitizerService
}

// NewReviewService はReviewServiceの新しいインスタンスを生成する。
func NewReviewService(reviews repository.ReviewRepository, sanitizer security.ReviewSanitizerService) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		sanitizer: sanitizer,
	}
}

// ListForBusiness は事業者のレビュー一覧を公開用に整形して返す。
// 表示名のメールアドレスは匿名化され、コメントはタグ除去済みで返る。
func (s *ReviewService) ListForBusiness(ctx context.Context, businessID string) ([]*model.Review, error) {
	reviews, err := s.reviews.ListByBusinessID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("レビュー一覧の取得に失敗しました: %w", err)
	}

	for _, r := range reviews {
		r.FullName = s.sanitizer.DisplayName(r.FullName)
		r.Comment = s.sanitizer.SanitizeComment(r.Comment)
	}
	return reviews, nil
}

// Add はレビューを投稿する。評価は1..5、1ユーザーにつき事業者1件まで。
func (s *ReviewService) Add(ctx context.Context, userID, fullName, businessID string, rating int, comment string) (*model.Review, error) {
	if businessID == "" {
		return nil, model.NewValidationError("businessId is required")
	}
	if rating < 1 || rating > 5 {
		return nil, model.NewInvalidRatingError()
	}

	existing, err := s.reviews.FindByUserAndBusiness(ctx, userID, businessID)
	if err != nil {
		return nil, fmt.Errorf("レビューの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateReviewError()
	}

	review := &model.Review{
		ID:         uuid.New().String(),
		UserID:     userID,
		BusinessID: businessID,
		FullName:   fullName,
		Rating:     rating,
		Comment:    s.sanitizer.SanitizeComment(comment),
		CreatedAt:  time.Now(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			// 並行投稿との競合。一意制約が最終的な裁定者となる。
			return nil, model.NewDuplicateReviewError()
		}
		return nil, fmt.Errorf("レビューの作成に失敗しました: %w", err)
	}

	review.FullName = s.sanitizer.DisplayName(review.FullName)
	return review, nil
}
