// Package listing は掲載カタログのドメインロジックを提供する。
package listing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/machiba/internal/model"
	"github.com/hitoshi/machiba/internal/repository"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// BookingOptionInput は掲載作成時の予約オプション入力。
type BookingOptionInput struct {
	Type  string
	Price int
}

// UpsertInput は掲載の作成・更新入力。
// Typeは作成時のみ使用し、更新では無視される。
type UpsertInput struct {
	Type        string
	Name        string
	Category    string
	Description string
	ImageURL    string
	BookingURL  string
	VideoURL    string
	GalleryURLs []string
	Options     []BookingOptionInput
}

// OwnedListing は作成された掲載と予約オプションの組。
type OwnedListing struct {
	Listing *model.Listing
	Options []*model.BookingOption
}

// ListingService は掲載カタログのサービス層。
// 読み取りは公開、書き込みはオーナー本人の事業者に限定される。
type ListingService struct {
	listings   repository.ListingRepository
	businesses repository.BusinessRepository
}

// NewListingService はListingServiceの新しいインスタンスを生成する。
func NewListingService(listings repository.ListingRepository, businesses repository.BusinessRepository) *ListingService {
	return &ListingService{listings: listings, businesses: businesses}
}

// List は掲載一覧をページネーション付きで返す。
// pageは1始まり。perPageは1..100にクランプされる。
func (s *ListingService) List(ctx context.Context, listingType, category string, page, perPage int) ([]*model.Listing, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	if listingType != "" && listingType != string(model.ListingService) && listingType != string(model.ListingPlace) {
		return nil, model.NewValidationError(fmt.Sprintf("unknown listing type: %s", listingType))
	}

	offset := (page - 1) * perPage
	results, err := s.listings.List(ctx, listingType, category, perPage, offset)
	if err != nil {
		return nil, fmt.Errorf("掲載一覧の取得に失敗しました: %w", err)
	}
	return results, nil
}

// Get は掲載の詳細を返す。
func (s *ListingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("掲載の取得に失敗しました: %w", err)
	}
	if listing == nil {
		return nil, model.NewListingNotFoundError(id)
	}
	return listing, nil
}

// CreateForOwner はオーナーの事業者に新しい掲載を作成する。
// 予約オプション・動画URL・ギャラリーURLは加入プランが許可する場合のみ保存され、
// 許可のないフィールドはエラーにせず黙って落とす。
func (s *ListingService) CreateForOwner(ctx context.Context, ownerEmail string, input UpsertInput) (*OwnedListing, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}
	if input.Type != string(model.ListingService) && input.Type != string(model.ListingPlace) {
		return nil, model.NewValidationError(fmt.Sprintf("unknown listing type: %s", input.Type))
	}

	biz, plan, err := s.requireActivePlan(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	l := &model.Listing{
		ID:          uuid.New().String(),
		BusinessID:  biz.ID,
		Type:        model.ListingType(input.Type),
		Name:        strings.TrimSpace(input.Name),
		Category:    strings.TrimSpace(input.Category),
		Description: input.Description,
		ImageURL:    input.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyPlanGate(l, plan, input)

	var options []*model.BookingOption
	if plan.AllowBooking {
		for _, o := range input.Options {
			options = append(options, &model.BookingOption{
				ID:        uuid.New().String(),
				ListingID: l.ID,
				Type:      o.Type,
				Price:     o.Price,
			})
		}
	}

	if err := s.listings.CreateWithOptions(ctx, l, options); err != nil {
		return nil, fmt.Errorf("掲載の作成に失敗しました: %w", err)
	}
	return &OwnedListing{Listing: l, Options: options}, nil
}

// UpdateForOwner はオーナー本人の掲載を更新する。
// 予約オプションは更新対象外。プラン制限は作成時と同じ規則で適用される。
func (s *ListingService) UpdateForOwner(ctx context.Context, ownerEmail, listingID string, input UpsertInput) (*model.Listing, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	biz, plan, err := s.requireActivePlan(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	existing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("掲載の取得に失敗しました: %w", err)
	}
	if existing == nil {
		return nil, model.NewListingNotFoundError(listingID)
	}
	if existing.BusinessID != biz.ID {
		return nil, model.NewForbiddenError()
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Category = strings.TrimSpace(input.Category)
	existing.Description = input.Description
	existing.ImageURL = input.ImageURL
	existing.UpdatedAt = time.Now()
	applyPlanGate(existing, plan, input)

	found, err := s.listings.Update(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("掲載の更新に失敗しました: %w", err)
	}
	if !found {
		return nil, model.NewListingNotFoundError(listingID)
	}
	return existing, nil
}

// requireActivePlan はオーナーの事業者と有効プランを解決する。
// 事業者未登録とプラン未加入は別のエラーとして区別する。
func (s *ListingService) requireActivePlan(ctx context.Context, ownerEmail string) (*model.Business, *model.Plan, error) {
	biz, err := s.businesses.FindByOwnerEmail(ctx, ownerEmail)
	if err != nil {
		return nil, nil, fmt.Errorf("事業者の検索に失敗しました: %w", err)
	}
	if biz == nil {
		return nil, nil, model.NewBusinessNotFoundError()
	}

	plan, err := s.businesses.FindActivePlan(ctx, biz.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("プランの取得に失敗しました: %w", err)
	}
	if plan == nil {
		return nil, nil, model.NewPlanRequiredError()
	}
	return biz, plan, nil
}

func validateUpsert(input UpsertInput) error {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Category) == "" {
		return model.NewValidationError("name and category are required")
	}
	return nil
}

// applyPlanGate はプランが許可するフィールドのみ掲載に反映する。
func applyPlanGate(l *model.Listing, plan *model.Plan, input UpsertInput) {
	l.BookingURL = ""
	if plan.AllowBooking {
		l.BookingURL = input.BookingURL
	}
	l.VideoURL = ""
	if plan.AllowVideo {
		l.VideoURL = input.VideoURL
	}
	l.GalleryURLs = nil
	if plan.AllowGallery {
		l.GalleryURLs = input.GalleryURLs
	}
}

// ServiceCategories はサービスカテゴリ一覧を返す。
func (s *ListingService) ServiceCategories(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.listings.ListServiceCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("サービスカテゴリの取得に失敗しました: %w", err)
	}
	return categories, nil
}

// PlaceCategories は場所カテゴリ一覧を返す。
func (s *ListingService) PlaceCategories(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.listings.ListPlaceCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("場所カテゴリの取得に失敗しました: %w", err)
	}
	return categories, nil
}

// Amenities は設備一覧を返す。
func (s *ListingService) Amenities(ctx context.Context) ([]*model.Amenity, error) {
	amenities, err := s.listings.ListAmenities(ctx)
	if err != nil {
		return nil, fmt.Errorf("設備一覧の取得に失敗しました: %w", err)
	}
	return amenities, nil
}
