// Package business は事業者登録・管理のドメインロジックを提供する。
package business

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/machiba/internal/model"
	"github.com/hitoshi/machiba/internal/repository"
)

// OnboardInput は事業者登録の入力。
type OnboardInput struct {
	Name      string
	Location  string
	Contact   string
	Website   string
	PlanID    string
	Latitude  *float64
	Longitude *float64
}

// MyBusiness は事業者本人向けの事業者情報と有効プランの組。
type MyBusiness struct {
	Business *model.Business
	Plan     *model.Plan
}

// BusinessService は事業者登録・照会のサービス層。
type BusinessService struct {
	businesses repository.BusinessRepository
	plans      repository.PlanRepository
}

// NewBusinessService はBusinessServiceの新しいインスタンスを生成する。
func NewBusinessService(businesses repository.BusinessRepository, plans repository.PlanRepository) *BusinessService {
	return &BusinessService{businesses: businesses, plans: plans}
}

// Onboard はオーナーの事業者を登録し、指定プランに加入させる。
// オーナー1人につき事業者1件まで。
func (s *BusinessService) Onboard(ctx context.Context, ownerEmail string, input OnboardInput) (*model.Business, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Location) == "" {
		return nil, model.NewValidationError("name and location are required")
	}

	existing, err := s.businesses.FindByOwnerEmail(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("事業者の検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewBusinessExistsError()
	}

	plan, err := s.findPlan(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	biz := &model.Business{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(input.Name),
		Location:   strings.TrimSpace(input.Location),
		Contact:    input.Contact,
		Website:    input.Website,
		OwnerEmail: ownerEmail,
		Latitude:   input.Latitude,
		Longitude:  input.Longitude,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	sub := &model.Subscription{
		ID:         uuid.New().String(),
		BusinessID: biz.ID,
		PlanID:     plan.ID,
		StartedAt:  now,
		IsActive:   true,
	}
	if plan.DurationDays > 0 {
		expires := now.AddDate(0, 0, plan.DurationDays)
		sub.ExpiresAt = &expires
	}

	if err := s.businesses.CreateWithSubscription(ctx, biz, sub); err != nil {
		return nil, fmt.Errorf("事業者の登録に失敗しました: %w", err)
	}
	return biz, nil
}

// Mine はオーナー本人の事業者情報と有効プランを返す。
func (s *BusinessService) Mine(ctx context.Context, ownerEmail string) (*MyBusiness, error) {
	biz, err := s.businesses.FindByOwnerEmail(ctx, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("事業者の検索に失敗しました: %w", err)
	}
	if biz == nil {
		return nil, model.NewBusinessNotFoundError()
	}

	plan, err := s.businesses.FindActivePlan(ctx, biz.ID)
	if err != nil {
		return nil, fmt.Errorf("プランの取得に失敗しました: %w", err)
	}
	return &MyBusiness{Business: biz, Plan: plan}, nil
}

// Plans は加入可能な全プランを返す。
func (s *BusinessService) Plans(ctx context.Context) ([]*model.Plan, error) {
	plans, err := s.plans.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("プラン一覧の取得に失敗しました: %w", err)
	}
	return plans, nil
}

// findPlan はIDでプランを解決する。
func (s *BusinessService) findPlan(ctx context.Context, planID string) (*model.Plan, error) {
	if planID == "" {
		return nil, model.NewValidationError("planId is required")
	}
	plans, err := s.plans.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("プラン一覧の取得に失敗しました: %w", err)
	}
	for _, p := range plans {
		if p.ID == planID {
			return p, nil
		}
	}
	return nil, model.NewValidationError(fmt.Sprintf("unknown plan: %s", planID))
}
