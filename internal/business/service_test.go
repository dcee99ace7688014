package business

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/machiba/internal/model"
	"github.com/hitoshi/machiba/internal/repository"
)

// --- モック定義 ---

type mockBusinessRepo struct {
	findByOwnerEmailFn       func(ctx context.Context, email string) (*model.Business, error)
	createWithSubscriptionFn func(ctx context.Context, business *model.Business, sub *model.Subscription) error
	findActivePlanFn         func(ctx context.Context, businessID string) (*model.Plan, error)
}

func (m *mockBusinessRepo) FindByOwnerEmail(ctx context.Context, email string) (*model.Business, error) {
	if m.findByOwnerEmailFn != nil {
		return m.findByOwnerEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockBusinessRepo) CreateWithSubscription(ctx context.Context, business *model.Business, sub *model.Subscription) error {
	if m.createWithSubscriptionFn != nil {
		return m.createWithSubscriptionFn(ctx, business, sub)
	}
	return nil
}

func (m *mockBusinessRepo) FindActivePlan(ctx context.Context, businessID string) (*model.Plan, error) {
	if m.findActivePlanFn != nil {
		return m.findActivePlanFn(ctx, businessID)
	}
	return nil, nil
}

func (m *mockBusinessRepo) CountAll(ctx context.Context) (int, error) {
	return 0, nil
}

type mockPlanRepo struct {
	plans []*model.Plan
}

func (m *mockPlanRepo) ListAll(ctx context.Context) ([]*model.Plan, error) {
	return m.plans, nil
}

// compile-time interface check
var (
	_ repository.BusinessRepository = (*mockBusinessRepo)(nil)
	_ repository.PlanRepository     = (*mockPlanRepo)(nil)
)

func testPlans() *mockPlanRepo {
	return &mockPlanRepo{plans: []*model.Plan{
		{ID: "plan-free", Name: "フリー", Price: 0, DurationDays: 0},
		{ID: "plan-pro", Name: "プロ", Price: 5000, DurationDays: 30, AllowBooking: true},
	}}
}

func wantAPIError(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not *model.APIError: %v", err)
	}
	if apiErr.Code != code {
		t.Errorf("code = %q, want %q", apiErr.Code, code)
	}
}

// --- テスト ---

func TestBusinessServiceOnboard(t *testing.T) {
	var createdBiz *model.Business
	var createdSub *model.Subscription
	repo := &mockBusinessRepo{
		createWithSubscriptionFn: func(ctx context.Context, business *model.Business, sub *model.Subscription) error {
			createdBiz, createdSub = business, sub
			return nil
		},
	}
	svc := NewBusinessService(repo, testPlans())

	biz, err := svc.Onboard(context.Background(), "shop@example.com", OnboardInput{
		Name:     "町場整体院",
		Location: "東京都台東区",
		PlanID:   "plan-pro",
	})
	if err != nil {
		t.Fatalf("Onboard() error = %v", err)
	}
	if biz.OwnerEmail != "shop@example.com" {
		t.Errorf("OwnerEmail = %q, want %q", biz.OwnerEmail, "shop@example.com")
	}
	if createdBiz == nil || createdSub == nil {
		t.Fatal("CreateWithSubscription was not called")
	}
	if createdSub.PlanID != "plan-pro" {
		t.Errorf("PlanID = %q, want %q", createdSub.PlanID, "plan-pro")
	}
	if !createdSub.IsActive {
		t.Error("subscription should start active")
	}
	if createdSub.ExpiresAt == nil {
		t.Error("30日プランの加入に有効期限が設定されていない")
	}
}

func TestBusinessServiceOnboardFreePlanNeverExpires(t *testing.T) {
	var createdSub *model.Subscription
	repo := &mockBusinessRepo{
		createWithSubscriptionFn: func(ctx context.Context, business *model.Business, sub *model.Subscription) error {
			createdSub = sub
			return nil
		},
	}
	svc := NewBusinessService(repo, testPlans())

	_, err := svc.Onboard(context.Background(), "shop@example.com", OnboardInput{
		Name:     "町場整体院",
		Location: "東京都台東区",
		PlanID:   "plan-free",
	})
	if err != nil {
		t.Fatalf("Onboard() error = %v", err)
	}
	if createdSub.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil for duration-less plan", createdSub.ExpiresAt)
	}
}

func TestBusinessServiceOnboardFailures(t *testing.T) {
	existing := &model.Business{ID: "b1", OwnerEmail: "shop@example.com"}

	tests := []struct {
		name     string
		existing *model.Business
		input    OnboardInput
		wantCode string
	}{
		{
			name:     "必須項目の欠落",
			input:    OnboardInput{Name: "", Location: "東京都", PlanID: "plan-free"},
			wantCode: model.ErrCodeValidation,
		},
		{
			name:     "重複登録",
			existing: existing,
			input:    OnboardInput{Name: "店", Location: "東京都", PlanID: "plan-free"},
			wantCode: model.ErrCodeBusinessExists,
		},
		{
			name:     "未知のプラン",
			input:    OnboardInput{Name: "店", Location: "東京都", PlanID: "plan-unknown"},
			wantCode: model.ErrCodeValidation,
		},
		{
			name:     "プラン未指定",
			input:    OnboardInput{Name: "店", Location: "東京都"},
			wantCode: model.ErrCodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBusinessRepo{
				findByOwnerEmailFn: func(ctx context.Context, email string) (*model.Business, error) {
					return tt.existing, nil
				},
			}
			svc := NewBusinessService(repo, testPlans())

			_, err := svc.Onboard(context.Background(), "shop@example.com", tt.input)
			wantAPIError(t, err, tt.wantCode)
		})
	}
}

func TestBusinessServiceMine(t *testing.T) {
	repo := &mockBusinessRepo{
		findByOwnerEmailFn: func(ctx context.Context, email string) (*model.Business, error) {
			return &model.Business{ID: "b1", Name: "町場整体院", OwnerEmail: email}, nil
		},
		findActivePlanFn: func(ctx context.Context, businessID string) (*model.Plan, error) {
			return &model.Plan{ID: "plan-pro", Name: "プロ"}, nil
		},
	}
	svc := NewBusinessService(repo, testPlans())

	mine, err := svc.Mine(context.Background(), "shop@example.com")
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}
	if mine.Business.ID != "b1" {
		t.Errorf("Business.ID = %q, want %q", mine.Business.ID, "b1")
	}
	if mine.Plan == nil || mine.Plan.ID != "plan-pro" {
		t.Errorf("Plan = %+v, want plan-pro", mine.Plan)
	}
}

func TestBusinessServiceMineNotFound(t *testing.T) {
	svc := NewBusinessService(&mockBusinessRepo{}, testPlans())

	_, err := svc.Mine(context.Background(), "nobody@example.com")
	wantAPIError(t, err, model.ErrCodeBusinessNotFound)
}
