package admin

import (
	"context"
	"testing"

	"github.com/hitoshi/machiba/internal/model"
)

// --- モック定義 ---

type mockUserRepo struct {
	listForAdminFn func(ctx context.Context, search string, role model.Role, sortKey string, desc bool) ([]*model.User, error)
	count          int
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	return nil
}

func (m *mockUserRepo) UpdateProviderProfile(ctx context.Context, id, provider, providerUserID, avatarURL string) error {
	return nil
}

func (m *mockUserRepo) ListForAdmin(ctx context.Context, search string, role model.Role, sortKey string, desc bool) ([]*model.User, error) {
	if m.listForAdminFn != nil {
		return m.listForAdminFn(ctx, search, role, sortKey, desc)
	}
	return nil, nil
}

func (m *mockUserRepo) CountAll(ctx context.Context) (int, error) {
	return m.count, nil
}

type mockCountingBusinessRepo struct {
	count int
}

func (m *mockCountingBusinessRepo) FindByOwnerEmail(ctx context.Context, email string) (*model.Business, error) {
	return nil, nil
}

func (m *mockCountingBusinessRepo) CreateWithSubscription(ctx context.Context, business *model.Business, sub *model.Subscription) error {
	return nil
}

func (m *mockCountingBusinessRepo) FindActivePlan(ctx context.Context, businessID string) (*model.Plan, error) {
	return nil, nil
}

func (m *mockCountingBusinessRepo) CountAll(ctx context.Context) (int, error) {
	return m.count, nil
}

type mockCountingListingRepo struct {
	count int
}

func (m *mockCountingListingRepo) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	return nil, nil
}

func (m *mockCountingListingRepo) List(ctx context.Context, listingType, category string, limit, offset int) ([]*model.Listing, error) {
	return nil, nil
}

func (m *mockCountingListingRepo) ListServiceCategories(ctx context.Context) ([]*model.Category, error) {
	return nil, nil
}

func (m *mockCountingListingRepo) ListPlaceCategories(ctx context.Context) ([]*model.Category, error) {
	return nil, nil
}

func (m *mockCountingListingRepo) ListAmenities(ctx context.Context) ([]*model.Amenity, error) {
	return nil, nil
}

func (m *mockCountingListingRepo) FindBookingOption(ctx context.Context, optionID string) (*model.BookingOption, error) {
	return nil, nil
}

func (m *mockCountingListingRepo) CreateWithOptions(ctx context.Context, listing *model.Listing, options []*model.BookingOption) error {
	return nil
}

func (m *mockCountingListingRepo) Update(ctx context.Context, listing *model.Listing) (bool, error) {
	return false, nil
}

func (m *mockCountingListingRepo) CountAll(ctx context.Context) (int, error) {
	return m.count, nil
}

// --- テスト ---

func TestAdminServiceDashboard(t *testing.T) {
	svc := NewAdminService(
		&mockUserRepo{count: 42},
		&mockCountingBusinessRepo{count: 7},
		&mockCountingListingRepo{count: 19},
	)

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if stats.Users != 42 {
		t.Errorf("Users = %d, want 42", stats.Users)
	}
	if stats.Businesses != 7 {
		t.Errorf("Businesses = %d, want 7", stats.Businesses)
	}
	if stats.Listings != 19 {
		t.Errorf("Listings = %d, want 19", stats.Listings)
	}
}

func TestAdminServiceUsers(t *testing.T) {
	var gotSearch, gotSort string
	var gotRole model.Role
	var gotDesc bool
	repo := &mockUserRepo{
		listForAdminFn: func(ctx context.Context, search string, role model.Role, sortKey string, desc bool) ([]*model.User, error) {
			gotSearch, gotRole, gotSort, gotDesc = search, role, sortKey, desc
			return []*model.User{{ID: "u1"}}, nil
		},
	}
	svc := NewAdminService(repo, &mockCountingBusinessRepo{}, &mockCountingListingRepo{})

	users, err := svc.Users(context.Background(), UserListQuery{
		Search:  "山田",
		Role:    model.RoleBusiness,
		SortKey: "email",
		Desc:    true,
	})
	if err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if len(users) != 1 {
		t.Errorf("len(users) = %d, want 1", len(users))
	}
	if gotSearch != "山田" || gotRole != model.RoleBusiness || gotSort != "email" || !gotDesc {
		t.Errorf("query passed = (%q, %q, %q, %v), want (山田, business, email, true)", gotSearch, gotRole, gotSort, gotDesc)
	}
}
