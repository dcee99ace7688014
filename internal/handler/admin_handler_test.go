package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/machiba/internal/admin"
	"github.com/hitoshi/machiba/internal/model"
)

// --- モック定義 ---

type mockAdminService struct {
	dashboardFn func(ctx context.Context) (*admin.DashboardStats, error)
	usersFn     func(ctx context.Context, q admin.UserListQuery) ([]*model.User, error)
}

func (m *mockAdminService) Dashboard(ctx context.Context) (*admin.DashboardStats, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx)
	}
	return nil, nil
}

func (m *mockAdminService) Users(ctx context.Context, q admin.UserListQuery) ([]*model.User, error) {
	if m.usersFn != nil {
		return m.usersFn(ctx, q)
	}
	return nil, nil
}

// --- テスト ---

func TestAdminHandler_Dashboard_ReturnsStats(t *testing.T) {
	svc := &mockAdminService{
		dashboardFn: func(ctx context.Context) (*admin.DashboardStats, error) {
			return &admin.DashboardStats{Users: 10, Businesses: 3, Listings: 7}, nil
		},
	}
	h := NewAdminHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	w := httptest.NewRecorder()

	h.Dashboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got admin.DashboardStats
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Users != 10 || got.Businesses != 3 || got.Listings != 7 {
		t.Errorf("stats = %+v, want {10 3 7}", got)
	}
}

func TestAdminHandler_Dashboard_ServiceError_Returns500(t *testing.T) {
	svc := &mockAdminService{
		dashboardFn: func(ctx context.Context) (*admin.DashboardStats, error) {
			return nil, errors.New("db error")
		},
	}
	h := NewAdminHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	w := httptest.NewRecorder()

	h.Dashboard(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestAdminHandler_Users_ParsesQuery(t *testing.T) {
	svc := &mockAdminService{
		usersFn: func(ctx context.Context, q admin.UserListQuery) ([]*model.User, error) {
			if q.Search != "taro" {
				t.Errorf("search = %q, want taro", q.Search)
			}
			if q.Role != model.RoleBusiness {
				t.Errorf("role = %q, want business", q.Role)
			}
			if q.SortKey != "created_at" {
				t.Errorf("sort = %q, want created_at", q.SortKey)
			}
			if !q.Desc {
				t.Error("expected descending order")
			}
			return []*model.User{{ID: "user-1", Email: "taro@example.com", Role: model.RoleBusiness}}, nil
		},
	}
	h := NewAdminHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/users?search=taro&role=business&sort=created_at&order=desc", nil)
	w := httptest.NewRecorder()

	h.Users(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got []adminUserResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Role != "business" {
		t.Errorf("role = %q, want business", got[0].Role)
	}
}

func TestAdminHandler_Users_EmptyRoleMeansAllRoles(t *testing.T) {
	svc := &mockAdminService{
		usersFn: func(ctx context.Context, q admin.UserListQuery) ([]*model.User, error) {
			if q.Role != "" {
				t.Errorf("role = %q, want empty (all roles)", q.Role)
			}
			return nil, nil
		},
	}
	h := NewAdminHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	w := httptest.NewRecorder()

	h.Users(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
