package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/machiba/internal/middleware"
	"github.com/hitoshi/machiba/internal/model"
	"github.com/hitoshi/machiba/internal/token"
)

// --- モック定義 ---

type mockBookingService struct {
	createFn          func(ctx context.Context, userID, optionID, note string) (*model.Booking, error)
	mineFn            func(ctx context.Context, userID string) ([]*model.Booking, error)
	listForBusinessFn func(ctx context.Context, ownerEmail, businessID string) ([]*model.Booking, error)
	alertsFn          func(ctx context.Context, ownerEmail, businessID string) ([]*model.DashboardAlert, error)
	updateStatusFn    func(ctx context.Context, id, status string) error
}

func (m *mockBookingService) Create(ctx context.Context, userID, optionID, note string) (*model.Booking, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, optionID, note)
	}
	return nil, nil
}

func (m *mockBookingService) Mine(ctx context.Context, userID string) ([]*model.Booking, error) {
	if m.mineFn != nil {
		return m.mineFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockBookingService) ListForBusiness(ctx context.Context, ownerEmail, businessID string) ([]*model.Booking, error) {
	if m.listForBusinessFn != nil {
		return m.listForBusinessFn(ctx, ownerEmail, businessID)
	}
	return nil, nil
}

func (m *mockBookingService) AlertsForBusiness(ctx context.Context, ownerEmail, businessID string) ([]*model.DashboardAlert, error) {
	if m.alertsFn != nil {
		return m.alertsFn(ctx, ownerEmail, businessID)
	}
	return nil, nil
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, id, status string) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

// authedRequest はリクエストに認証済みクレームを付与するヘルパー。
func authedRequest(req *http.Request, claims *token.Claims) *http.Request {
	return req.WithContext(middleware.ContextWithIdentity(req.Context(), claims))
}

func visitorClaims() *token.Claims {
	return &token.Claims{
		ID:       "user-1",
		Email:    "taro@example.com",
		FullName: "山田太郎",
		Role:     "visitor",
	}
}

// --- テスト ---

func TestBookingHandler_Create_UsesClaimsUserID(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(ctx context.Context, userID, optionID, note string) (*model.Booking, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			if optionID != "opt-1" {
				t.Errorf("optionID = %q, want opt-1", optionID)
			}
			return &model.Booking{
				ID:          "booking-1",
				UserID:      userID,
				ListingID:   "listing-1",
				OptionID:    optionID,
				OptionTitle: "60分コース",
				Price:       5000,
				Note:        note,
				Status:      model.BookingPending,
			}, nil
		},
	}
	h := NewBookingHandler(svc)

	body := `{"optionId":"opt-1","note":"午後希望"}`
	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body)), visitorClaims())
	w := httptest.NewRecorder()

	h.Create(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var got bookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.Status != "pending" {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.Price != 5000 {
		t.Errorf("price = %d, want 5000", got.Price)
	}
}

func TestBookingHandler_Create_NoIdentity_Returns401(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{"optionId":"opt-1"}`))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestBookingHandler_Create_UnknownOption_Returns400(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(ctx context.Context, userID, optionID, note string) (*model.Booking, error) {
			return nil, model.NewValidationError("unknown booking option: opt-x")
		},
	}
	h := NewBookingHandler(svc)

	req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(`{"optionId":"opt-x"}`)), visitorClaims())
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestBookingHandler_Mine_ReturnsBookings(t *testing.T) {
	svc := &mockBookingService{
		mineFn: func(ctx context.Context, userID string) ([]*model.Booking, error) {
			return []*model.Booking{
				{ID: "booking-1", Status: model.BookingPending},
				{ID: "booking-2", Status: model.BookingCompleted},
			}, nil
		},
	}
	h := NewBookingHandler(svc)

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/bookings/my", nil), visitorClaims())
	w := httptest.NewRecorder()

	h.Mine(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got []bookingResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestBookingHandler_ListForBusiness_PassesOwnerEmail(t *testing.T) {
	svc := &mockBookingService{
		listForBusinessFn: func(ctx context.Context, ownerEmail, businessID string) ([]*model.Booking, error) {
			if ownerEmail != "taro@example.com" {
				t.Errorf("ownerEmail = %q, want taro@example.com", ownerEmail)
			}
			if businessID != "biz-1" {
				t.Errorf("businessID = %q, want biz-1", businessID)
			}
			return []*model.Booking{{ID: "booking-1"}}, nil
		},
	}
	h := NewBookingHandler(svc)

	r := chi.NewRouter()
	r.Get("/api/bookings/business/{id}", h.ListForBusiness)

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/bookings/business/biz-1", nil), visitorClaims())
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestBookingHandler_ListForBusiness_NotOwner_Returns403(t *testing.T) {
	svc := &mockBookingService{
		listForBusinessFn: func(ctx context.Context, ownerEmail, businessID string) ([]*model.Booking, error) {
			return nil, model.NewForbiddenError()
		},
	}
	h := NewBookingHandler(svc)

	r := chi.NewRouter()
	r.Get("/api/bookings/business/{id}", h.ListForBusiness)

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/bookings/business/biz-2", nil), visitorClaims())
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestBookingHandler_Alerts_ReturnsAlerts(t *testing.T) {
	svc := &mockBookingService{
		alertsFn: func(ctx context.Context, ownerEmail, businessID string) ([]*model.DashboardAlert, error) {
			if ownerEmail != "taro@example.com" {
				t.Errorf("ownerEmail = %q, want taro@example.com", ownerEmail)
			}
			if businessID != "biz-1" {
				t.Errorf("businessID = %q, want biz-1", businessID)
			}
			return []*model.DashboardAlert{
				{ID: "alert-1", BookingID: "booking-1", Message: "60分コース に新しい予約が入りました。"},
			}, nil
		},
	}
	h := NewBookingHandler(svc)

	r := chi.NewRouter()
	r.Get("/api/bookings/business/{id}/alerts", h.Alerts)

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/bookings/business/biz-1/alerts", nil), visitorClaims())
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var got []alertResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 || got[0].BookingID != "booking-1" {
		t.Errorf("got = %+v", got)
	}
}

func TestBookingHandler_Alerts_NotOwner_Returns403(t *testing.T) {
	svc := &mockBookingService{
		alertsFn: func(ctx context.Context, ownerEmail, businessID string) ([]*model.DashboardAlert, error) {
			return nil, model.NewForbiddenError()
		},
	}
	h := NewBookingHandler(svc)

	r := chi.NewRouter()
	r.Get("/api/bookings/business/{id}/alerts", h.Alerts)

	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/bookings/business/biz-2/alerts", nil), visitorClaims())
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestBookingHandler_UpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{"valid transition", `{"status":"ongoing"}`, nil, http.StatusOK},
		{"unknown status", `{"status":"archived"}`, model.NewInvalidStatusError("archived"), http.StatusBadRequest},
		{"booking not found", `{"status":"completed"}`, model.NewBookingNotFoundError(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{
				updateStatusFn: func(ctx context.Context, id, status string) error {
					if id != "booking-1" {
						t.Errorf("id = %q, want booking-1", id)
					}
					return tt.serviceErr
				},
			}
			h := NewBookingHandler(svc)

			r := chi.NewRouter()
			r.Patch("/api/bookings/{id}/status", h.UpdateStatus)

			req := httptest.NewRequest(http.MethodPatch, "/api/bookings/booking-1/status", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
