package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/machiba/internal/middleware"
	"github.com/hitoshi/machiba/internal/model"
)

// BookingServiceInterface は予約ハンドラーが必要とするサービスインターフェース。
type BookingServiceInterface interface {
	Create(ctx context.Context, userID, optionID, note string) (*model.Booking, error)
	Mine(ctx context.Context, userID string) ([]*model.Booking, error)
	ListForBusiness(ctx context.Context, ownerEmail, businessID string) ([]*model.Booking, error)
	AlertsForBusiness(ctx context.Context, ownerEmail, businessID string) ([]*model.DashboardAlert, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// BookingHandler は予約管理のHTTPハンドラー。全エンドポイント認証必須。
type BookingHandler struct {
	service BookingServiceInterface
}

// NewBookingHandler はBookingHandlerを生成する。
func NewBookingHandler(service BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: service}
}

// createBookingRequest は予約作成リクエストのボディ。
type createBookingRequest struct {
	OptionID string `json:"optionId"`
	Note     string `json:"note"`
}

// updateBookingStatusRequest は予約ステータス更新リクエストのボディ。
type updateBookingStatusRequest struct {
	Status string `json:"status"`
}

// bookingResponse は予約のAPIレスポンス。
type bookingResponse struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"listingId"`
	OptionID    string    `json:"optionId"`
	OptionTitle string    `json:"optionTitle"`
	Price       int       `json:"price"`
	Note        string    `json:"note,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		ID:          b.ID,
		ListingID:   b.ListingID,
		OptionID:    b.OptionID,
		OptionTitle: b.OptionTitle,
		Price:       b.Price,
		Note:        b.Note,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
	}
}

func toBookingResponses(bookings []*model.Booking) []bookingResponse {
	results := make([]bookingResponse, len(bookings))
	for i, b := range bookings {
		results[i] = toBookingResponse(b)
	}
	return results
}

// Create は予約作成を処理する。
// POST /api/bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	booking, err := h.service.Create(r.Context(), claims.ID, req.OptionID, req.Note)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookingResponse(booking))
}

// Mine はユーザー本人の予約一覧を返す。
// GET /api/bookings/my
func (h *BookingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	bookings, err := h.service.Mine(r.Context(), claims.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

// ListForBusiness は事業者の掲載に紐付く予約一覧を返す。
// GET /api/bookings/business/{id}
func (h *BookingHandler) ListForBusiness(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	bookings, err := h.service.ListForBusiness(r.Context(), claims.Email, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponses(bookings))
}

// alertResponse は予約通知のAPIレスポンス。
type alertResponse struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listingId"`
	BookingID string    `json:"bookingId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Alerts は事業者ダッシュボード向けの予約通知一覧を返す。
// GET /api/bookings/business/{id}/alerts
func (h *BookingHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	alerts, err := h.service.AlertsForBusiness(r.Context(), claims.Email, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]alertResponse, len(alerts))
	for i, a := range alerts {
		results[i] = alertResponse{
			ID:        a.ID,
			ListingID: a.ListingID,
			BookingID: a.BookingID,
			Message:   a.Message,
			CreatedAt: a.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// UpdateStatus は予約のステータス遷移を処理する。
// PATCH /api/bookings/{id}/status
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateBookingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}
