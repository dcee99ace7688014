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

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	ListForBusiness(ctx context.Context, businessID string) ([]*model.Review, error)
	Add(ctx context.Context, userID, fullName, businessID string, rating int, comment string) (*model.Review, error)
}

// ReviewHandler はレビュー公開・投稿のHTTPハンドラー。一覧は公開、投稿は認証必須。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// addReviewRequest はレビュー投稿リクエストのボディ。
type addReviewRequest struct {
	BusinessID string `json:"businessId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// reviewResponse はレビューのAPIレスポンス。表示名・コメントはサニタイズ済み。
type reviewResponse struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"businessId"`
	FullName   string    `json:"fullName"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toReviewResponse(r *model.Review) reviewResponse {
	return reviewResponse{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		FullName:   r.FullName,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

// ListForBusiness は事業者のレビュー一覧を返す。
// GET /api/reviews/{businessID}
func (h *ReviewHandler) ListForBusiness(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListForBusiness(r.Context(), chi.URLParam(r, "businessID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]reviewResponse, len(reviews))
	for i, rv := range reviews {
		results[i] = toReviewResponse(rv)
	}
	writeJSON(w, http.StatusOK, results)
}

// Add はレビュー投稿を処理する。
// POST /api/reviews
func (h *ReviewHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	var req addReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	review, err := h.service.Add(r.Context(), claims.ID, claims.FullName, req.BusinessID, req.Rating, req.Comment)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReviewResponse(review))
}
