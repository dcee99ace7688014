package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/machiba/internal/business"
	"github.com/hitoshi/machiba/internal/middleware"
	"github.com/hitoshi/machiba/internal/model"
)

// BusinessServiceInterface は事業者ハンドラーが必要とするサービスインターフェース。
type BusinessServiceInterface interface {
	Onboard(ctx context.Context, ownerEmail string, input business.OnboardInput) (*model.Business, error)
	Mine(ctx context.Context, ownerEmail string) (*business.MyBusiness, error)
	Plans(ctx context.Context) ([]*model.Plan, error)
}

// BusinessHandler は事業者管理のHTTPハンドラー。
type BusinessHandler struct {
	service BusinessServiceInterface
}

// NewBusinessHandler はBusinessHandlerを生成する。
func NewBusinessHandler(service BusinessServiceInterface) *BusinessHandler {
	return &BusinessHandler{service: service}
}

// onboardRequest は事業者登録リクエストのボディ。
type onboardRequest struct {
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Contact   string   `json:"contact"`
	Website   string   `json:"website"`
	PlanID    string   `json:"planId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// businessResponse は事業者情報のAPIレスポンス。
type businessResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Contact   string   `json:"contact,omitempty"`
	Website   string   `json:"website,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// planResponse はプランのAPIレスポンス。
type planResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Price           int    `json:"price"`
	DurationDays    int    `json:"durationDays"`
	AllowBooking    bool   `json:"allowBooking"`
	AllowVideo      bool   `json:"allowVideo"`
	AllowGallery    bool   `json:"allowGallery"`
	AllowReviews    bool   `json:"allowReviews"`
	FeaturedListing bool   `json:"featuredListing"`
}

func toBusinessResponse(b *model.Business) businessResponse {
	return businessResponse{
		ID:        b.ID,
		Name:      b.Name,
		Location:  b.Location,
		Contact:   b.Contact,
		Website:   b.Website,
		Latitude:  b.Latitude,
		Longitude: b.Longitude,
	}
}

func toPlanResponse(p *model.Plan) planResponse {
	return planResponse{
		ID:              p.ID,
		Name:            p.Name,
		Price:           p.Price,
		DurationDays:    p.DurationDays,
		AllowBooking:    p.AllowBooking,
		AllowVideo:      p.AllowVideo,
		AllowGallery:    p.AllowGallery,
		AllowReviews:    p.AllowReviews,
		FeaturedListing: p.FeaturedListing,
	}
}

// Onboard は事業者登録を処理する。
// POST /businesses/onboard
func (h *BusinessHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	var req onboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	biz, err := h.service.Onboard(r.Context(), claims.Email, business.OnboardInput{
		Name:      req.Name,
		Location:  req.Location,
		Contact:   req.Contact,
		Website:   req.Website,
		PlanID:    req.PlanID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBusinessResponse(biz))
}

// Mine はオーナー本人の事業者情報と有効プランを返す。
// GET /businesses/me
func (h *BusinessHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	mine, err := h.service.Mine(r.Context(), claims.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := map[string]any{"business": toBusinessResponse(mine.Business)}
	if mine.Plan != nil {
		resp["plan"] = toPlanResponse(mine.Plan)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Plans は加入可能なプラン一覧を返す。
// GET /plans
func (h *BusinessHandler) Plans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.Plans(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]planResponse, len(plans))
	for i, p := range plans {
		results[i] = toPlanResponse(p)
	}
	writeJSON(w, http.StatusOK, results)
}
