package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/machiba/internal/listing"
	"github.com/hitoshi/machiba/internal/middleware"
	"github.com/hitoshi/machiba/internal/model"
)

// ListingServiceInterface は掲載ハンドラーが必要とするサービスインターフェース。
type ListingServiceInterface interface {
	List(ctx context.Context, listingType, category string, page, perPage int) ([]*model.Listing, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
	ServiceCategories(ctx context.Context) ([]*model.Category, error)
	PlaceCategories(ctx context.Context) ([]*model.Category, error)
	Amenities(ctx context.Context) ([]*model.Amenity, error)
	CreateForOwner(ctx context.Context, ownerEmail string, input listing.UpsertInput) (*listing.OwnedListing, error)
	UpdateForOwner(ctx context.Context, ownerEmail, listingID string, input listing.UpsertInput) (*model.Listing, error)
}

// ListingHandler は掲載カタログのHTTPハンドラー。
// 閲覧系は認証不要、作成・更新はオーナー認証が必要。
type ListingHandler struct {
	service ListingServiceInterface
}

// NewListingHandler はListingHandlerを生成する。
func NewListingHandler(service ListingServiceInterface) *ListingHandler {
	return &ListingHandler{service: service}
}

// upsertListingRequest は掲載作成・更新リクエストのボディ。
type upsertListingRequest struct {
	Type        string                 `json:"type"`
	Name        string                 `json:"name"`
	Category    string                 `json:"category"`
	Description string                 `json:"description"`
	ImageURL    string                 `json:"imageUrl"`
	BookingURL  string                 `json:"bookingUrl"`
	VideoURL    string                 `json:"videoUrl"`
	GalleryURLs []string               `json:"galleryUrls"`
	Options     []bookingOptionRequest `json:"options"`
}

// bookingOptionRequest は掲載作成時の予約オプション入力。
type bookingOptionRequest struct {
	Type  string `json:"type"`
	Price int    `json:"price"`
}

// listingResponse は掲載情報のAPIレスポンス。
type listingResponse struct {
	ID          string   `json:"id"`
	BusinessID  string   `json:"businessId"`
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	BookingURL  string   `json:"bookingUrl,omitempty"`
	VideoURL    string   `json:"videoUrl,omitempty"`
	GalleryURLs []string `json:"galleryUrls,omitempty"`
}

// bookingOptionResponse は予約オプションのAPIレスポンス。
type bookingOptionResponse struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Price int    `json:"price"`
}

// categoryResponse はカテゴリのAPIレスポンス。
type categoryResponse struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	IconURL string `json:"iconUrl,omitempty"`
}

// amenityResponse は設備のAPIレスポンス。
type amenityResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconURL string `json:"iconUrl,omitempty"`
}

func toListingResponse(l *model.Listing) listingResponse {
	return listingResponse{
		ID:          l.ID,
		BusinessID:  l.BusinessID,
		Type:        string(l.Type),
		Name:        l.Name,
		Category:    l.Category,
		Description: l.Description,
		ImageURL:    l.ImageURL,
		BookingURL:  l.BookingURL,
		VideoURL:    l.VideoURL,
		GalleryURLs: l.GalleryURLs,
	}
}

func toUpsertInput(req upsertListingRequest) listing.UpsertInput {
	input := listing.UpsertInput{
		Type:        req.Type,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		BookingURL:  req.BookingURL,
		VideoURL:    req.VideoURL,
		GalleryURLs: req.GalleryURLs,
	}
	for _, o := range req.Options {
		input.Options = append(input.Options, listing.BookingOptionInput{Type: o.Type, Price: o.Price})
	}
	return input
}

// List は掲載一覧を返す。
// GET /api/services?type=&category=&page=&perPage=
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))

	listings, err := h.service.List(r.Context(), q.Get("type"), q.Get("category"), page, perPage)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]listingResponse, len(listings))
	for i, l := range listings {
		results[i] = toListingResponse(l)
	}
	writeJSON(w, http.StatusOK, results)
}

// Get は掲載の詳細を返す。
// GET /api/services/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

// Create はオーナーの事業者に掲載を作成する。
// POST /businesses/me/listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	var req upsertListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	owned, err := h.service.CreateForOwner(r.Context(), claims.Email, toUpsertInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	options := make([]bookingOptionResponse, len(owned.Options))
	for i, o := range owned.Options {
		options[i] = bookingOptionResponse{ID: o.ID, Type: o.Type, Price: o.Price}
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"listing": toListingResponse(owned.Listing),
		"options": options,
	})
}

// Update はオーナー本人の掲載を更新する。
// PUT /businesses/me/listings/{id}
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	var req upsertListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	updated, err := h.service.UpdateForOwner(r.Context(), claims.Email, chi.URLParam(r, "id"), toUpsertInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(updated))
}

// ServiceCategories はサービスカテゴリ一覧を返す。
// GET /api/services/categories, GET /api/search/services
func (h *ListingHandler) ServiceCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ServiceCategories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponses(categories))
}

// PlaceCategories は場所カテゴリ一覧を返す。
// GET /api/search/places
func (h *ListingHandler) PlaceCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.PlaceCategories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponses(categories))
}

// Amenities は設備一覧を返す。
// GET /api/amenities
func (h *ListingHandler) Amenities(w http.ResponseWriter, r *http.Request) {
	amenities, err := h.service.Amenities(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]amenityResponse, len(amenities))
	for i, a := range amenities {
		results[i] = amenityResponse{ID: a.ID, Name: a.Name, IconURL: a.IconURL}
	}
	writeJSON(w, http.StatusOK, results)
}

func toCategoryResponses(categories []*model.Category) []categoryResponse {
	results := make([]categoryResponse, len(categories))
	for i, c := range categories {
		results[i] = categoryResponse{ID: c.ID, Label: c.Label, IconURL: c.IconURL}
	}
	return results
}
