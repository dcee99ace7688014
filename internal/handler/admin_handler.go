package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/machiba/internal/admin"
	"github.com/hitoshi/machiba/internal/model"
)

// AdminServiceInterface は管理ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	Dashboard(ctx context.Context) (*admin.DashboardStats, error)
	Users(ctx context.Context, q admin.UserListQuery) ([]*model.User, error)
}

// AdminHandler は管理者専用エンドポイントのHTTPハンドラー。
// ロール検証はミドルウェア側で済んでいる前提。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// adminUserResponse は管理画面向けのユーザー表現。認証情報は含めない。
type adminUserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Dashboard は管理ダッシュボードのカウンタを返す。
// GET /admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Users は条件に合うユーザー一覧を返す。
// GET /admin/users?search=&role=&sort=&order=
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	query := admin.UserListQuery{
		Search:  r.URL.Query().Get("search"),
		SortKey: r.URL.Query().Get("sort"),
		Desc:    r.URL.Query().Get("order") == "desc",
	}
	if raw := r.URL.Query().Get("role"); raw != "" {
		query.Role = model.ParseRole(raw)
	}

	users, err := h.service.Users(r.Context(), query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	results := make([]adminUserResponse, len(users))
	for i, u := range users {
		results[i] = adminUserResponse{
			ID:        u.ID,
			Email:     u.Email,
			FullName:  u.FullName,
			Role:      string(u.Role),
			Provider:  u.Provider,
			CreatedAt: u.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, results)
}
