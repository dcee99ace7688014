// Package admin は管理画面向けの集計・一覧ロジックを提供する。
package admin

import (
	"context"
	"fmt"

	"github.com/hitoshi/machiba/internal/model"
	"github.com/hitoshi/machiba/internal/repository"
)

// DashboardStats は管理ダッシュボードのカウンタ一式。
type DashboardStats struct {
	Users      int `json:"users"`
	Businesses int `json:"businesses"`
	Listings   int `json:"listings"`
}

// UserListQuery はユーザー一覧の絞り込み・並び替え条件。
type UserListQuery struct {
	Search  string
	Role    model.Role // 空文字で全ロール
	SortKey string
	Desc    bool
}

// AdminService は管理者専用の照会サービス層。
// 呼び出し側でadminロールの確認を済ませていることが前提。
type AdminService struct {
	users      repository.UserRepository
	businesses repository.BusinessRepository
	listings   repository.ListingRepository
}

// NewAdminService はAdminServiceの新しいインスタンスを生成する。
func NewAdminService(
	users repository.UserRepository,
	businesses repository.BusinessRepository,
	listings repository.ListingRepository,
) *AdminService {
	return &AdminService{
		users:      users,
		businesses: businesses,
		listings:   listings,
	}
}

// Dashboard は管理ダッシュボードのカウンタを返す。
func (s *AdminService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	users, err := s.users.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー数の集計に失敗しました: %w", err)
	}
	businesses, err := s.businesses.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("事業者数の集計に失敗しました: %w", err)
	}
	listings, err := s.listings.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("掲載数の集計に失敗しました: %w", err)
	}

	return &DashboardStats{
		Users:      users,
		Businesses: businesses,
		Listings:   listings,
	}, nil
}

// Users は条件に合うユーザー一覧を返す。
// 並び替えキーはリポジトリ側の許可リストで検証される。
func (s *AdminService) Users(ctx context.Context, q UserListQuery) ([]*model.User, error) {
	users, err := s.users.ListForAdmin(ctx, q.Search, q.Role, q.SortKey, q.Desc)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}
