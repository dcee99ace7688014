package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/machiba/internal/model"
	"github.com/hitoshi/machiba/internal/repository"
)

// PasswordService はメールアドレスとパスワードによる認証を担当する。
type PasswordService struct {
	users repository.UserRepository
	cost  int
}

// NewPasswordService は新しいPasswordServiceを生成する。
func NewPasswordService(users repository.UserRepository) *PasswordService {
	return &PasswordService{
		users: users,
		cost:  bcrypt.DefaultCost,
	}
}

// Signup は新規ユーザーを登録する。
// 既存メールアドレスとの衝突時は原則Conflictだが、パスワードが一致する場合に限り
// ロール遷移ポリシー(visitor→businessの昇格のみ)を適用して既存ユーザーを返す。
func (s *PasswordService) Signup(ctx context.Context, email, password, fullName string, role model.Role) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" || strings.TrimSpace(fullName) == "" {
		return nil, model.NewValidationError("email, password and fullName are required")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return s.signupCollision(ctx, existing, password, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// 並行サインアップとの競合。一意制約が最終的な裁定者となる。
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// signupCollision は既存メールアドレスへのサインアップを処理する。
// 本人確認(パスワード一致)なしにロール遷移は適用しない。
func (s *PasswordService) signupCollision(ctx context.Context, existing *model.User, password string, role model.Role) (*model.User, error) {
	if role == existing.Role {
		return nil, model.NewEmailTakenError()
	}
	if !existing.HasPassword() {
		// ソーシャルログイン専用アカウント
		return nil, model.NewEmailTakenError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewEmailTakenError()
	}

	if existing.Role == model.RoleVisitor && role == model.RoleBusiness {
		if err := s.users.UpdateRole(ctx, existing.ID, model.RoleBusiness); err != nil {
			return nil, fmt.Errorf("failed to update user role: %w", err)
		}
		existing.Role = model.RoleBusiness
	}
	// それ以外の組み合わせ(降格を含む)は現在のロールを維持したまま成功させる
	return existing, nil
}

// Login は資格情報を検証し、一致したユーザーを返す。
// 不正なメールアドレスと不正なパスワードは同一のエラーで応答する。
func (s *PasswordService) Login(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, model.NewValidationError("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}
	if !user.HasPassword() {
		return nil, model.NewSocialAccountError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}
	return user, nil
}
