package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/machiba/internal/model"
)

// uniqueViolation はPostgreSQLのユニーク制約違反のSQLSTATE。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, email, full_name, role, COALESCE(password, ''),
	COALESCE(provider, ''), COALESCE(provider_user_id, ''), COALESCE(avatar_url, ''),
	created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	var role string
	err := row.Scan(
		&user.ID, &user.Email, &user.FullName, &role, &user.PasswordHash,
		&user.Provider, &user.ProviderUserID, &user.AvatarURL,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = model.ParseRole(role)
	return user, nil
}

// FindByEmail は指定emailのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// Create はユーザーを作成する。
// emailのユニーク制約違反の場合はErrDuplicateEmailを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, role, password, provider, provider_user_id, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10)`,
		user.ID, user.Email, user.FullName, string(user.Role), user.PasswordHash,
		user.Provider, user.ProviderUserID, user.AvatarURL,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdateRole は指定ユーザーのロールを更新する。
func (r *PostgresUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = now() WHERE id = $2`,
		string(role), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// UpdateProviderProfile はOAuth再ログイン時にプロバイダー紐付け情報を更新する。
// 空文字の引数は該当カラムを変更しない。
func (r *PostgresUserRepo) UpdateProviderProfile(ctx context.Context, id, provider, providerUserID, avatarURL string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET
		   provider = COALESCE(NULLIF($1, ''), provider),
		   provider_user_id = COALESCE(NULLIF($2, ''), provider_user_id),
		   avatar_url = COALESCE(NULLIF($3, ''), avatar_url),
		   updated_at = now()
		 WHERE id = $4`,
		provider, providerUserID, avatarURL, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update provider profile: %w", err)
	}
	return nil
}

// ListForAdmin は管理画面用のユーザー一覧を返す。
func (r *PostgresUserRepo) ListForAdmin(ctx context.Context, search string, role model.Role, sortKey string, desc bool) ([]*model.User, error) {
	// ソートキーは許可リストで固定し、SQLに直接埋め込まない
	orderCol := "created_at"
	switch sortKey {
	case "email":
		orderCol = "email"
	case "full_name":
		orderCol = "full_name"
	case "role":
		orderCol = "role"
	}
	direction := "ASC"
	if desc {
		direction = "DESC"
	}

	query := `SELECT ` + userColumns + ` FROM users
		 WHERE ($1 = '' OR full_name ILIKE '%' || $1 || '%')
		   AND ($2 = '' OR role = $2)
		 ORDER BY ` + orderCol + ` ` + direction

	roleFilter := ""
	if role != "" {
		roleFilter = string(role)
	}

	rows, err := r.db.QueryContext(ctx, query, search, roleFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user := &model.User{}
		var roleStr string
		if err := rows.Scan(
			&user.ID, &user.Email, &user.FullName, &roleStr, &user.PasswordHash,
			&user.Provider, &user.ProviderUserID, &user.AvatarURL,
			&user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Role = model.ParseRole(roleStr)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// CountAll は全ユーザー数を返す。
func (r *PostgresUserRepo) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
