package repository

import (
	"testing"
)

// 各Postgres実装が対応するインターフェースを満たすことを検証

func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

func TestPostgresBusinessRepo_ImplementsInterface(t *testing.T) {
	var _ BusinessRepository = (*PostgresBusinessRepo)(nil)
}

func TestPostgresPlanRepo_ImplementsInterface(t *testing.T) {
	var _ PlanRepository = (*PostgresPlanRepo)(nil)
}

func TestPostgresListingRepo_ImplementsInterface(t *testing.T) {
	var _ ListingRepository = (*PostgresListingRepo)(nil)
}

func TestPostgresBookingRepo_ImplementsInterface(t *testing.T) {
	var _ BookingRepository = (*PostgresBookingRepo)(nil)
}

func TestPostgresReviewRepo_ImplementsInterface(t *testing.T) {
	var _ ReviewRepository = (*PostgresReviewRepo)(nil)
}

// コンストラクタが正しく初期化されることを検証

func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestNewPostgresBusinessRepo_Initializes(t *testing.T) {
	if NewPostgresBusinessRepo(nil) == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestNewPostgresListingRepo_Initializes(t *testing.T) {
	if NewPostgresListingRepo(nil) == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestNewPostgresBookingRepo_Initializes(t *testing.T) {
	if NewPostgresBookingRepo(nil) == nil {
		t.Fatal("expected non-nil repo")
	}
}

func TestNewPostgresReviewRepo_Initializes(t *testing.T) {
	if NewPostgresReviewRepo(nil) == nil {
		t.Fatal("expected non-nil repo")
	}
}
