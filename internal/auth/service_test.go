package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "storefront",
	ExpirationMinutes: 30,
}

func TestServiceLoginMintsRoleClaim(t *testing.T) {
	password := "admin-secret-1"
	user := &models.User{
		ID:           42,
		Email:        "admin@example.com",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleAdmin,
	}
	repo := &stubUserRepo{user: user}
	svc, err := NewService(ServiceParams{UserRepo: repo, JWTConfig: testJWT})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "  ADMIN@example.com ", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != 42 || claims.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if resp.ExpiresIn != int64((30 * time.Minute).Seconds()) {
		t.Fatalf("expected 1800s expiry, got %d", resp.ExpiresIn)
	}
	if repo.lookedUp != "admin@example.com" {
		t.Fatalf("expected normalized email lookup, got %q", repo.lookedUp)
	}
	if user.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := &models.User{ID: 7, Email: "c@example.com", PasswordHash: mustHashPassword(t, "right-pass-1"), Role: enums.UserRoleCustomer}

	cases := map[string]struct {
		repo     *stubUserRepo
		email    string
		password string
	}{
		"wrong password": {repo: &stubUserRepo{user: user}, email: user.Email, password: "wrong-pass-1"},
		"unknown email":  {repo: &stubUserRepo{err: gorm.ErrRecordNotFound}, email: "nobody@example.com", password: "x"},
		"blank email":    {repo: &stubUserRepo{user: user}, email: "  ", password: "right-pass-1"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, err := NewService(ServiceParams{UserRepo: tc.repo, JWTConfig: testJWT})
			if err != nil {
				t.Fatalf("build service: %v", err)
			}
			_, err = svc.Login(context.Background(), LoginRequest{Email: tc.email, Password: tc.password})
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized error, got %v", err)
			}
		})
	}
}

func TestServiceLoginSurfacesRepositoryFailure(t *testing.T) {
	svc, err := NewService(ServiceParams{UserRepo: &stubUserRepo{err: errors.New("db down")}, JWTConfig: testJWT})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	_, err = svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "whatever1"})
	if !pkgerrors.Is(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestNewServiceValidatesParams(t *testing.T) {
	if _, err := NewService(ServiceParams{JWTConfig: testJWT}); err == nil {
		t.Fatalf("expected error without repository")
	}
	if _, err := NewService(ServiceParams{UserRepo: &stubUserRepo{}}); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user     *models.User
	err      error
	lookedUp string
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.lookedUp = email
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}
