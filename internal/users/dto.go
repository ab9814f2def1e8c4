package users

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uint        `json:"id"`
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	Profile     *ProfileDTO `json:"profile,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type ProfileDTO struct {
	DisplayName string  `json:"display_name"`
	Bio         *string `json:"bio,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Role         enums.UserRole
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role.String(),
		LastLoginAt: u.LastLoginAt,
		Profile:     profileFromModel(u.Profile),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func profileFromModel(p *models.UserProfile) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.UserRoleCustomer
	}
	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         role,
	}
}
