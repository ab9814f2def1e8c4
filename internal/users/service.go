package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	msgUserNotFound    = "User not found"
	maxDisplayNameLen  = 120
	maxBioLen          = 2000
	maxAvatarURLLength = 512
)

// Service exposes account reads and profile management.
type Service interface {
	Get(ctx context.Context, id uint) (*UserDTO, error)
	UpdateProfile(ctx context.Context, id uint, input UpdateProfileInput) (*UserDTO, error)
	Delete(ctx context.Context, id uint) error
}

// UpdateProfileInput carries optional profile edits. An empty Bio or AvatarURL
// clears the field.
type UpdateProfileInput struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds the user service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Get(ctx context.Context, id uint) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, id uint, input UpdateProfileInput) (*UserDTO, error) {
	if err := validateProfile(input); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLookupErr(err)
		}

		profile := found.Profile
		if profile == nil {
			profile = &models.UserProfile{UserID: found.ID, DisplayName: DefaultDisplayName(found.Email)}
		}
		if input.DisplayName != nil {
			profile.DisplayName = strings.TrimSpace(*input.DisplayName)
		}
		if input.Bio != nil {
			profile.Bio = optionalString(*input.Bio)
		}
		if input.AvatarURL != nil {
			profile.AvatarURL = optionalString(*input.AvatarURL)
		}

		if err := repo.SaveProfile(ctx, profile); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save profile")
		}
		found.Profile = profile
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

// Delete removes the account with its cart, reviews, follows and profile in
// one transaction.
func (s *service) Delete(ctx context.Context, id uint) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
		}
		if affected == 0 {
			return pkgerrors.NotFound(msgUserNotFound)
		}
		return nil
	})
}

func validateProfile(input UpdateProfileInput) error {
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return pkgerrors.Validation("display_name cannot be empty")
		}
		if len(name) > maxDisplayNameLen {
			return pkgerrors.Validation(fmt.Sprintf("display_name must be at most %d characters", maxDisplayNameLen))
		}
	}
	if input.Bio != nil && len(*input.Bio) > maxBioLen {
		return pkgerrors.Validation(fmt.Sprintf("bio must be at most %d characters", maxBioLen))
	}
	if input.AvatarURL != nil && len(*input.AvatarURL) > maxAvatarURLLength {
		return pkgerrors.Validation(fmt.Sprintf("avatar_url must be at most %d characters", maxAvatarURLLength))
	}
	return nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// DefaultDisplayName falls back to the local part of the email address.
func DefaultDisplayName(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound(msgUserNotFound)
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
}
