package follows

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Service manages the follow graph between users.
type Service interface {
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
	ListFollowers(ctx context.Context, userID uint) ([]ConnectionDTO, error)
	ListFollowing(ctx context.Context, userID uint) ([]ConnectionDTO, error)
}

// ConnectionDTO is one entry of a followers or following list.
type ConnectionDTO struct {
	UserID      uint      `json:"user_id"`
	DisplayName string    `json:"display_name"`
	FollowedAt  time.Time `json:"followed_at"`
}

type service struct {
	repo *Repository
}

// NewService builds a follows service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("follows repository required")
	}
	return &service{repo: repo}, nil
}

// Follow is idempotent; following twice leaves a single edge.
func (s *service) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return pkgerrors.Validation("users cannot follow themselves")
	}
	if err := s.ensureUser(ctx, followingID); err != nil {
		return err
	}
	if err := s.repo.Add(ctx, followerID, followingID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "follow user")
	}
	return nil
}

// Unfollow is idempotent; removing a missing edge succeeds.
func (s *service) Unfollow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return pkgerrors.Validation("users cannot follow themselves")
	}
	if err := s.repo.Remove(ctx, followerID, followingID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unfollow user")
	}
	return nil
}

func (s *service) ListFollowers(ctx context.Context, userID uint) ([]ConnectionDTO, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.Followers(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list followers")
	}
	return toDTOs(rows), nil
}

func (s *service) ListFollowing(ctx context.Context, userID uint) ([]ConnectionDTO, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.Following(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list following")
	}
	return toDTOs(rows), nil
}

func (s *service) ensureUser(ctx context.Context, id uint) error {
	exists, err := s.repo.UserExists(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !exists {
		return pkgerrors.NotFound("User not found")
	}
	return nil
}

func toDTOs(rows []Connection) []ConnectionDTO {
	out := make([]ConnectionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ConnectionDTO(row))
	}
	return out
}
