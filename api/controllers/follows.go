package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/follows"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// FollowUser makes the caller follow {userId}.
func FollowUser(svc follows.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		followerID, targetID, err := followPair(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Follow(r.Context(), followerID, targetID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, "Followed")
	}
}

// UnfollowUser removes the caller's follow of {userId}. Repeated calls succeed.
func UnfollowUser(svc follows.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		followerID, targetID, err := followPair(r, svc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Unfollow(r.Context(), followerID, targetID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, "Unfollowed")
	}
}

func ListFollowers(svc follows.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("follow service unavailable", logg)
	}
	return listConnections(svc.ListFollowers, logg)
}

func ListFollowing(svc follows.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("follow service unavailable", logg)
	}
	return listConnections(svc.ListFollowing, logg)
}

func listConnections(list func(ctx context.Context, userID uint) ([]follows.ConnectionDTO, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseURLID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := list(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

func unavailable(message string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, message))
	}
}

func followPair(r *http.Request, svc follows.Service) (uint, uint, error) {
	if svc == nil {
		return 0, 0, pkgerrors.New(pkgerrors.CodeInternal, "follow service unavailable")
	}
	callerID := middleware.UserIDFromContext(r.Context())
	if callerID == 0 {
		return 0, 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	targetID, err := validators.ParseURLID(r, "userId")
	if err != nil {
		return 0, 0, err
	}
	return callerID, targetID, nil
}
