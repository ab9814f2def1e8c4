package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ParseURLID reads a positive integer identifier from the chi URL parameter.
func ParseURLID(r *http.Request, key string) (uint, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is required")
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return uint(value), nil
}
