package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusLegacyFlattensEverything(t *testing.T) {
	for _, err := range []error{Unauthenticated("x"), Forbidden("x"), Validation("x", nil), RateLimited("x"), errors.New("boom")} {
		require.Equal(t, http.StatusInternalServerError, Status(err, true))
	}
}

func TestStatusStrictMapping(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, Status(Unauthenticated("missing authorization header"), false))
	require.Equal(t, http.StatusForbidden, Status(fmt.Errorf("wrapped: %w", Forbidden("admin only")), false))
	require.Equal(t, http.StatusBadRequest, Status(Validation("invalid payload", nil), false))
	require.Equal(t, http.StatusTooManyRequests, Status(RateLimited("too many requests"), false))
	require.Equal(t, http.StatusInternalServerError, Status(Storage("failed", errors.New("db down")), false))
	require.Equal(t, http.StatusInternalServerError, Status(errors.New("boom"), false))
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("handler: %w", Forbidden("admin access required"))
	require.ErrorIs(t, err, ErrForbidden)
	require.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestStorageUnwrapsInternal(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage("failed to load settings", cause)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrStorage)
	require.Equal(t, "failed to load settings: connection refused", err.Error())
}

func TestPublicMessage(t *testing.T) {
	require.Equal(t, "admin access required", PublicMessage(Forbidden("admin access required"), "fallback"))
	require.Equal(t, "fallback", PublicMessage(errors.New("pq: secret detail"), "fallback"))
	require.Equal(t, "internal server error", PublicMessage(errors.New("boom"), ""))
}
