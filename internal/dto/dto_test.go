package dto

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/school-admin-api/internal/models"
)

func TestNewPaginationMetaHasMore(t *testing.T) {
	cases := []struct {
		total   int64
		limit   int
		offset  int
		hasMore bool
	}{
		{total: 120, limit: 50, offset: 0, hasMore: true},
		{total: 120, limit: 50, offset: 50, hasMore: true},
		{total: 120, limit: 50, offset: 100, hasMore: false},
		{total: 100, limit: 50, offset: 50, hasMore: false},
		{total: 0, limit: 50, offset: 0, hasMore: false},
	}

	for _, tc := range cases {
		meta := NewPaginationMeta(tc.total, tc.limit, tc.offset)
		require.Equal(t, tc.hasMore, meta.HasMore, "total=%d limit=%d offset=%d", tc.total, tc.limit, tc.offset)
	}
}

func TestNewActivityLogResponseDefaultsDetails(t *testing.T) {
	response := NewActivityLogResponse(models.ActivityLog{ID: "a", Action: "login"})
	require.JSONEq(t, `{}`, string(response.Details))

	response = NewActivityLogResponse(models.ActivityLog{Details: datatypes.JSON(`{"k":1}`)})
	require.JSONEq(t, `{"k":1}`, string(response.Details))
}

func TestNewVisualSettingsResponseSource(t *testing.T) {
	userID := "u-1"
	personal := NewVisualSettingsResponse(models.VisualSettings{UserID: &userID})
	require.Equal(t, VisualSourcePersonal, personal.Source)
	require.NotNil(t, personal.Settings)

	global := NewVisualSettingsResponse(models.VisualSettings{IsGlobal: true})
	require.Equal(t, VisualSourceGlobal, global.Source)
}
