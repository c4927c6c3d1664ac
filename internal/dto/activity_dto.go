package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// Activity log pagination defaults.
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 500
)

// PaginationMeta describes an offset-paginated result.
type PaginationMeta struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// NewPaginationMeta computes hasMore as total > offset + limit.
func NewPaginationMeta(total int64, limit, offset int) PaginationMeta {
	return PaginationMeta{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: total > int64(offset)+int64(limit),
	}
}

// ActivityLogListRequest carries the get-activity-logs query parameters.
type ActivityLogListRequest struct {
	Limit  int
	Offset int
	Action string
	User   string
}

// ActivityLogCreateRequest is the log-activity body.
type ActivityLogCreateRequest struct {
	Action    string          `json:"action" validate:"required,max=255"`
	Details   json.RawMessage `json:"details,omitempty"`
	UserAgent string          `json:"userAgent,omitempty" validate:"max=512"`
	IPAddress string          `json:"ipAddress,omitempty" validate:"max=64"`
}

// ActivityLogResponse serializes an audit entry.
type ActivityLogResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	UserEmail string          `json:"userEmail"`
	UserName  string          `json:"userName"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details"`
	IPAddress string          `json:"ipAddress"`
	UserAgent string          `json:"userAgent"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ActivityLogListResponse is the get-activity-logs payload.
type ActivityLogListResponse struct {
	Logs       []ActivityLogResponse `json:"logs"`
	Pagination PaginationMeta        `json:"pagination"`
}

// NewActivityLogResponse converts a model into an activity DTO.
func NewActivityLogResponse(entry models.ActivityLog) ActivityLogResponse {
	details := json.RawMessage(entry.Details)
	if len(details) == 0 {
		details = json.RawMessage("{}")
	}

	return ActivityLogResponse{
		ID:        entry.ID,
		UserID:    entry.UserID,
		UserEmail: entry.UserEmail,
		UserName:  entry.UserName,
		Action:    entry.Action,
		Details:   details,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		CreatedAt: entry.CreatedAt,
	}
}
