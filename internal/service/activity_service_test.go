package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/auth"
	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/apperror"
)

func TestActivityServiceLogRecordsActorAndClient(t *testing.T) {
	fx := newSettingsFixture(t, nil)

	entry, err := fx.activity.Log(context.Background(), teacher, dto.ActivityLogCreateRequest{
		Action:    "  <b>exported</b> grades ",
		Details:   json.RawMessage(`{"classId":"7A"}`),
		IPAddress: "198.51.100.1",
		UserAgent: "supplied-agent",
	}, service.RequestMeta{ForwardedFor: "203.0.113.9, 10.0.0.1", UserAgent: "header-agent"})
	require.NoError(t, err)

	require.NotEmpty(t, entry.ID)
	require.Equal(t, teacher.ID, entry.UserID)
	require.Equal(t, teacher.Email, entry.UserEmail)
	require.Equal(t, "Tom Teacher", entry.UserName)
	require.Equal(t, "exported grades", entry.Action)
	require.Equal(t, "203.0.113.9", entry.IPAddress)
	require.Equal(t, "header-agent", entry.UserAgent)
	require.JSONEq(t, `{"classId":"7A"}`, string(entry.Details))

	require.Len(t, fx.publisher.entries, 1)
	require.Equal(t, entry.ID, fx.publisher.entries[0].ID)
}

func TestActivityServiceLogFallsBackToSuppliedAndUnknown(t *testing.T) {
	fx := newSettingsFixture(t, nil)

	supplied, err := fx.activity.Log(context.Background(), parent, dto.ActivityLogCreateRequest{
		Action:    "login",
		IPAddress: "198.51.100.1",
		UserAgent: "supplied-agent",
	}, service.RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, "198.51.100.1", supplied.IPAddress)
	require.Equal(t, "supplied-agent", supplied.UserAgent)
	require.Equal(t, parent.Email, supplied.UserName)
	require.JSONEq(t, `{}`, string(supplied.Details))

	unknown, err := fx.activity.Log(context.Background(), parent, dto.ActivityLogCreateRequest{Action: "logout"}, service.RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, "unknown", unknown.IPAddress)
	require.Equal(t, "unknown", unknown.UserAgent)

	realIP, err := fx.activity.Log(context.Background(), parent, dto.ActivityLogCreateRequest{Action: "logout", IPAddress: "198.51.100.1"}, service.RequestMeta{RealIP: "192.0.2.4"})
	require.NoError(t, err)
	require.Equal(t, "192.0.2.4", realIP.IPAddress)
}

func TestActivityServiceLogValidation(t *testing.T) {
	fx := newSettingsFixture(t, nil)

	_, err := fx.activity.Log(context.Background(), teacher, dto.ActivityLogCreateRequest{}, service.RequestMeta{})
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = fx.activity.Log(context.Background(), teacher, dto.ActivityLogCreateRequest{Action: "<script></script>"}, service.RequestMeta{})
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = fx.activity.Log(context.Background(), teacher, dto.ActivityLogCreateRequest{Action: "x", Details: json.RawMessage(`{broken`)}, service.RequestMeta{})
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = fx.activity.Log(context.Background(), auth.Identity{}, dto.ActivityLogCreateRequest{Action: "x"}, service.RequestMeta{})
	require.ErrorIs(t, err, apperror.ErrUnauthenticated)

	require.Empty(t, fx.publisher.entries)
}

func TestActivityServicePublishFailureIsNotSurfaced(t *testing.T) {
	fx := newSettingsFixture(t, nil)
	fx.publisher.err = errors.New("nats unavailable")

	entry, err := fx.activity.Log(context.Background(), teacher, dto.ActivityLogCreateRequest{Action: "login"}, service.RequestMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
	require.Len(t, auditEntries(t, fx.db, "login"), 1)
}

func TestActivityServiceLogStorageFailure(t *testing.T) {
	svc := service.NewActivityService(failingActivityRepo{}, nil, service.NewValidator(), testLogger())

	_, err := svc.Log(context.Background(), teacher, dto.ActivityLogCreateRequest{Action: "login"}, service.RequestMeta{})
	require.ErrorIs(t, err, apperror.ErrStorage)
	require.Equal(t, "failed to record activity", apperror.PublicMessage(err, ""))

	_, err = svc.List(context.Background(), admin, dto.ActivityLogListRequest{})
	require.ErrorIs(t, err, apperror.ErrStorage)
}

func seedActivity(t *testing.T, fx settingsFixture, actor auth.Identity, action string, count int) {
	t.Helper()
	repo := repository.NewActivityLogRepository(fx.db)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < count; i++ {
		entry := models.ActivityLog{
			UserID:    actor.ID,
			UserEmail: actor.Email,
			UserName:  actor.DisplayName(),
			Action:    action,
			Details:   []byte(fmt.Sprintf(`{"n":%d}`, i)),
			IPAddress: "unknown",
			UserAgent: "unknown",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(context.Background(), &entry))
	}
}

func TestActivityServiceListScopesNonAdmins(t *testing.T) {
	fx := newSettingsFixture(t, nil)
	seedActivity(t, fx, teacher, "graded_exam", 3)
	seedActivity(t, fx, admin, "security_settings_updated", 2)

	result, err := fx.activity.List(context.Background(), teacher, dto.ActivityLogListRequest{User: admin.Email, Action: "security"})
	require.NoError(t, err)
	require.Len(t, result.Logs, 3)
	for _, entry := range result.Logs {
		require.Equal(t, teacher.ID, entry.UserID)
	}
	require.Equal(t, int64(3), result.Pagination.Total)
	require.Equal(t, dto.DefaultActivityLimit, result.Pagination.Limit)
	require.False(t, result.Pagination.HasMore)
}

func TestActivityServiceListAdminFilters(t *testing.T) {
	fx := newSettingsFixture(t, nil)
	seedActivity(t, fx, teacher, "graded_exam", 3)
	seedActivity(t, fx, admin, "security_settings_updated", 2)

	all, err := fx.activity.List(context.Background(), admin, dto.ActivityLogListRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(5), all.Pagination.Total)
	for i := 1; i < len(all.Logs); i++ {
		require.False(t, all.Logs[i].CreatedAt.After(all.Logs[i-1].CreatedAt))
	}

	byUser, err := fx.activity.List(context.Background(), admin, dto.ActivityLogListRequest{User: "TEACHER@school.test"})
	require.NoError(t, err)
	require.Equal(t, int64(3), byUser.Pagination.Total)

	byAction, err := fx.activity.List(context.Background(), admin, dto.ActivityLogListRequest{Action: "SETTINGS"})
	require.NoError(t, err)
	require.Equal(t, int64(2), byAction.Pagination.Total)
	for _, entry := range byAction.Logs {
		require.Equal(t, "security_settings_updated", entry.Action)
	}
}

func TestActivityServiceListPagination(t *testing.T) {
	fx := newSettingsFixture(t, nil)
	seedActivity(t, fx, admin, "login", 120)

	page, err := fx.activity.List(context.Background(), admin, dto.ActivityLogListRequest{Limit: 50, Offset: 50})
	require.NoError(t, err)
	require.Len(t, page.Logs, 50)
	require.Equal(t, int64(120), page.Pagination.Total)
	require.True(t, page.Pagination.HasMore)

	last, err := fx.activity.List(context.Background(), admin, dto.ActivityLogListRequest{Limit: 50, Offset: 100})
	require.NoError(t, err)
	require.Len(t, last.Logs, 20)
	require.False(t, last.Pagination.HasMore)

	capped, err := fx.activity.List(context.Background(), admin, dto.ActivityLogListRequest{Limit: 10000})
	require.NoError(t, err)
	require.Equal(t, dto.MaxActivityLimit, capped.Pagination.Limit)

	_, err = fx.activity.List(context.Background(), admin, dto.ActivityLogListRequest{Limit: -1})
	require.ErrorIs(t, err, apperror.ErrValidation)
}
