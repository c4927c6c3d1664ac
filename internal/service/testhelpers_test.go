package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/school-admin-api/internal/auth"
	"github.com/noah-isme/school-admin-api/internal/database"
	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/internal/service"
)

var (
	admin   = auth.Identity{ID: "8d7a1f0e-0000-4000-8000-000000000001", Email: "admin@school.test", Name: "Ada Admin", Role: models.RoleAdmin}
	teacher = auth.Identity{ID: "8d7a1f0e-0000-4000-8000-000000000002", Email: "teacher@school.test", Name: "Tom Teacher", Role: models.RoleTeacher}
	parent  = auth.Identity{ID: "8d7a1f0e-0000-4000-8000-000000000003", Email: "parent@school.test", Role: models.RoleParent}
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type recordingPublisher struct {
	entries []dto.ActivityLogResponse
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, entry dto.ActivityLogResponse) error {
	p.entries = append(p.entries, entry)
	return p.err
}

type failingActivityRepo struct{}

func (failingActivityRepo) Create(context.Context, *models.ActivityLog) error {
	return errors.New("audit table unavailable")
}

func (failingActivityRepo) List(context.Context, repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return nil, 0, errors.New("audit table unavailable")
}

// brokenAuditTransactor runs real transactions but fails every audit append.
type brokenAuditTransactor struct {
	db *gorm.DB
}

func (b brokenAuditTransactor) WithinTransaction(ctx context.Context, fn func(stores repository.Stores) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stores := repository.NewStores(tx)
		stores.Activity = failingActivityRepo{}
		return fn(stores)
	})
}

type settingsFixture struct {
	db        *gorm.DB
	activity  service.ActivityService
	security  service.SecuritySettingsService
	visual    service.VisualSettingsService
	publisher *recordingPublisher
}

func newSettingsFixture(t *testing.T, cache *redis.Client) settingsFixture {
	t.Helper()
	db := setupServiceDB(t)
	validate := service.NewValidator()
	publisher := &recordingPublisher{}
	transactor := repository.NewTransactor(db)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), publisher, validate, testLogger())
	return settingsFixture{
		db:        db,
		activity:  activity,
		security:  service.NewSecuritySettingsService(repository.NewSecuritySettingsRepository(db), transactor, activity, validate, testLogger()),
		visual:    service.NewVisualSettingsService(repository.NewVisualSettingsRepository(db), transactor, activity, cache, 0, validate, testLogger()),
		publisher: publisher,
	}
}

func auditEntries(t *testing.T, db *gorm.DB, action string) []models.ActivityLog {
	t.Helper()
	var entries []models.ActivityLog
	require.NoError(t, db.Where("action = ?", action).Order("created_at ASC").Find(&entries).Error)
	return entries
}

func changesOf(t *testing.T, entry models.ActivityLog) json.RawMessage {
	t.Helper()
	var details struct {
		Changes json.RawMessage `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(entry.Details, &details))
	return details.Changes
}

// submitted decodes body the way the handlers do and returns the raw bytes kept for auditing.
func submitted(t *testing.T, body string, out interface{}) json.RawMessage {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), out))
	return json.RawMessage(body)
}
