package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SVan22447/SSD-squad-Hak-remind/internal/database/testutil"
	"github.com/SVan22447/SSD-squad-Hak-remind/internal/store"
)

var testNow = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	store     *store.GormStore
	audit     *AuditService
	teams     *TeamService
	reminders *ReminderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := WithNow(func() time.Time { return testNow })
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	st, err := store.NewGormStore(db, store.WithNow(func() time.Time { return testNow }))
	require.NoError(t, err)
	audit, err := NewAuditService(db, clock)
	require.NoError(t, err)
	teams, err := NewTeamService(st, audit, clock)
	require.NoError(t, err)
	reminders, err := NewReminderService(st, audit, clock)
	require.NoError(t, err)

	return &fixture{db: db, store: st, audit: audit, teams: teams, reminders: reminders}
}

func int64Ptr(v int64) *int64 { return &v }
