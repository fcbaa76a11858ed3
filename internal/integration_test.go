package internal

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pool-attendance-backend/internal/csvio"
	"pool-attendance-backend/internal/db"
	"pool-attendance-backend/internal/ledger"
	"pool-attendance-backend/internal/model"
	"pool-attendance-backend/internal/report"
	"pool-attendance-backend/internal/store"
)

// TestAttendanceLifecycle walks a full day of pool attendance through the
// real store and ledger: registration, scans across two students, the
// reports built from the resulting records, and a CSV export/import
// round trip.
func TestAttendanceLifecycle(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open("file:lifecycle?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, db.Migrate(testDB))

	appStore := store.NewGormStore(testDB)
	ctx := context.Background()

	svc, err := ledger.NewService(ctx, appStore, time.UTC)
	require.NoError(t, err)

	// --- Registration ---
	amal := model.Student{StudentID: "STU0001", Name: "Amal Perera", SchoolName: "Central College"}
	nimal := model.Student{StudentID: "STU0002", Name: "Nimal Silva", SchoolName: "Royal College"}
	require.NoError(t, appStore.CreateStudent(ctx, &amal))
	require.NoError(t, appStore.CreateStudent(ctx, &nimal))

	// --- A morning at the pool ---
	res, err := svc.RecordScan(ctx, "stu0001")
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionCheckIn, res.Action)

	res, err = svc.RecordScan(ctx, "STU0002")
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionCheckIn, res.Action)

	res, err = svc.RecordScan(ctx, "STU0001")
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionCheckOut, res.Action)

	res, err = svc.RecordScan(ctx, "STU0001")
	require.NoError(t, err)
	assert.Equal(t, ledger.ActionReEntry, res.Action)

	today := svc.Today()
	records, err := appStore.VisitsForDay(ctx, today)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// --- Reports over the day ---
	status := report.DayStatus(records, "23:59:59")
	assert.Equal(t, 2, status.CurrentlyIn) // Amal re-entered, Nimal never left
	assert.Equal(t, 0, status.CheckedOutCount)
	assert.Equal(t, 2, status.TotalVisits)

	points, unparseable := report.OccupancyTimeline(records)
	assert.Zero(t, unparseable)
	require.NotEmpty(t, points)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.Count, 0)
	}

	students, err := appStore.SearchStudents(ctx, "")
	require.NoError(t, err)
	overview := report.BuildOverview(records, students, int64(len(students)))
	assert.Equal(t, 2, overview.UniqueVisitors)
	assert.True(t, overview.HasData)

	// --- CSV round trip ---
	var buf bytes.Buffer
	require.NoError(t, csvio.WriteVisits(&buf, records))

	parsed, skipped, err := csvio.ReadVisits(&buf)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, parsed, 3)
	assert.Equal(t, records[0].StudentID, parsed[0].StudentID)
	assert.Equal(t, records[0].TimeIn, parsed[0].TimeIn)

	require.NoError(t, appStore.ImportVisits(ctx, parsed))
	all, err := appStore.AllVisits(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}
