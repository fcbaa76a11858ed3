package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pool-attendance-backend/internal/model"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Student{}, &model.VisitRecord{}))
	return NewGormStore(db)
}

func TestCreateStudentDuplicateIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := model.Student{StudentID: "STU0001", Name: "Amal Perera"}
	require.NoError(t, s.CreateStudent(ctx, &first))

	dup := model.Student{StudentID: "stu0001", Name: "Someone Else"}
	assert.ErrorIs(t, s.CreateStudent(ctx, &dup), ErrDuplicateStudent)

	padded := model.Student{StudentID: "  STU0001  ", Name: "Padded"}
	assert.ErrorIs(t, s.CreateStudent(ctx, &padded), ErrDuplicateStudent)
}

func TestFindStudentMatchingRules(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	student := model.Student{StudentID: "STU0001", Name: "Amal Perera"}
	require.NoError(t, s.CreateStudent(ctx, &student))

	// Trimmed and case-insensitive; the canonical casing comes back.
	found, err := s.FindStudent(ctx, "  stu0001 ")
	require.NoError(t, err)
	assert.Equal(t, "STU0001", found.StudentID)

	_, err = s.FindStudent(ctx, "ZZZ9999")
	assert.ErrorIs(t, err, ErrStudentNotFound)

	_, err = s.FindStudent(ctx, "   ")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestSearchStudents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, st := range []model.Student{
		{StudentID: "STU0002", Name: "Nimal Silva"},
		{StudentID: "STU0001", Name: "Amal Perera"},
		{StudentID: "STU0003", Name: "Kamal Fernando"},
	} {
		st := st
		require.NoError(t, s.CreateStudent(ctx, &st))
	}

	all, err := s.SearchStudents(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "STU0001", all[0].StudentID)

	byName, err := s.SearchStudents(ctx, "amal")
	require.NoError(t, err)
	// Matches Amal and Kamal.
	assert.Len(t, byName, 2)

	byID, err := s.SearchStudents(ctx, "stu0002")
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "Nimal Silva", byID[0].Name)
}

func TestCloseVisit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record := model.VisitRecord{
		StudentID:   "STU0001",
		StudentName: "Amal Perera",
		Date:        "2026-09-01",
		TimeIn:      "09:00:00",
		Status:      model.StatusIn,
	}
	require.NoError(t, s.AppendVisit(ctx, &record))
	require.NotZero(t, record.ID)

	require.NoError(t, s.CloseVisit(ctx, record.ID, "10:00:00"))

	records, err := s.VisitsForStudentDay(ctx, "STU0001", "2026-09-01")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.StatusOut, records[0].Status)
	assert.Equal(t, "10:00:00", records[0].TimeOut)

	// Closing an already closed record fails.
	assert.Error(t, s.CloseVisit(ctx, record.ID, "11:00:00"))
}

func TestVisitQueriesAndOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := []model.VisitRecord{
		{StudentID: "STU0001", StudentName: "Amal", Date: "2026-09-02", TimeIn: "09:00:00", TimeOut: "10:00:00", Status: model.StatusOut},
		{StudentID: "STU0001", StudentName: "Amal", Date: "2026-09-01", TimeIn: "11:00:00", TimeOut: "12:00:00", Status: model.StatusOut},
		{StudentID: "STU0002", StudentName: "Nimal", Date: "2026-09-01", TimeIn: "09:30:00", Status: model.StatusIn},
		{StudentID: "STU0001", StudentName: "Amal", Date: "2026-09-01", TimeIn: "09:00:00", TimeOut: "09:30:00", Status: model.StatusOut},
	}
	for i := range seed {
		require.NoError(t, s.AppendVisit(ctx, &seed[i]))
	}

	all, err := s.AllVisits(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	// Ordered by date then time in.
	assert.Equal(t, "09:00:00", all[0].TimeIn)
	assert.Equal(t, "2026-09-01", all[0].Date)
	assert.Equal(t, "2026-09-02", all[3].Date)

	day, err := s.VisitsForDay(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.Len(t, day, 3)

	student, err := s.VisitsForStudent(ctx, "STU0001")
	require.NoError(t, err)
	assert.Len(t, student, 3)

	window, err := s.VisitsBetween(ctx, "2026-09-02", "2026-09-30")
	require.NoError(t, err)
	assert.Len(t, window, 1)

	open, err := s.OpenVisits(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "STU0002", open[0].StudentID)
}

func TestImportVisits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := []model.VisitRecord{
		{ID: 99, StudentID: "STU0001", StudentName: "Amal", Date: "2026-08-01", TimeIn: "09:00:00", TimeOut: "10:00:00", Status: model.StatusOut},
		{StudentID: "STU0002", StudentName: "Nimal", Date: "2026-08-01", TimeIn: "09:30:00", Status: model.StatusIn},
	}
	require.NoError(t, s.ImportVisits(ctx, batch))

	all, err := s.AllVisits(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Stale IDs from the source file are not preserved.
	assert.NotEqual(t, int64(99), all[0].ID)

	require.NoError(t, s.ImportVisits(ctx, nil))
}
