package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pool-attendance-backend/internal/model"
)

func closedVisit(studentID, date, timeIn, timeOut string) model.VisitRecord {
	return model.VisitRecord{
		StudentID:   studentID,
		StudentName: "Student " + studentID,
		Date:        date,
		TimeIn:      timeIn,
		TimeOut:     timeOut,
		Status:      model.StatusOut,
	}
}

func openVisit(studentID, date, timeIn string) model.VisitRecord {
	return model.VisitRecord{
		StudentID:   studentID,
		StudentName: "Student " + studentID,
		Date:        date,
		TimeIn:      timeIn,
		Status:      model.StatusIn,
	}
}

func TestOccupancyTimeline(t *testing.T) {
	records := []model.VisitRecord{
		closedVisit("STU0001", "2026-09-01", "09:00:00", "10:00:00"),
		closedVisit("STU0002", "2026-09-01", "09:30:00", "11:00:00"),
		openVisit("STU0003", "2026-09-01", "10:30:00"),
	}

	points, unparseable := OccupancyTimeline(records)
	require.Len(t, points, 5)
	assert.Zero(t, unparseable)

	counts := make([]int, len(points))
	for i, p := range points {
		counts[i] = p.Count
	}
	// 09:00 in, 09:30 in, 10:00 out, 10:30 in, 11:00 out
	assert.Equal(t, []int{1, 2, 1, 2, 1}, counts)
}

func TestOccupancyTimelineNeverNegative(t *testing.T) {
	// An Out event with no matching prior In must clamp at zero.
	records := []model.VisitRecord{
		closedVisit("STU0001", "2026-09-01", "08:00:00", "08:05:00"),
	}
	// Corrupt the record so the Out lands before the In.
	records[0].TimeIn = "09:00:00"
	records[0].TimeOut = "08:05:00"

	points, _ := OccupancyTimeline(records)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.Count, 0)
	}
}

func TestOccupancyTimelineSkipsUnparseable(t *testing.T) {
	records := []model.VisitRecord{
		closedVisit("STU0001", "2026-09-01", "garbage", "10:00:00"),
		closedVisit("STU0002", "2026-09-01", "09:00:00", "10:00:00"),
	}

	points, unparseable := OccupancyTimeline(records)
	assert.Equal(t, 1, unparseable)
	require.Len(t, points, 2)
}

func TestOccupancyTimelineEmptyLedger(t *testing.T) {
	points, unparseable := OccupancyTimeline(nil)
	assert.Empty(t, points)
	assert.Zero(t, unparseable)
}

func TestDayStatus(t *testing.T) {
	records := []model.VisitRecord{
		closedVisit("STU0001", "2026-09-01", "09:00:00", "09:45:00"),
		openVisit("STU0001", "2026-09-01", "10:00:00"), // re-entry, still in
		closedVisit("STU0002", "2026-09-01", "09:10:00", "10:10:00"),
	}

	status := DayStatus(records, "10:30:00")
	assert.Equal(t, 1, status.CurrentlyIn)
	assert.Equal(t, 1, status.CheckedOutCount)
	assert.Equal(t, 2, status.TotalVisits)

	require.Len(t, status.InPool, 1)
	assert.Equal(t, "STU0001", status.InPool[0].StudentID)
	assert.Equal(t, 30, status.InPool[0].DurationMinutes)

	require.Len(t, status.CheckedOut, 1)
	assert.Equal(t, "STU0002", status.CheckedOut[0].StudentID)
	assert.Equal(t, 60, status.CheckedOut[0].DurationMinutes)
}

func TestSummarizeStudent(t *testing.T) {
	records := []model.VisitRecord{
		closedVisit("STU0001", "2026-08-30", "09:00:00", "09:45:00"),
		closedVisit("STU0001", "2026-08-30", "11:00:00", "11:30:00"),
		closedVisit("STU0001", "2026-09-01", "09:00:00", "10:00:00"),
		openVisit("STU0001", "2026-09-02", "09:00:00"),
	}

	summary := SummarizeStudent("STU0001", records)
	assert.Equal(t, 3, summary.DaysVisited)
	assert.Equal(t, 4, summary.TotalRecords)
	assert.Equal(t, 45+30+60, summary.TotalMinutes)
	assert.Equal(t, "2026-08-30", summary.FirstVisit)
	assert.Equal(t, "2026-09-02", summary.LastVisit)
	assert.Zero(t, summary.Unparseable)

	assert.Equal(t, []BucketCount{
		{Bucket: "2026-08", Count: 2},
		{Bucket: "2026-09", Count: 2},
	}, summary.MonthlyVisits)
}

func TestSummarizeStudentExcludesNegativeDurations(t *testing.T) {
	records := []model.VisitRecord{
		closedVisit("STU0001", "2026-09-01", "10:00:00", "09:00:00"), // corrupt
		closedVisit("STU0001", "2026-09-01", "11:00:00", "11:30:00"),
	}

	summary := SummarizeStudent("STU0001", records)
	assert.Equal(t, 30, summary.TotalMinutes)
	assert.Equal(t, 1, summary.Unparseable)
}

func TestRollup(t *testing.T) {
	records := []model.VisitRecord{
		closedVisit("STU0001", "2026-08-05", "09:00:00", "10:00:00"),
		closedVisit("STU0002", "2026-08-05", "09:00:00", "10:00:00"),
		closedVisit("STU0001", "2026-08-06", "09:00:00", "10:00:00"), // same student, same month
		closedVisit("STU0001", "2026-09-01", "09:00:00", "10:00:00"),
	}

	monthly, unparseable := Rollup(records, PeriodMonthly)
	assert.Zero(t, unparseable)
	assert.Equal(t, []BucketCount{
		{Bucket: "2026-08", Count: 2},
		{Bucket: "2026-09", Count: 1},
	}, monthly)

	quarterly, _ := Rollup(records, PeriodQuarterly)
	assert.Equal(t, []BucketCount{{Bucket: "2026-Q3", Count: 2}}, quarterly)

	weekly, _ := Rollup(records, PeriodWeekly)
	// 2026-08-05/06 fall in ISO week 32, 2026-09-01 in week 36.
	assert.Equal(t, []BucketCount{
		{Bucket: "2026-W32", Count: 2},
		{Bucket: "2026-W36", Count: 1},
	}, weekly)
}

func TestRollupCountsUnparseableDates(t *testing.T) {
	records := []model.VisitRecord{
		closedVisit("STU0001", "not-a-date", "09:00:00", "10:00:00"),
		closedVisit("STU0002", "2026-09-01", "09:00:00", "10:00:00"),
	}

	monthly, unparseable := Rollup(records, PeriodMonthly)
	assert.Equal(t, 1, unparseable)
	assert.Equal(t, []BucketCount{{Bucket: "2026-09", Count: 1}}, monthly)
}

func TestMonthlyGrowth(t *testing.T) {
	var records []model.VisitRecord
	for i := 0; i < 10; i++ {
		records = append(records, closedVisit(studentID(i), "2026-07-10", "09:00:00", "10:00:00"))
	}
	for i := 0; i < 15; i++ {
		records = append(records, closedVisit(studentID(i), "2026-08-10", "09:00:00", "10:00:00"))
	}

	points := MonthlyGrowth(records)
	require.Len(t, points, 2)

	assert.Nil(t, points[0].Growth) // no prior month
	require.NotNil(t, points[1].Growth)
	assert.InDelta(t, 50.0, *points[1].Growth, 0.001)
}

func TestMonthlyGrowthUndefinedOnZeroBase(t *testing.T) {
	// A month can only appear in the rollup with at least one record, so a
	// zero base arises from a prior month whose records all belong to
	// other buckets; simulate it directly through consecutive months where
	// the earlier month has zero count after filtering.
	records := []model.VisitRecord{
		closedVisit("STU0001", "2026-08-10", "09:00:00", "10:00:00"),
	}
	points := MonthlyGrowth(records)
	require.Len(t, points, 1)
	assert.Nil(t, points[0].Growth)
}

func TestBuildOverview(t *testing.T) {
	students := []model.Student{
		{StudentID: "STU0001", Name: "Amal", SchoolName: "Central College"},
		{StudentID: "STU0002", Name: "Nimal", SchoolName: "Royal College"},
		{StudentID: "STU0003", Name: "Kamal", SchoolName: "Central College"},
	}
	records := []model.VisitRecord{
		closedVisit("STU0001", "2026-09-01", "09:00:00", "10:00:00"),
		closedVisit("STU0002", "2026-09-01", "09:00:00", "09:30:00"),
		closedVisit("STU0001", "2026-09-02", "09:00:00", "10:30:00"),
	}

	overview := BuildOverview(records, students, 3)
	assert.True(t, overview.HasData)
	assert.Equal(t, int64(3), overview.TotalStudents)
	assert.Equal(t, 3, overview.TotalVisits)
	assert.Equal(t, 2, overview.UniqueVisitors)
	assert.InDelta(t, 1.5, overview.AvgDailyUnique, 0.001) // 2 on day one, 1 on day two
	assert.InDelta(t, 60.0, overview.AvgMinutes, 0.001)
	assert.Equal(t, 90, overview.MaxMinutes)

	assert.Equal(t, []SchoolCount{
		{SchoolName: "Central College", Count: 1},
		{SchoolName: "Royal College", Count: 1},
	}, overview.BySchool)
}

func TestBuildOverviewEmptyLedger(t *testing.T) {
	overview := BuildOverview(nil, nil, 0)
	assert.False(t, overview.HasData)
	assert.Zero(t, overview.TotalVisits)
}

func TestBuildDayReport(t *testing.T) {
	students := []model.Student{
		{StudentID: "STU0001", Name: "Amal"},
		{StudentID: "STU0002", Name: "Nimal"},
		{StudentID: "STU0003", Name: "Kamal"},
	}
	records := []model.VisitRecord{
		closedVisit("STU0001", "2026-09-01", "09:00:00", "10:00:00"),
		openVisit("STU0002", "2026-09-01", "09:30:00"),
	}

	rep := BuildDayReport("2026-09-01", records, students)
	assert.Equal(t, 2, rep.TotalRecords)
	assert.Equal(t, 2, rep.UniqueStudents)
	assert.Equal(t, 1, rep.CurrentlyIn)
	require.Len(t, rep.Present, 2)
	require.Len(t, rep.Absent, 1)
	assert.Equal(t, "STU0003", rep.Absent[0].StudentID)
}

func studentID(i int) string {
	const digits = "0123456789"
	return "STU00" + string(digits[i/10]) + string(digits[i%10])
}
