// Package report derives read-only views from the attendance ledger.
// Every view is a pure function of a ledger snapshot plus the student
// directory; the package holds no state of its own. Records that violate
// the ledger invariants are skipped and counted, never fatal.
package report

import (
	"sort"

	"pool-attendance-backend/internal/model"
	"pool-attendance-backend/internal/parse"
)

// OccupancyPoint is one step of the reconstructed occupancy timeline.
type OccupancyPoint struct {
	Time  string `json:"time"`
	Count int    `json:"count"`
}

// OccupancyTimeline rebuilds the pool headcount over one day from the
// day's records: +1 at each TimeIn, -1 at each closed session's TimeOut,
// running sum clamped at zero so an unmatched Out event can never drive
// the count negative. The second return value counts records whose time
// fields failed to parse.
func OccupancyTimeline(records []model.VisitRecord) ([]OccupancyPoint, int) {
	type event struct {
		at    string
		delta int
	}

	var events []event
	unparseable := 0
	for _, r := range records {
		if _, err := parse.Clock(r.TimeIn); err != nil {
			unparseable++
			continue
		}
		events = append(events, event{at: r.TimeIn, delta: +1})

		if r.Status == model.StatusOut && r.TimeOut != "" {
			if _, err := parse.Clock(r.TimeOut); err != nil {
				unparseable++
				continue
			}
			events = append(events, event{at: r.TimeOut, delta: -1})
		}
	}

	// HH:MM:SS strings sort chronologically; Out before In on ties keeps
	// back-to-back sessions from double counting.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
		return events[i].delta < events[j].delta
	})

	points := make([]OccupancyPoint, 0, len(events))
	count := 0
	for _, e := range events {
		count += e.delta
		if count < 0 {
			count = 0
		}
		points = append(points, OccupancyPoint{Time: e.at, Count: count})
	}
	return points, unparseable
}

// lastRecordPerStudent returns each student's final record of the day.
func lastRecordPerStudent(records []model.VisitRecord) map[string]model.VisitRecord {
	latest := make(map[string]model.VisitRecord)
	for _, r := range records {
		latest[r.StudentID] = r
	}
	return latest
}

// PresentStudent is a student currently in the pool.
type PresentStudent struct {
	StudentID       string `json:"student_id"`
	Name            string `json:"name"`
	TimeIn          string `json:"time_in"`
	DurationMinutes int    `json:"duration_minutes"`
}

// CompletedVisit is a closed session of the day.
type CompletedVisit struct {
	StudentID       string `json:"student_id"`
	Name            string `json:"name"`
	TimeIn          string `json:"time_in"`
	TimeOut         string `json:"time_out"`
	DurationMinutes int    `json:"duration_minutes"`
}

// PoolStatus is the live view of one day: who is in the water, who has
// left, and the day's visit counts.
type PoolStatus struct {
	InPool          []PresentStudent `json:"in_pool"`
	CheckedOut      []CompletedVisit `json:"checked_out"`
	CurrentlyIn     int              `json:"currently_in"`
	CheckedOutCount int              `json:"checked_out_count"`
	TotalVisits     int              `json:"total_visits"`
	Unparseable     int              `json:"unparseable"`
}

// DayStatus derives the live pool view from one day's records. nowClock is
// the current HH:MM:SS used to compute in-progress durations.
func DayStatus(records []model.VisitRecord, nowClock string) PoolStatus {
	status := PoolStatus{
		InPool:     []PresentStudent{},
		CheckedOut: []CompletedVisit{},
	}

	for _, r := range lastRecordPerStudent(records) {
		if r.Status == model.StatusIn {
			mins, err := parse.SessionMinutes(r.TimeIn, nowClock)
			if err != nil {
				status.Unparseable++
				mins = 0
			}
			status.InPool = append(status.InPool, PresentStudent{
				StudentID:       r.StudentID,
				Name:            r.StudentName,
				TimeIn:          r.TimeIn,
				DurationMinutes: mins,
			})
		} else {
			mins, err := parse.SessionMinutes(r.TimeIn, r.TimeOut)
			if err != nil {
				status.Unparseable++
				mins = 0
			}
			status.CheckedOut = append(status.CheckedOut, CompletedVisit{
				StudentID:       r.StudentID,
				Name:            r.StudentName,
				TimeIn:          r.TimeIn,
				TimeOut:         r.TimeOut,
				DurationMinutes: mins,
			})
		}
	}

	sort.Slice(status.InPool, func(i, j int) bool {
		return status.InPool[i].TimeIn < status.InPool[j].TimeIn
	})
	sort.Slice(status.CheckedOut, func(i, j int) bool {
		return status.CheckedOut[i].TimeIn < status.CheckedOut[j].TimeIn
	})

	status.CurrentlyIn = len(status.InPool)
	status.CheckedOutCount = len(status.CheckedOut)
	status.TotalVisits = status.CurrentlyIn + status.CheckedOutCount
	return status
}

// StudentSummary aggregates a single student's full history.
type StudentSummary struct {
	StudentID     string        `json:"student_id"`
	DaysVisited   int           `json:"days_visited"`
	TotalRecords  int           `json:"total_records"`
	TotalMinutes  int           `json:"total_minutes"`
	FirstVisit    string        `json:"first_visit,omitempty"`
	LastVisit     string        `json:"last_visit,omitempty"`
	MonthlyVisits []BucketCount `json:"monthly_visits"`
	Unparseable   int           `json:"unparseable"`
}

// SummarizeStudent computes the per-student rollup: distinct visit days,
// record count, and total minutes across valid closed sessions. Closed
// sessions with malformed or negative times contribute no minutes and are
// tallied as unparseable.
func SummarizeStudent(studentID string, records []model.VisitRecord) StudentSummary {
	summary := StudentSummary{StudentID: studentID, MonthlyVisits: []BucketCount{}}

	days := make(map[string]struct{})
	months := make(map[string]int)
	for _, r := range records {
		summary.TotalRecords++
		days[r.Date] = struct{}{}

		if summary.FirstVisit == "" || r.Date < summary.FirstVisit {
			summary.FirstVisit = r.Date
		}
		if r.Date > summary.LastVisit {
			summary.LastVisit = r.Date
		}

		if d, err := parse.Date(r.Date); err == nil {
			months[parse.MonthBucket(d)]++
		}

		if r.Status == model.StatusOut && r.TimeOut != "" {
			mins, err := parse.SessionMinutes(r.TimeIn, r.TimeOut)
			if err != nil {
				summary.Unparseable++
				continue
			}
			summary.TotalMinutes += mins
		}
	}
	summary.DaysVisited = len(days)
	summary.MonthlyVisits = sortedBuckets(months)
	return summary
}

// BucketCount pairs a calendar bucket key with a count.
type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// Period selects the calendar bucketing for rollups.
type Period string

const (
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
)

// Rollup counts distinct visiting students per calendar bucket across the
// whole snapshot: ISO weeks, year-months, or year-quarters. Records with
// unparseable dates are skipped and counted.
func Rollup(records []model.VisitRecord, period Period) ([]BucketCount, int) {
	seen := make(map[string]map[string]struct{})
	unparseable := 0

	for _, r := range records {
		d, err := parse.Date(r.Date)
		if err != nil {
			unparseable++
			continue
		}

		var bucket string
		switch period {
		case PeriodWeekly:
			bucket = parse.WeekBucket(d)
		case PeriodQuarterly:
			bucket = parse.QuarterBucket(d)
		default:
			bucket = parse.MonthBucket(d)
		}

		if seen[bucket] == nil {
			seen[bucket] = make(map[string]struct{})
		}
		seen[bucket][r.StudentID] = struct{}{}
	}

	counts := make(map[string]int, len(seen))
	for bucket, students := range seen {
		counts[bucket] = len(students)
	}
	return sortedBuckets(counts), unparseable
}

func sortedBuckets(counts map[string]int) []BucketCount {
	out := make([]BucketCount, 0, len(counts))
	for bucket, count := range counts {
		out = append(out, BucketCount{Bucket: bucket, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out
}

// GrowthPoint is one month's unique-visitor count with its month-over-month
// growth. Growth is nil for the first month and whenever the previous
// month's count is zero; clients render nil as N/A.
type GrowthPoint struct {
	Month  string   `json:"month"`
	Count  int      `json:"count"`
	Growth *float64 `json:"growth_pct"`
}

// MonthlyGrowth computes month-over-month growth of unique visitors.
func MonthlyGrowth(records []model.VisitRecord) []GrowthPoint {
	monthly, _ := Rollup(records, PeriodMonthly)

	points := make([]GrowthPoint, 0, len(monthly))
	for i, m := range monthly {
		point := GrowthPoint{Month: m.Bucket, Count: m.Count}
		if i > 0 && monthly[i-1].Count > 0 {
			growth := float64(m.Count-monthly[i-1].Count) / float64(monthly[i-1].Count) * 100
			point.Growth = &growth
		}
		points = append(points, point)
	}
	return points
}

// SchoolCount pairs a school with its unique-visitor count.
type SchoolCount struct {
	SchoolName string `json:"school_name"`
	Count      int    `json:"count"`
}

// Overview is the date-range dashboard of the summary page.
type Overview struct {
	TotalStudents   int64         `json:"total_students"`
	TotalVisits     int           `json:"total_visits"`
	UniqueVisitors  int           `json:"unique_visitors"`
	AvgDailyUnique  float64       `json:"avg_daily_unique"`
	AvgMinutes      float64       `json:"avg_minutes"`
	MaxMinutes      int           `json:"max_minutes"`
	BySchool        []SchoolCount `json:"by_school"`
	Unparseable     int           `json:"unparseable"`
	HasData         bool          `json:"has_data"`
}

// BuildOverview aggregates a range of records against the directory.
// An empty snapshot yields HasData=false rather than an error.
func BuildOverview(records []model.VisitRecord, students []model.Student, totalStudents int64) Overview {
	overview := Overview{TotalStudents: totalStudents, BySchool: []SchoolCount{}}
	if len(records) == 0 {
		return overview
	}
	overview.HasData = true
	overview.TotalVisits = len(records)

	schoolByID := make(map[string]string, len(students))
	for _, s := range students {
		schoolByID[s.StudentID] = s.SchoolName
	}

	visitors := make(map[string]struct{})
	dailyUnique := make(map[string]map[string]struct{})
	schoolVisitors := make(map[string]map[string]struct{})
	closedCount := 0
	totalMinutes := 0

	for _, r := range records {
		visitors[r.StudentID] = struct{}{}

		if dailyUnique[r.Date] == nil {
			dailyUnique[r.Date] = make(map[string]struct{})
		}
		dailyUnique[r.Date][r.StudentID] = struct{}{}

		if school, ok := schoolByID[r.StudentID]; ok && school != "" {
			if schoolVisitors[school] == nil {
				schoolVisitors[school] = make(map[string]struct{})
			}
			schoolVisitors[school][r.StudentID] = struct{}{}
		}

		if r.Status == model.StatusOut && r.TimeOut != "" {
			mins, err := parse.SessionMinutes(r.TimeIn, r.TimeOut)
			if err != nil {
				overview.Unparseable++
				continue
			}
			closedCount++
			totalMinutes += mins
			if mins > overview.MaxMinutes {
				overview.MaxMinutes = mins
			}
		}
	}

	overview.UniqueVisitors = len(visitors)
	if len(dailyUnique) > 0 {
		sum := 0
		for _, ids := range dailyUnique {
			sum += len(ids)
		}
		overview.AvgDailyUnique = float64(sum) / float64(len(dailyUnique))
	}
	if closedCount > 0 {
		overview.AvgMinutes = float64(totalMinutes) / float64(closedCount)
	}

	schoolCounts := make(map[string]int, len(schoolVisitors))
	for school, ids := range schoolVisitors {
		schoolCounts[school] = len(ids)
	}
	for _, bc := range sortedBuckets(schoolCounts) {
		overview.BySchool = append(overview.BySchool, SchoolCount{SchoolName: bc.Bucket, Count: bc.Count})
	}
	sort.Slice(overview.BySchool, func(i, j int) bool {
		if overview.BySchool[i].Count != overview.BySchool[j].Count {
			return overview.BySchool[i].Count > overview.BySchool[j].Count
		}
		return overview.BySchool[i].SchoolName < overview.BySchool[j].SchoolName
	})

	return overview
}

// DayReport is the per-day record view: counts plus present/absent rosters
// joined against the directory.
type DayReport struct {
	Date           string              `json:"date"`
	TotalRecords   int                 `json:"total_records"`
	UniqueStudents int                 `json:"unique_students"`
	CurrentlyIn    int                 `json:"currently_in"`
	Records        []model.VisitRecord `json:"records"`
	Present        []model.Student     `json:"present"`
	Absent         []model.Student     `json:"absent"`
}

// BuildDayReport assembles the daily roster view.
func BuildDayReport(date string, records []model.VisitRecord, students []model.Student) DayReport {
	rep := DayReport{
		Date:    date,
		Records: records,
		Present: []model.Student{},
		Absent:  []model.Student{},
	}
	rep.TotalRecords = len(records)

	present := make(map[string]struct{})
	for _, r := range records {
		present[r.StudentID] = struct{}{}
	}
	rep.UniqueStudents = len(present)

	for _, r := range lastRecordPerStudent(records) {
		if r.Status == model.StatusIn {
			rep.CurrentlyIn++
		}
	}

	for _, s := range students {
		if _, ok := present[s.StudentID]; ok {
			rep.Present = append(rep.Present, s)
		} else {
			rep.Absent = append(rep.Absent, s)
		}
	}
	return rep
}
