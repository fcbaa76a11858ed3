package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pool-attendance-backend/internal/model"
	"pool-attendance-backend/internal/parse"
	"pool-attendance-backend/internal/report"
)

// dateParam reads the date query parameter, defaulting to today.
func (h *Handler) dateParam(c *gin.Context) (string, bool) {
	date := c.Query("date")
	if date == "" {
		return h.ledger.Today(), true
	}
	if _, err := parse.Date(date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return "", false
	}
	return date, true
}

func (h *Handler) nowClock() string {
	return time.Now().In(h.cfg.Location()).Format(parse.ClockLayout)
}

// rangeVisits loads records for an optional from/to window, or the whole
// ledger when neither is given.
func (h *Handler) rangeVisits(c *gin.Context) ([]model.VisitRecord, bool) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		records, err := h.store.AllVisits(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return nil, false
		}
		return records, true
	}

	if from == "" {
		from = "0000-01-01"
	} else if _, err := parse.Date(from); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return nil, false
	}
	if to == "" {
		to = "9999-12-31"
	} else if _, err := parse.Date(to); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return nil, false
	}

	records, err := h.store.VisitsBetween(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return records, true
}

// GetDayReport returns the daily attendance report: who came, who is still
// in, and who never showed up.
func (h *Handler) GetDayReport(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	records, err := h.store.VisitsForDay(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	students, err := h.store.SearchStudents(c.Request.Context(), "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rep := report.BuildDayReport(date, records, students)
	status := report.DayStatus(records, h.nowClock())
	c.JSON(http.StatusOK, gin.H{"report": rep, "status": status})
}

// GetOccupancyReport returns the occupancy timeline for one day.
func (h *Handler) GetOccupancyReport(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	records, err := h.store.VisitsForDay(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	points, unparseable := report.OccupancyTimeline(records)
	c.JSON(http.StatusOK, gin.H{
		"date":        date,
		"timeline":    points,
		"unparseable": unparseable,
	})
}

// GetStudentReport returns one student's visit history and summary.
func (h *Handler) GetStudentReport(c *gin.Context) {
	student, err := h.store.FindStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStudentLookup(c, err)
		return
	}

	records, err := h.store.VisitsForStudent(c.Request.Context(), student.StudentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summary := report.SummarizeStudent(student.StudentID, records)
	c.JSON(http.StatusOK, gin.H{
		"student": student,
		"summary": summary,
		"records": records,
	})
}

// GetOverviewReport returns facility-wide statistics over an optional
// date window.
func (h *Handler) GetOverviewReport(c *gin.Context) {
	records, ok := h.rangeVisits(c)
	if !ok {
		return
	}

	students, err := h.store.SearchStudents(c.Request.Context(), "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	total, err := h.store.StudentCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report.BuildOverview(records, students, total))
}

// GetRollupReport returns distinct-visitor counts bucketed by ISO week,
// month or quarter.
func (h *Handler) GetRollupReport(c *gin.Context) {
	period := report.Period(c.DefaultQuery("period", string(report.PeriodMonthly)))
	switch period {
	case report.PeriodWeekly, report.PeriodMonthly, report.PeriodQuarterly:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "period must be weekly, monthly or quarterly"})
		return
	}

	records, ok := h.rangeVisits(c)
	if !ok {
		return
	}

	buckets, unparseable := report.Rollup(records, period)
	c.JSON(http.StatusOK, gin.H{
		"period":      period,
		"buckets":     buckets,
		"unparseable": unparseable,
	})
}

// GetGrowthReport returns month-over-month growth of distinct visitors.
// Growth is null for the first month and after a zero-visitor month.
func (h *Handler) GetGrowthReport(c *gin.Context) {
	records, ok := h.rangeVisits(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": report.MonthlyGrowth(records)})
}

// GetDiagnostics surfaces ledger anomalies: sessions left open on
// previous days and how many records reports had to skip.
func (h *Handler) GetDiagnostics(c *gin.Context) {
	dangling, err := h.ledger.DanglingSessions(c.Request.Context(), h.ledger.Today())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	records, err := h.store.AllVisits(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	_, unparseable := report.OccupancyTimeline(records)

	c.JSON(http.StatusOK, gin.H{
		"dangling_sessions":   dangling,
		"dangling_count":      len(dangling),
		"unparseable_records": unparseable,
		"total_records":       len(records),
	})
}
