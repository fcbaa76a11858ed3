package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pool-attendance-backend/internal/csvio"
)

// ExportStudents streams the directory as CSV in its canonical layout.
func (h *Handler) ExportStudents(c *gin.Context) {
	students, err := h.store.SearchStudents(c.Request.Context(), "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=students.csv")
	if err := csvio.WriteStudents(c.Writer, students); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// ExportAttendance streams the full ledger as CSV, optionally windowed by
// from/to dates.
func (h *Handler) ExportAttendance(c *gin.Context) {
	records, ok := h.rangeVisits(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=attendance.csv")
	if err := csvio.WriteVisits(c.Writer, records); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// ExportDay streams one day's records with the derived duration column.
func (h *Handler) ExportDay(c *gin.Context) {
	date, ok := h.dateParam(c)
	if !ok {
		return
	}

	records, err := h.store.VisitsForDay(c.Request.Context(), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=attendance_%s.csv", date))
	if err := csvio.WriteDayVisits(c.Writer, records); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// ImportAttendance loads historical ledger records from an uploaded CSV
// file. Malformed rows are skipped and counted, matching how the
// flat-file era tooling behaved.
func (h *Handler) ImportAttendance(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	records, skipped, err := csvio.ReadVisits(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.ImportVisits(c.Request.Context(), records); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Imported rows can include open sessions the scan index has never
	// seen.
	if err := h.ledger.ReloadIndex(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imported": len(records),
		"skipped":  skipped,
	})
}
