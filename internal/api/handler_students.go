package api

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"pool-attendance-backend/internal/model"
	"pool-attendance-backend/internal/parse"
	"pool-attendance-backend/internal/store"
)

type registerStudentRequest struct {
	Name       string `json:"name" binding:"required"`
	StudentID  string `json:"student_id"`
	DOB        string `json:"dob" binding:"required"`
	SchoolName string `json:"school_name" binding:"required"`
}

// RegisterStudent creates a directory entry and generates the student's
// entry pass. When no identifier is supplied one is generated. A pass
// generation failure does not fail the registration; the response carries
// a degraded flag and the pass can be fetched again later.
func (h *Handler) RegisterStudent(c *gin.Context) {
	var req registerStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := parse.Date(req.DOB); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dob must be YYYY-MM-DD"})
		return
	}

	student := model.Student{
		Name:         strings.TrimSpace(req.Name),
		StudentID:    strings.TrimSpace(req.StudentID),
		DOB:          req.DOB,
		SchoolName:   strings.TrimSpace(req.SchoolName),
		RegisteredOn: h.ledger.Today(),
	}

	ctx := c.Request.Context()
	if student.StudentID == "" {
		// Generated identifiers can collide; retry a few times before
		// giving up.
		var err error
		for attempt := 0; attempt < 10; attempt++ {
			student.StudentID = fmt.Sprintf("STU%04d", rand.Intn(10000))
			err = h.store.CreateStudent(ctx, &student)
			if !errors.Is(err, store.ErrDuplicateStudent) {
				break
			}
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	} else {
		err := h.store.CreateStudent(ctx, &student)
		if errors.Is(err, store.ErrDuplicateStudent) {
			c.JSON(http.StatusConflict, gin.H{"error": "student id already exists"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	passDegraded := false
	if _, err := h.passes.Generate(student.StudentID, student.Name); err != nil {
		passDegraded = true
	}

	c.JSON(http.StatusCreated, gin.H{
		"student":       student,
		"pass_degraded": passDegraded,
	})
}

// ListStudents returns the directory, optionally filtered by a substring
// of the name or identifier.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.store.SearchStudents(c.Request.Context(), c.Query("query"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students, "count": len(students)})
}

// GetStudent returns a single directory entry.
func (h *Handler) GetStudent(c *gin.Context) {
	student, err := h.store.FindStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStudentLookup(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// GetStudentPass serves the student's pass image, regenerating it when
// missing from disk.
func (h *Handler) GetStudentPass(c *gin.Context) {
	student, err := h.store.FindStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStudentLookup(c, err)
		return
	}

	path := h.passes.Path(student.StudentID)
	if _, err := os.Stat(path); err != nil {
		path, err = h.passes.Generate(student.StudentID, student.Name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate pass"})
			return
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.png", student.StudentID))
	c.File(path)
}
