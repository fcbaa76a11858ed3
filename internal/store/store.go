package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"pool-attendance-backend/internal/model"
)

var (
	// ErrStudentNotFound is returned when no directory entry matches a
	// scanned or typed identifier.
	ErrStudentNotFound = errors.New("student not found")
	// ErrDuplicateStudent is returned when registering an identifier that
	// already exists in the directory.
	ErrDuplicateStudent = errors.New("student id already exists")
)

// Store defines the interface for all database operations. The ledger side
// is append-or-close only: visit records are never edited except to close
// the single open session of a student-day, and never deleted.
type Store interface {
	DB() *gorm.DB

	// Directory.
	CreateStudent(ctx context.Context, s *model.Student) error
	FindStudent(ctx context.Context, rawID string) (model.Student, error)
	SearchStudents(ctx context.Context, query string) ([]model.Student, error)
	StudentCount(ctx context.Context) (int64, error)

	// Ledger.
	AppendVisit(ctx context.Context, v *model.VisitRecord) error
	CloseVisit(ctx context.Context, id int64, timeOut string) error
	VisitsForStudentDay(ctx context.Context, studentID, date string) ([]model.VisitRecord, error)
	VisitsForStudent(ctx context.Context, studentID string) ([]model.VisitRecord, error)
	VisitsForDay(ctx context.Context, date string) ([]model.VisitRecord, error)
	VisitsBetween(ctx context.Context, fromDate, toDate string) ([]model.VisitRecord, error)
	AllVisits(ctx context.Context) ([]model.VisitRecord, error)
	OpenVisits(ctx context.Context) ([]model.VisitRecord, error)
	ImportVisits(ctx context.Context, records []model.VisitRecord) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// CreateStudent registers a new profile. The identifier must be unique
// case-insensitively, matching the historical flat-file behavior.
func (s *gormStore) CreateStudent(ctx context.Context, student *model.Student) error {
	student.StudentID = strings.TrimSpace(student.StudentID)
	if student.StudentID == "" {
		return errors.New("student id required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Student{}).
			Where("LOWER(student_id) = ?", strings.ToLower(student.StudentID)).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check for duplicate student: %w", err)
		}
		if count > 0 {
			return ErrDuplicateStudent
		}
		if err := tx.Create(student).Error; err != nil {
			return fmt.Errorf("failed to create student: %w", err)
		}
		return nil
	})
}

// FindStudent resolves a raw scanned identifier to the canonical profile.
// Matching is whitespace-trimmed and case-insensitive; the stored canonical
// casing is what callers use thereafter.
func (s *gormStore) FindStudent(ctx context.Context, rawID string) (model.Student, error) {
	id := strings.TrimSpace(rawID)
	if id == "" {
		return model.Student{}, ErrStudentNotFound
	}

	var student model.Student
	err := s.db.WithContext(ctx).
		Where("LOWER(student_id) = ?", strings.ToLower(id)).
		First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Student{}, ErrStudentNotFound
	}
	if err != nil {
		return model.Student{}, fmt.Errorf("failed to look up student %q: %w", id, err)
	}
	return student, nil
}

// SearchStudents returns profiles whose name or identifier contains the
// query substring, or every profile when the query is empty.
func (s *gormStore) SearchStudents(ctx context.Context, query string) ([]model.Student, error) {
	tx := s.db.WithContext(ctx).Order("student_id")
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(student_id) LIKE ?", like, like)
	}

	var students []model.Student
	if err := tx.Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to search students: %w", err)
	}
	return students, nil
}

func (s *gormStore) StudentCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Student{}).Count(&count).Error
	return count, err
}

// AppendVisit adds a new record to the end of the ledger.
func (s *gormStore) AppendVisit(ctx context.Context, v *model.VisitRecord) error {
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("failed to append visit record: %w", err)
	}
	return nil
}

// CloseVisit mutates the open record in place: sets TimeOut and flips the
// status to Out. This is the only permitted edit of a persisted record.
func (s *gormStore) CloseVisit(ctx context.Context, id int64, timeOut string) error {
	res := s.db.WithContext(ctx).Model(&model.VisitRecord{}).
		Where("id = ? AND status = ?", id, model.StatusIn).
		Updates(map[string]any{"time_out": timeOut, "status": model.StatusOut})
	if res.Error != nil {
		return fmt.Errorf("failed to close visit %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("visit %d is not open", id)
	}
	return nil
}

func (s *gormStore) VisitsForStudentDay(ctx context.Context, studentID, date string) ([]model.VisitRecord, error) {
	return s.findVisits(ctx, s.db.Where("student_id = ? AND date = ?", studentID, date))
}

func (s *gormStore) VisitsForStudent(ctx context.Context, studentID string) ([]model.VisitRecord, error) {
	return s.findVisits(ctx, s.db.Where("student_id = ?", studentID))
}

func (s *gormStore) VisitsForDay(ctx context.Context, date string) ([]model.VisitRecord, error) {
	return s.findVisits(ctx, s.db.Where("date = ?", date))
}

func (s *gormStore) VisitsBetween(ctx context.Context, fromDate, toDate string) ([]model.VisitRecord, error) {
	return s.findVisits(ctx, s.db.Where("date >= ? AND date <= ?", fromDate, toDate))
}

func (s *gormStore) AllVisits(ctx context.Context) ([]model.VisitRecord, error) {
	return s.findVisits(ctx, s.db)
}

// OpenVisits returns every open session, oldest first. Used to rebuild the
// ledger's open-session index on startup and to surface dangling sessions.
func (s *gormStore) OpenVisits(ctx context.Context) ([]model.VisitRecord, error) {
	return s.findVisits(ctx, s.db.Where("status = ?", model.StatusIn))
}

// findVisits applies the canonical ledger ordering: date, then time in,
// then insertion order as the tiebreaker.
func (s *gormStore) findVisits(ctx context.Context, tx *gorm.DB) ([]model.VisitRecord, error) {
	var records []model.VisitRecord
	err := tx.WithContext(ctx).
		Order("date ASC, time_in ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load visit records: %w", err)
	}
	return records, nil
}

// ImportVisits appends a batch of historical records in one transaction,
// preserving their order. Used by the CSV interchange adapter.
func (s *gormStore) ImportVisits(ctx context.Context, records []model.VisitRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range records {
			records[i].ID = 0
			if err := tx.Create(&records[i]).Error; err != nil {
				return fmt.Errorf("failed to import visit record %d: %w", i, err)
			}
		}
		return nil
	})
}
