package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pool-attendance-backend/internal/model"
	"pool-attendance-backend/internal/parse"
	"pool-attendance-backend/internal/store"
)

// Action describes the effect a scan had on the ledger.
type Action string

const (
	ActionCheckIn  Action = "check_in"
	ActionCheckOut Action = "check_out"
	ActionReEntry  Action = "re_entry"
)

// Status is a student's current state for a given day.
type Status string

const (
	StatusIn       Status = "In"
	StatusOut      Status = "Out"
	StatusNoRecord Status = "NoRecord"
)

// ScanResult reports the outcome of a single scan.
type ScanResult struct {
	Student model.Student     `json:"student"`
	Record  model.VisitRecord `json:"record"`
	Action  Action            `json:"action"`
	Message string            `json:"message"`
}

// Service owns all mutation of the attendance ledger. Every scan runs the
// same two-state machine per (student, day): no record yet or last record
// Out means the scan opens a session; last record In means it closes it.
//
// Mutations are serialized behind a single mutex so that concurrent scans
// from multiple stations cannot interleave their read-modify-write cycles.
type Service struct {
	mu    sync.Mutex
	store store.Store
	loc   *time.Location

	// open maps studentID+"\x00"+date to the ID of that student-day's open
	// record, rebuilt from the store on startup and maintained on each
	// scan. Gives O(1) scan handling instead of tail-of-filter matching.
	open map[string]int64

	now func() time.Time
}

// NewService creates a ledger service and rebuilds the open-session index
// from the persisted records.
func NewService(ctx context.Context, s store.Store, loc *time.Location) (*Service, error) {
	if loc == nil {
		loc = time.UTC
	}
	svc := &Service{
		store: s,
		loc:   loc,
		open:  make(map[string]int64),
		now:   time.Now,
	}
	if err := svc.rebuildIndex(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func openKey(studentID, date string) string {
	return studentID + "\x00" + date
}

func (s *Service) rebuildIndex(ctx context.Context) error {
	records, err := s.store.OpenVisits(ctx)
	if err != nil {
		return fmt.Errorf("failed to rebuild open-session index: %w", err)
	}
	for _, r := range records {
		// Later records win; the invariant allows at most one open session
		// per student-day anyway.
		s.open[openKey(r.StudentID, r.Date)] = r.ID
	}
	return nil
}

// ReloadIndex rebuilds the open-session index from the store. Called
// after a bulk import, which can add open sessions behind the ledger's
// back.
func (s *Service) ReloadIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = make(map[string]int64)
	return s.rebuildIndex(ctx)
}

// RecordScan applies one scan to the ledger and persists the outcome.
// The raw identifier is trimmed and matched case-insensitively against the
// directory; an unknown identifier leaves the ledger untouched.
func (s *Service) RecordScan(ctx context.Context, rawID string) (ScanResult, error) {
	student, err := s.store.FindStudent(ctx, rawID)
	if err != nil {
		return ScanResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().In(s.loc)
	today := now.Format(parse.DateLayout)
	clock := now.Format(parse.ClockLayout)
	key := openKey(student.StudentID, today)

	if openID, ok := s.open[key]; ok {
		// LastIsIn: close the open session in place.
		if err := s.store.CloseVisit(ctx, openID, clock); err != nil {
			return ScanResult{}, err
		}
		delete(s.open, key)

		records, err := s.store.VisitsForStudentDay(ctx, student.StudentID, today)
		if err != nil {
			return ScanResult{}, err
		}
		closed := records[len(records)-1]
		for _, r := range records {
			if r.ID == openID {
				closed = r
			}
		}
		return ScanResult{
			Student: student,
			Record:  closed,
			Action:  ActionCheckOut,
			Message: fmt.Sprintf("%s checked OUT at %s", student.Name, clock),
		}, nil
	}

	// NoneToday or LastIsOut: both open a fresh session; only the message
	// differs.
	records, err := s.store.VisitsForStudentDay(ctx, student.StudentID, today)
	if err != nil {
		return ScanResult{}, err
	}

	record := model.VisitRecord{
		StudentID:   student.StudentID,
		StudentName: student.Name,
		Date:        today,
		TimeIn:      clock,
		TimeOut:     "",
		Status:      model.StatusIn,
	}
	if err := s.store.AppendVisit(ctx, &record); err != nil {
		return ScanResult{}, err
	}
	s.open[key] = record.ID

	action := ActionCheckIn
	message := fmt.Sprintf("%s checked IN at %s", student.Name, clock)
	if len(records) > 0 {
		action = ActionReEntry
		message = fmt.Sprintf("%s re-entered at %s", student.Name, clock)
	}
	return ScanResult{Student: student, Record: record, Action: action, Message: message}, nil
}

// CurrentStatus returns the status of the last record for a student-day,
// or StatusNoRecord when the day has none. Pure read.
func (s *Service) CurrentStatus(ctx context.Context, studentID, date string) (Status, error) {
	records, err := s.store.VisitsForStudentDay(ctx, studentID, date)
	if err != nil {
		return StatusNoRecord, err
	}
	if len(records) == 0 {
		return StatusNoRecord, nil
	}
	if records[len(records)-1].Status == model.StatusIn {
		return StatusIn, nil
	}
	return StatusOut, nil
}

// DanglingSessions returns open sessions left over from days before the
// given date. They are never auto-closed; the original data kept a student
// who forgot to scan out permanently In for that day, and reports surface
// these records instead of silently rewriting history.
func (s *Service) DanglingSessions(ctx context.Context, today string) ([]model.VisitRecord, error) {
	records, err := s.store.OpenVisits(ctx)
	if err != nil {
		return nil, err
	}
	var dangling []model.VisitRecord
	for _, r := range records {
		if r.Date < today {
			dangling = append(dangling, r)
		}
	}
	return dangling, nil
}

// Today returns the current date string in the service's timezone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(parse.DateLayout)
}
