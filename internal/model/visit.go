package model

// Visit statuses. The last record for a (student, date) pair defines the
// student's current status on that date.
const (
	StatusIn  = "In"
	StatusOut = "Out"
)

// VisitRecord is one entry in the attendance ledger. A record is open while
// Status is "In" and TimeOut is empty; closing it sets TimeOut and flips
// Status to "Out". Records are never edited otherwise and never deleted.
type VisitRecord struct {
	ID          int64  `gorm:"primaryKey" json:"-"`
	StudentID   string `gorm:"size:32;not null;index:idx_visits_student_date,priority:1" json:"student_id"`
	StudentName string `gorm:"size:128;not null" json:"name"`
	Date        string `gorm:"size:10;not null;index:idx_visits_student_date,priority:2;index" json:"date"`
	TimeIn      string `gorm:"size:8;not null" json:"time_in"`
	TimeOut     string `gorm:"size:8;not null;default:''" json:"time_out"`
	Status      string `gorm:"size:3;not null" json:"status"`
}

// Open reports whether the record is an open session.
func (v VisitRecord) Open() bool {
	return v.Status == StatusIn && v.TimeOut == ""
}
