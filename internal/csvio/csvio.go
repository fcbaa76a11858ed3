// Package csvio reads and writes the flat-file interchange format the
// attendance data historically lived in. Column layouts are part of the
// external interface and must not change: other tooling still consumes
// these files.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pool-attendance-backend/internal/model"
	"pool-attendance-backend/internal/parse"
)

var (
	studentHeader = []string{"Name", "StudentID", "DOB", "SchoolName", "RegisteredOn"}
	visitHeader   = []string{"StudentID", "Name", "Date", "TimeIn", "TimeOut", "Status"}
)

// WriteStudents emits the directory in its canonical column order.
func WriteStudents(w io.Writer, students []model.Student) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(studentHeader); err != nil {
		return fmt.Errorf("failed to write student header: %w", err)
	}
	for _, s := range students {
		row := []string{s.Name, s.StudentID, s.DOB, s.SchoolName, s.RegisteredOn}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write student row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteVisits emits ledger records in their canonical column order. An
// open session has an empty TimeOut cell.
func WriteVisits(w io.Writer, records []model.VisitRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(visitHeader); err != nil {
		return fmt.Errorf("failed to write visit header: %w", err)
	}
	for _, r := range records {
		row := []string{r.StudentID, r.StudentName, r.Date, r.TimeIn, r.TimeOut, r.Status}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write visit row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDayVisits emits a single day's records with a derived duration
// column appended. Open or unparseable sessions get an empty cell.
func WriteDayVisits(w io.Writer, records []model.VisitRecord) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, visitHeader...), "Duration (mins)")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write day export header: %w", err)
	}
	for _, r := range records {
		duration := ""
		if r.TimeOut != "" {
			if mins, err := parse.SessionMinutes(r.TimeIn, r.TimeOut); err == nil {
				duration = strconv.Itoa(mins)
			}
		}
		row := []string{r.StudentID, r.StudentName, r.Date, r.TimeIn, r.TimeOut, r.Status, duration}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write day export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadStudents parses a directory file. Rows missing a student identifier
// or carrying an unparseable registration date are skipped and counted,
// never fatal: the historical files contain hand-edited rows.
func ReadStudents(r io.Reader) ([]model.Student, int, error) {
	rows, skipped, err := readRows(r, len(studentHeader))
	if err != nil {
		return nil, 0, err
	}

	var students []model.Student
	for _, row := range rows {
		s := model.Student{
			Name:         strings.TrimSpace(row[0]),
			StudentID:    strings.TrimSpace(row[1]),
			DOB:          strings.TrimSpace(row[2]),
			SchoolName:   strings.TrimSpace(row[3]),
			RegisteredOn: strings.TrimSpace(row[4]),
		}
		if s.StudentID == "" || s.Name == "" {
			skipped++
			continue
		}
		students = append(students, s)
	}
	return students, skipped, nil
}

// ReadVisits parses a ledger file. A row must carry a student identifier,
// a valid date and a valid TimeIn; TimeOut may be empty for an open
// session. The Status cell is normalized from the TimeOut cell when the
// two disagree, matching how the historical files were repaired by hand.
func ReadVisits(r io.Reader) ([]model.VisitRecord, int, error) {
	rows, skipped, err := readRows(r, len(visitHeader))
	if err != nil {
		return nil, 0, err
	}

	var records []model.VisitRecord
	for _, row := range rows {
		rec := model.VisitRecord{
			StudentID:   strings.TrimSpace(row[0]),
			StudentName: strings.TrimSpace(row[1]),
			Date:        strings.TrimSpace(row[2]),
			TimeIn:      strings.TrimSpace(row[3]),
			TimeOut:     strings.TrimSpace(row[4]),
			Status:      strings.TrimSpace(row[5]),
		}
		if rec.StudentID == "" {
			skipped++
			continue
		}
		if _, err := parse.Date(rec.Date); err != nil {
			skipped++
			continue
		}
		if _, err := parse.Clock(rec.TimeIn); err != nil {
			skipped++
			continue
		}
		if rec.TimeOut != "" {
			if _, err := parse.Clock(rec.TimeOut); err != nil {
				skipped++
				continue
			}
			rec.Status = model.StatusOut
		} else {
			rec.Status = model.StatusIn
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// readRows reads every data row with the expected field count, counting
// rather than failing on short or long rows. Only a malformed stream
// (unreadable, missing header) is an error.
func readRows(r io.Reader, fields int) ([][]string, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err == io.EOF {
		return nil, 0, nil
	} else if err != nil {
		return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows [][]string
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if len(row) != fields {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

// WriteFileAtomic writes a snapshot through a temp file in the target
// directory followed by a rename, so readers never observe a partial file.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp export file: %w", err)
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize export file: %w", err)
	}
	return nil
}
