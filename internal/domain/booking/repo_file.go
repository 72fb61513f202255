package booking

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

var ledgerHeader = []string{"appointment_id", "patient_id", "doctor", "location", "start", "duration_minutes"}

// FileLedger stores booked intervals in a CSV file, one row per booking.
// Writes append a single row; reads deserialize the whole file. Start
// times are stored as RFC 3339.
type FileLedger struct {
	path string
	mu   sync.Mutex
}

// NewFileLedger creates a CSV-backed ledger at path, creating the parent
// directory and the header row if the file does not exist.
func NewFileLedger(path string) (*FileLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	l := &FileLedger{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create booking ledger: %w", err)
		}
		w := csv.NewWriter(f)
		if err := w.Write(ledgerHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write ledger header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush ledger header: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close booking ledger: %w", err)
		}
	}
	return l, nil
}

func (l *FileLedger) ListByResource(ctx context.Context, doctor, location string) ([]Interval, error) {
	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Interval
	for _, iv := range all {
		if iv.Doctor == doctor && iv.Location == location {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (l *FileLedger) List(_ context.Context) ([]Interval, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open booking ledger: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read booking ledger: %w", err)
	}

	var intervals []Interval
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 6 {
			continue
		}
		start, err := time.Parse(time.RFC3339, row[4])
		if err != nil {
			continue
		}
		dur, err := strconv.Atoi(row[5])
		if err != nil || dur <= 0 {
			continue
		}
		intervals = append(intervals, Interval{
			AppointmentID:   row[0],
			PatientID:       row[1],
			Doctor:          row[2],
			Location:        row[3],
			Start:           start,
			DurationMinutes: dur,
		})
	}
	return intervals, nil
}

func (l *FileLedger) Book(_ context.Context, iv Interval) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open booking ledger: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := []string{
		iv.AppointmentID,
		iv.PatientID,
		iv.Doctor,
		iv.Location,
		iv.Start.Format(time.RFC3339),
		strconv.Itoa(iv.DurationMinutes),
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("append booking: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush booking: %w", err)
	}
	return nil
}
