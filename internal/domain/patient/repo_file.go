package patient

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var fileHeader = []string{"patient_id", "full_name", "date_of_birth", "email", "phone"}

// FileRepository stores patient records in a single CSV file. Every read
// deserializes the whole file and every write rewrites it; the store is
// small by design and the format is an external contract, so no caching
// or partial updates.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileRepository creates a CSV-backed repository at path, creating the
// parent directory and an empty file with a header row if missing.
func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	r := &FileRepository{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := r.writeAll(nil); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	records, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *FileRepository) List(_ context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readAll()
}

func (r *FileRepository) Save(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readAll()
	if err != nil {
		return err
	}

	replaced := false
	for i := range records {
		if records[i].ID == rec.ID {
			records[i] = *rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, *rec)
	}
	return r.writeAll(records)
}

// readAll parses the store. Malformed rows are skipped rather than
// failing the whole read; one bad row must not take the store down.
func (r *FileRepository) readAll() ([]Record, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open patient store: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read patient store: %w", err)
	}

	var records []Record
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 5 {
			continue
		}
		dob, err := time.Parse(DateLayout, row[2])
		if err != nil {
			continue
		}
		records = append(records, Record{
			ID:          row[0],
			FullName:    row[1],
			DateOfBirth: dob,
			Email:       row[3],
			Phone:       row[4],
		})
	}
	return records, nil
}

func (r *FileRepository) writeAll(records []Record) error {
	tmp := r.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create patient store: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(fileHeader); err != nil {
		f.Close()
		return fmt.Errorf("write patient store header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.FullName,
			rec.DateOfBirth.Format(DateLayout),
			rec.Email,
			rec.Phone,
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write patient store row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush patient store: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close patient store: %w", err)
	}
	return os.Rename(tmp, r.path)
}
