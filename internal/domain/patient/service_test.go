package patient

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newFileService(t *testing.T) *Service {
	t.Helper()
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "patients.csv"))
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	return NewService(repo, zerolog.Nop())
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestIdentityKeyDeterministic(t *testing.T) {
	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)

	a := IdentityKey("Jane Doe", dob)
	b := IdentityKey("  jane doe  ", dob)
	if a != b {
		t.Errorf("case/whitespace variants should map to the same id: %s vs %s", a, b)
	}
	if len(a) != 12 {
		t.Errorf("expected 12-char id, got %d (%s)", len(a), a)
	}

	other := IdentityKey("Jane Doe", dob.AddDate(0, 0, 1))
	if other == a {
		t.Error("different date of birth should yield a different id")
	}
}

func TestResolveOrCreateIdempotent(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()
	dob := mustDate(t, "1990-04-12")

	first, existed, err := svc.ResolveOrCreate(ctx, "Jane Doe", dob, "jane@example.com", "")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}
	if existed {
		t.Error("first resolve should create")
	}

	second, existed, err := svc.ResolveOrCreate(ctx, "  JANE DOE ", dob, "other@example.com", "+15550100")
	if err != nil {
		t.Fatalf("ResolveOrCreate: %v", err)
	}
	if !existed {
		t.Error("second resolve should find the existing record")
	}
	if second.ID != first.ID {
		t.Errorf("ids differ: %s vs %s", second.ID, first.ID)
	}
	if second.Email != "jane@example.com" {
		t.Errorf("existing record should be returned unchanged, got email %q", second.Email)
	}
}

func TestResolveOrCreateValidation(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()

	if _, _, err := svc.ResolveOrCreate(ctx, "   ", mustDate(t, "1990-04-12"), "", ""); err != ErrInvalidInput {
		t.Errorf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if _, _, err := svc.ResolveOrCreate(ctx, "Jane Doe", time.Time{}, "", ""); err != ErrInvalidInput {
		t.Errorf("expected ErrInvalidInput for zero dob, got %v", err)
	}
}

func TestResolveOrCreateConcurrent(t *testing.T) {
	svc := newFileService(t)
	ctx := context.Background()
	dob := mustDate(t, "1985-01-30")

	var wg sync.WaitGroup
	created := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, existed, err := svc.ResolveOrCreate(ctx, "John Smith", dob, "john@example.com", "")
			if err != nil {
				t.Errorf("ResolveOrCreate: %v", err)
				return
			}
			created <- !existed
		}()
	}
	wg.Wait()
	close(created)

	creates := 0
	for c := range created {
		if c {
			creates++
		}
	}
	if creates != 1 {
		t.Errorf("expected exactly one create across concurrent resolves, got %d", creates)
	}

	records, err := svc.repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 stored record, got %d", len(records))
	}
}

func TestFileRepositorySkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patients.csv")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}
	ctx := context.Background()

	rec := &Record{
		ID:          IdentityKey("Jane Doe", mustDate(t, "1990-04-12")),
		FullName:    "Jane Doe",
		DateOfBirth: mustDate(t, "1990-04-12"),
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Corrupt the store with a bad date row; reads must survive it.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("badid,Bad Row,not-a-date,,\n"); err != nil {
		t.Fatalf("write bad row: %v", err)
	}
	f.Close()

	records, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected malformed row to be skipped, got %d records", len(records))
	}
}
