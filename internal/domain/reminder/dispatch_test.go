package reminder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/domain/patient"
	"github.com/carebook/carebook/internal/platform/notification"
)

type stubPatientRepo struct {
	records map[string]*patient.Record
}

func (r *stubPatientRepo) GetByID(_ context.Context, id string) (*patient.Record, error) {
	if rec, ok := r.records[id]; ok {
		return rec, nil
	}
	return nil, patient.ErrNotFound
}

func (r *stubPatientRepo) List(_ context.Context) ([]patient.Record, error) { return nil, nil }
func (r *stubPatientRepo) Save(_ context.Context, _ *patient.Record) error { return nil }

func newDispatchFixture(rec *patient.Record) (*NotificationDispatcher, *notification.MockEmailSender, *notification.MockSMSSender) {
	email := &notification.MockEmailSender{}
	sms := &notification.MockSMSSender{}
	mgr := notification.NewManager(email, sms, notification.NewTemplateEngine())
	repo := &stubPatientRepo{records: map[string]*patient.Record{}}
	if rec != nil {
		repo.records[rec.ID] = rec
	}
	return NewNotificationDispatcher(repo, mgr, zerolog.Nop()), email, sms
}

func TestDispatchPrefersEmail(t *testing.T) {
	d, email, sms := newDispatchFixture(&patient.Record{
		ID: "p1", Email: "jane@example.com", Phone: "+15550100",
	})

	d.Dispatch(context.Background(), Job{
		ID: "j1", PatientID: "p1", Kind: KindThreeDay,
		Start: time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC),
	})

	if len(email.Calls()) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.Calls()))
	}
	if len(sms.Calls()) != 0 {
		t.Errorf("expected no sms when email is present, got %d", len(sms.Calls()))
	}
	if body := email.Calls()[0].Body; !strings.Contains(body, "3 days") {
		t.Errorf("three-day template not used: %s", body)
	}
}

func TestDispatchFallsBackToSMS(t *testing.T) {
	d, email, sms := newDispatchFixture(&patient.Record{ID: "p1", Phone: "+15550100"})

	d.Dispatch(context.Background(), Job{
		ID: "j1", PatientID: "p1", Kind: KindTwoHour,
		Start: time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC),
	})

	if len(email.Calls()) != 0 {
		t.Errorf("expected no email without address, got %d", len(email.Calls()))
	}
	calls := sms.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 sms, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Body, "~2 hours") {
		t.Errorf("two-hour template not used: %s", calls[0].Body)
	}
}

func TestDispatchSkipsWithoutContact(t *testing.T) {
	d, email, sms := newDispatchFixture(&patient.Record{ID: "p1"})

	d.Dispatch(context.Background(), Job{ID: "j1", PatientID: "p1", Kind: KindOneDay})

	if len(email.Calls()) != 0 || len(sms.Calls()) != 0 {
		t.Error("reminder should be skipped silently without contact details")
	}
}

func TestDispatchUnknownPatient(t *testing.T) {
	d, email, sms := newDispatchFixture(nil)

	d.Dispatch(context.Background(), Job{ID: "j1", PatientID: "ghost", Kind: KindOneDay})

	if len(email.Calls()) != 0 || len(sms.Calls()) != 0 {
		t.Error("no notification should be sent for unknown patient")
	}
}
