package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"myclassmate-backend/internal/roster"
)

// ===== fakes =====

type fakeStore struct {
	records   []Record
	summaries map[string]Summary
	enrolled  map[string]bool
	nextID    uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		summaries: make(map[string]Summary),
		enrolled:  make(map[string]bool),
	}
}

func enrollKey(studentID, courseID uint64) string {
	return fmt.Sprintf("%d/%d", studentID, courseID)
}

func (f *fakeStore) enroll(studentID, courseID uint64) {
	f.enrolled[enrollKey(studentID, courseID)] = true
}

func (f *fakeStore) FindRecord(_ context.Context, studentID, sessionID uint64) (*Record, error) {
	for i := range f.records {
		if f.records[i].StudentID == studentID && f.records[i].SessionID == sessionID {
			rec := f.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertRecord(_ context.Context, rec Record) (Record, bool, error) {
	for i := range f.records {
		if f.records[i].StudentID == rec.StudentID && f.records[i].SessionID == rec.SessionID {
			return f.records[i], false, nil
		}
	}
	f.nextID++
	rec.ID = f.nextID
	f.records = append(f.records, rec)
	return rec, true, nil
}

func (f *fakeStore) ListRecords(_ context.Context, studentID, courseID uint64, _ time.Time) ([]Record, error) {
	var out []Record
	for _, r := range f.records {
		if r.StudentID == studentID && r.CourseID == courseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetSummary(_ context.Context, studentID, courseID uint64) (*Summary, error) {
	if s, ok := f.summaries[enrollKey(studentID, courseID)]; ok {
		return &s, nil
	}
	return nil, nil
}

func (f *fakeStore) UpsertSummary(_ context.Context, sum Summary) (Summary, error) {
	f.summaries[enrollKey(sum.StudentID, sum.CourseID)] = sum
	return sum, nil
}

func (f *fakeStore) IsEnrolled(_ context.Context, studentID, courseID uint64) (bool, error) {
	return f.enrolled[enrollKey(studentID, courseID)], nil
}

type fakeSessions struct {
	sessions map[uint64]roster.Session
}

func (f *fakeSessions) GetSession(_ context.Context, id uint64) (roster.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return roster.Session{}, roster.ErrSessionNotFound
}

func newTestService(store *fakeStore, sessions *fakeSessions) *Service {
	return &Service{
		store:         store,
		sessions:      sessions,
		lateThreshold: 15 * time.Minute,
		locks:         newKeyedLocks(),
		now:           time.Now,
	}
}

func day(h, m, s int) time.Time {
	return time.Date(2024, 6, 1, h, m, s, 0, time.UTC)
}

// ===== tests =====

func TestRecordCheckInClassification(t *testing.T) {
	sessions := &fakeSessions{sessions: map[uint64]roster.Session{
		10: {ID: 10, CourseID: 1, Date: day(0, 0, 0), StartTime: "09:00:00", EndTime: "12:00:00"},
	}}

	tests := []struct {
		name       string
		occurredAt time.Time
		want       Status
	}{
		{name: "well before start", occurredAt: day(8, 45, 0), want: StatusPresent},
		{name: "exactly at start", occurredAt: day(9, 0, 0), want: StatusPresent},
		{name: "one second before threshold", occurredAt: day(9, 14, 59), want: StatusPresent},
		{name: "exactly at threshold", occurredAt: day(9, 15, 0), want: StatusLate},
		{name: "after threshold", occurredAt: day(11, 30, 0), want: StatusLate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.enroll(100, 1)
			svc := newTestService(store, sessions)

			rec, err := svc.RecordCheckIn(context.Background(), 100, 1, 10, tt.occurredAt)
			if err != nil {
				t.Fatalf("RecordCheckIn() error = %v", err)
			}
			if rec.Status != tt.want {
				t.Errorf("RecordCheckIn() status = %s, want %s", rec.Status, tt.want)
			}
		})
	}
}

func TestRecordCheckInFirstWriteWins(t *testing.T) {
	store := newFakeStore()
	store.enroll(100, 1)
	sessions := &fakeSessions{sessions: map[uint64]roster.Session{
		10: {ID: 10, CourseID: 1, Date: day(0, 0, 0), StartTime: "09:00:00"},
	}}
	svc := newTestService(store, sessions)

	first, err := svc.RecordCheckIn(context.Background(), 100, 1, 10, day(8, 50, 0))
	if err != nil {
		t.Fatalf("first RecordCheckIn() error = %v", err)
	}
	if first.Status != StatusPresent {
		t.Fatalf("first status = %s, want PRESENT", first.Status)
	}

	// a later, would-be-LATE check-in must not replace the stored record
	second, err := svc.RecordCheckIn(context.Background(), 100, 1, 10, day(10, 0, 0))
	if err != nil {
		t.Fatalf("second RecordCheckIn() error = %v", err)
	}
	if second.ID != first.ID || second.Status != StatusPresent {
		t.Errorf("second check-in = %+v, want the first record unchanged", second)
	}
	if len(store.records) != 1 {
		t.Errorf("stored records = %d, want 1", len(store.records))
	}
}

func TestRecordCheckInGates(t *testing.T) {
	store := newFakeStore()
	sessions := &fakeSessions{sessions: map[uint64]roster.Session{
		10: {ID: 10, CourseID: 1, Date: day(0, 0, 0), StartTime: "09:00:00"},
	}}
	svc := newTestService(store, sessions)

	_, err := svc.RecordCheckIn(context.Background(), 100, 1, 10, day(9, 0, 0))
	var api *APIError
	if !errors.As(err, &api) || api.Code != CodeEnrollmentNotFound {
		t.Errorf("unenrolled check-in error = %v, want ENROLLMENT_NOT_FOUND", err)
	}

	store.enroll(100, 1)
	_, err = svc.RecordCheckIn(context.Background(), 100, 1, 99, day(9, 0, 0))
	if !errors.As(err, &api) || api.Code != CodeSessionNotFound {
		t.Errorf("unknown session error = %v, want SESSION_NOT_FOUND", err)
	}
}

func TestSynthesizeAbsence(t *testing.T) {
	store := newFakeStore()
	store.enroll(100, 1)
	sessions := &fakeSessions{sessions: map[uint64]roster.Session{
		10: {ID: 10, CourseID: 1, Date: day(0, 0, 0), StartTime: "09:00:00"},
		11: {ID: 11, CourseID: 1, Date: day(0, 0, 0).AddDate(0, 0, 7), StartTime: "09:00:00"},
	}}
	svc := newTestService(store, sessions)

	asOf := day(18, 0, 0)

	rec, created, err := svc.SynthesizeAbsence(context.Background(), 100, 1, 10, asOf)
	if err != nil {
		t.Fatalf("SynthesizeAbsence() error = %v", err)
	}
	if !created || rec.Status != StatusAbsent {
		t.Errorf("SynthesizeAbsence() = (%+v, %v), want new ABSENT record", rec, created)
	}

	// repeat is a no-op returning the stored record
	rec2, created, err := svc.SynthesizeAbsence(context.Background(), 100, 1, 10, asOf)
	if err != nil {
		t.Fatalf("repeat SynthesizeAbsence() error = %v", err)
	}
	if created || rec2.ID != rec.ID {
		t.Errorf("repeat = (%+v, %v), want existing record, created=false", rec2, created)
	}

	// sessions dated after asOf stay untouched
	_, created, err = svc.SynthesizeAbsence(context.Background(), 100, 1, 11, asOf)
	if err != nil {
		t.Fatalf("future SynthesizeAbsence() error = %v", err)
	}
	if created {
		t.Error("future session produced a record, want none")
	}
	if len(store.records) != 1 {
		t.Errorf("stored records = %d, want 1", len(store.records))
	}
}

func TestSynthesizeAbsenceKeepsCheckIn(t *testing.T) {
	store := newFakeStore()
	store.enroll(100, 1)
	sessions := &fakeSessions{sessions: map[uint64]roster.Session{
		10: {ID: 10, CourseID: 1, Date: day(0, 0, 0), StartTime: "09:00:00"},
	}}
	svc := newTestService(store, sessions)

	if _, err := svc.RecordCheckIn(context.Background(), 100, 1, 10, day(9, 5, 0)); err != nil {
		t.Fatalf("RecordCheckIn() error = %v", err)
	}

	rec, created, err := svc.SynthesizeAbsence(context.Background(), 100, 1, 10, day(18, 0, 0))
	if err != nil {
		t.Fatalf("SynthesizeAbsence() error = %v", err)
	}
	if created || rec.Status != StatusPresent {
		t.Errorf("SynthesizeAbsence() = (%s, %v), want existing PRESENT record", rec.Status, created)
	}
}

func TestRefreshSummaryRecounts(t *testing.T) {
	store := newFakeStore()
	store.enroll(100, 1)
	sessions := &fakeSessions{sessions: map[uint64]roster.Session{}}
	svc := newTestService(store, sessions)

	store.records = []Record{
		{ID: 1, StudentID: 100, CourseID: 1, SessionID: 10, Status: StatusPresent},
		{ID: 2, StudentID: 100, CourseID: 1, SessionID: 11, Status: StatusLate},
		{ID: 3, StudentID: 100, CourseID: 1, SessionID: 12, Status: StatusAbsent},
		{ID: 4, StudentID: 100, CourseID: 1, SessionID: 13, Status: StatusAbsent},
		{ID: 5, StudentID: 999, CourseID: 1, SessionID: 10, Status: StatusPresent},
	}

	sum, err := svc.RefreshSummary(context.Background(), 100, 1, day(18, 0, 0))
	if err != nil {
		t.Fatalf("RefreshSummary() error = %v", err)
	}
	if sum.TotalPresent != 1 || sum.TotalLate != 1 || sum.TotalAbsent != 2 {
		t.Errorf("summary = %d/%d/%d, want 1/1/2", sum.TotalPresent, sum.TotalLate, sum.TotalAbsent)
	}

	// re-running converges to the same counts, never increments
	again, err := svc.RefreshSummary(context.Background(), 100, 1, day(18, 0, 0))
	if err != nil {
		t.Fatalf("second RefreshSummary() error = %v", err)
	}
	if again.TotalPresent != 1 || again.TotalLate != 1 || again.TotalAbsent != 2 {
		t.Errorf("second summary = %d/%d/%d, want 1/1/2", again.TotalPresent, again.TotalLate, again.TotalAbsent)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "09:00:00", want: 9 * 3600},
		{in: "13:30", want: 13*3600 + 30*60},
		{in: "23:59:59", want: 23*3600 + 59*60 + 59},
		{in: "25:00:00", wantErr: true},
		{in: "garbage", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseTimeOfDay(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTimeOfDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("parseTimeOfDay(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
