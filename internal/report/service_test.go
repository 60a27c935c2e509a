package report

import (
	"context"
	"testing"
	"time"

	"myclassmate-backend/internal/attendance"
	"myclassmate-backend/internal/roster"
)

type fakeStore struct{ data Data }

func (f *fakeStore) Load(_ context.Context, _ uint64) (Data, error) { return f.data, nil }

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func testData() Data {
	checkIn := time.Date(2024, 6, 1, 9, 5, 0, 0, time.UTC)
	return Data{
		Course: roster.Course{ID: 1, Code: "CS101", Name: "Intro"},
		Sessions: []roster.Session{
			{ID: 10, CourseID: 1, Date: date(2024, 6, 1), StartTime: "09:00:00"},
			{ID: 11, CourseID: 1, Date: date(2024, 6, 8), StartTime: "09:00:00"},
			{ID: 12, CourseID: 1, Date: date(2024, 6, 15), StartTime: "09:00:00"},
		},
		Roster: []roster.EnrolledStudent{
			{StudentID: 100, StudentNo: "6401001", NameTh: "สมชาย", NameEn: "Somchai"},
			{StudentID: 101, StudentNo: "6401002", NameTh: "สมหญิง", NameEn: "Somying"},
		},
		Attendance: []AttendanceRow{
			{SessionID: 10, StudentID: 100, Status: attendance.StatusPresent, OccurredAt: checkIn},
			{SessionID: 10, StudentID: 101, Status: attendance.StatusLate, OccurredAt: checkIn},
			{SessionID: 11, StudentID: 100, Status: attendance.StatusAbsent, OccurredAt: checkIn},
		},
		Participation: []ParticipationRow{
			{SessionID: 10, Round: 1, Topic: "quiz", StudentID: 100, IsScored: true, Score: 2},
			{SessionID: 10, Round: 1, Topic: "quiz", StudentID: 101, IsScored: false, Score: 0},
			{SessionID: 10, Round: 2, Topic: "-", StudentID: 100, IsScored: true, Score: 3},
			{SessionID: 11, Round: 1, Topic: "recap", StudentID: 0}, // round without bids
		},
	}
}

func newTestService(data Data, now time.Time) *Service {
	return &Service{
		store: &fakeStore{data: data},
		now:   func() time.Time { return now },
	}
}

func TestBuildReportMatrix(t *testing.T) {
	// run mid-course: sessions 1 and 2 are past, session 3 is future
	svc := newTestService(testData(), date(2024, 6, 8).Add(18*time.Hour))

	rep, err := svc.BuildReport(context.Background(), 1)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}
	if len(rep.Sessions) != 3 {
		t.Fatalf("sessions = %d, want 3", len(rep.Sessions))
	}

	first := rep.Sessions[0]
	if len(first.Attendances) != 2 {
		t.Fatalf("first session attendances = %d, want full roster", len(first.Attendances))
	}
	if got := *first.Attendances[0].Status; got != attendance.StatusPresent {
		t.Errorf("student 100 session 1 = %s, want PRESENT", got)
	}
	if first.Attendances[0].CheckedInAt == nil {
		t.Error("PRESENT entry missing check-in time")
	}

	// student 101 has no record for session 2: a past session defaults to ABSENT
	second := rep.Sessions[1]
	if got := *second.Attendances[1].Status; got != attendance.StatusAbsent {
		t.Errorf("student 101 session 2 = %s, want ABSENT default", got)
	}
	if second.Attendances[1].CheckedInAt != nil {
		t.Error("defaulted ABSENT entry carries a check-in time")
	}

	// synthesized ABSENT records also hide the timestamp
	if second.Attendances[0].CheckedInAt != nil {
		t.Error("recorded ABSENT entry carries a check-in time")
	}

	// future session: no status at all
	third := rep.Sessions[2]
	if third.Attendances[0].Status != nil || third.Attendances[1].Status != nil {
		t.Error("future session carries a status, want none")
	}
}

func TestBuildReportRounds(t *testing.T) {
	svc := newTestService(testData(), date(2024, 6, 8).Add(18*time.Hour))

	rep, err := svc.BuildReport(context.Background(), 1)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}

	rounds := rep.Sessions[0].Rounds
	if len(rounds) != 2 {
		t.Fatalf("session 1 rounds = %d, want 2", len(rounds))
	}
	if rounds[0].Number != 1 || rounds[1].Number != 2 {
		t.Errorf("round order = %d,%d, want 1,2", rounds[0].Number, rounds[1].Number)
	}
	if len(rounds[0].Bids) != 2 {
		t.Errorf("round 1 bids = %d, want 2", len(rounds[0].Bids))
	}
	if rounds[0].Bids[0].StudentNo != "6401001" {
		t.Errorf("bid carries student no %q, want roster join", rounds[0].Bids[0].StudentNo)
	}

	// a round with no bids still appears
	empty := rep.Sessions[1].Rounds
	if len(empty) != 1 || len(empty[0].Bids) != 0 {
		t.Errorf("session 2 rounds = %+v, want one empty round", empty)
	}
}

func TestAbsentRate(t *testing.T) {
	tests := []struct {
		absent, total int
		want          float64
		text          string
	}{
		{absent: 1, total: 2, want: 50.0, text: "1/2 = 50.0%"},
		{absent: 0, total: 3, want: 0, text: "0/3 = 0.0%"},
		{absent: 2, total: 3, want: 66.7, text: "2/3 = 66.7%"},
		{absent: 0, total: 0, want: 0, text: "0/0 = 0.0%"},
	}
	for _, tt := range tests {
		if got := AbsentRate(tt.absent, tt.total); got != tt.want {
			t.Errorf("AbsentRate(%d, %d) = %v, want %v", tt.absent, tt.total, got, tt.want)
		}
		if got := absentRateText(tt.absent, tt.total); got != tt.text {
			t.Errorf("absentRateText(%d, %d) = %q, want %q", tt.absent, tt.total, got, tt.text)
		}
	}
}
