package report

import (
	"time"

	"myclassmate-backend/internal/attendance"
	"myclassmate-backend/internal/roster"
)

// Report is the consolidated attendance + participation view of a course:
// one entry per session, each joining the roster with that session's
// attendance and its participation rounds.
type Report struct {
	CourseID uint64          `json:"course_id"`
	Course   roster.Course   `json:"course"`
	Sessions []SessionReport `json:"schedules"`
}

type SessionReport struct {
	Session     roster.Session    `json:"schedule"`
	Attendances []AttendanceEntry `json:"attendances"`
	Rounds      []RoundReport     `json:"participations,omitempty"`
}

// AttendanceEntry is one roster member's outcome for one session. Status is
// nil for future sessions (no status rather than ABSENT); CheckedInAt is
// nil for synthesized absences.
type AttendanceEntry struct {
	StudentID   uint64             `json:"student_id"`
	StudentNo   string             `json:"student_no"`
	NameTh      string             `json:"student_name_th"`
	NameEn      string             `json:"student_name_en"`
	Status      *attendance.Status `json:"status,omitempty"`
	StatusLabel string             `json:"status_label,omitempty"`
	CheckedInAt *time.Time         `json:"attended_at,omitempty"`
}

type RoundReport struct {
	Number int        `json:"round"`
	Topic  string     `json:"topic"`
	Bids   []BidEntry `json:"request_participations"`
}

type BidEntry struct {
	StudentID uint64 `json:"student_id"`
	StudentNo string `json:"student_no"`
	NameTh    string `json:"student_name_th"`
	NameEn    string `json:"student_name_en"`
	IsScored  bool   `json:"is_scored"`
	Score     int    `json:"score"`
}

// Data is the raw snapshot a Store loads for one course. All slices come
// from a single read view so attendance and participation are mutually
// consistent.
type Data struct {
	Course        roster.Course
	Sessions      []roster.Session // chronological
	Roster        []roster.EnrolledStudent
	Attendance    []AttendanceRow
	Participation []ParticipationRow // ordered by round creation, then bid creation
}

type AttendanceRow struct {
	SessionID  uint64
	StudentID  uint64
	Status     attendance.Status
	OccurredAt time.Time
}

type ParticipationRow struct {
	SessionID uint64
	Round     int
	Topic     string
	StudentID uint64
	IsScored  bool
	Score     int
}
