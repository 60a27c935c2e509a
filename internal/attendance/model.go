package attendance

import "time"

// Status is the closed set of attendance outcomes. It is stored as-is and
// drives both the report labels and the notification colors, so the three
// views can never drift apart.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusLate    Status = "LATE"
	StatusAbsent  Status = "ABSENT"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// Label returns the Thai display text for the status.
func (s Status) Label() string {
	switch s {
	case StatusPresent:
		return "เข้าเรียนตรงเวลา"
	case StatusLate:
		return "เข้าเรียนสาย"
	case StatusAbsent:
		return "ขาดเรียน"
	}
	return ""
}

// Color returns the notification highlight color for the status.
func (s Status) Color() string {
	switch s {
	case StatusPresent:
		return "green"
	case StatusLate:
		return "orange"
	case StatusAbsent:
		return "red"
	}
	return ""
}

// Record is one attendance fact: at most one row exists per
// (StudentID, SessionID), written once and never updated.
type Record struct {
	ID         uint64    `json:"attendance_id"`
	StudentID  uint64    `json:"student_id"`
	CourseID   uint64    `json:"course_id"`
	SessionID  uint64    `json:"course_schedule_id"`
	Status     Status    `json:"status"`
	OccurredAt time.Time `json:"created_at"`
	Remark     *string   `json:"remark,omitempty"`
}

// Summary is the derived per-(student, course) cache of attendance counts.
// It is recomputed from scratch on every refresh, never incremented.
type Summary struct {
	ID           uint64    `json:"attendance_summary_id"`
	StudentID    uint64    `json:"student_id"`
	CourseID     uint64    `json:"course_id"`
	TotalPresent int       `json:"total_present"`
	TotalLate    int       `json:"total_late"`
	TotalAbsent  int       `json:"total_absent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
