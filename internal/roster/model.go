package roster

import "time"

// Session is one scheduled meeting of a course. Backed by the
// course_schedules table; immutable once the course schedule is finalized.
type Session struct {
	ID        uint64    `json:"course_schedule_id"`
	CourseID  uint64    `json:"course_id"`
	Date      time.Time `json:"schedule_date"` // DATE, midnight UTC
	StartTime string    `json:"start_time"`    // "HH:MM:SS"
	EndTime   string    `json:"end_time"`
	Room      string    `json:"room,omitempty"`
	Remark    string    `json:"remark,omitempty"`
}

// EnrolledStudent is one roster row of a course, joined with the student's
// profile and registered email.
type EnrolledStudent struct {
	StudentID  uint64    `json:"student_id"`
	StudentNo  string    `json:"student_no"`
	NameTh     string    `json:"student_name_th"`
	NameEn     string    `json:"student_name_en"`
	Email      string    `json:"email,omitempty"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

type Course struct {
	ID   uint64 `json:"course_id"`
	Code string `json:"course_code"`
	Name string `json:"course_name"`
}
