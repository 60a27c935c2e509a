package attendance

import "time"

// CheckInResponse is the payload returned to the check-in kiosk after a
// face match resolved the student.
type CheckInResponse struct {
	AttendanceID uint64    `json:"attendance_id"`
	StudentID    uint64    `json:"student_id"`
	CourseID     uint64    `json:"course_id"`
	SessionID    uint64    `json:"course_schedule_id"`
	Status       Status    `json:"status"`
	StatusLabel  string    `json:"status_label"`
	CheckedInAt  time.Time `json:"checked_in_at"`
}

func (r Record) toCheckInResponse() CheckInResponse {
	return CheckInResponse{
		AttendanceID: r.ID,
		StudentID:    r.StudentID,
		CourseID:     r.CourseID,
		SessionID:    r.SessionID,
		Status:       r.Status,
		StatusLabel:  r.Status.Label(),
		CheckedInAt:  r.OccurredAt,
	}
}
