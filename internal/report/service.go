package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"myclassmate-backend/internal/attendance"
	"myclassmate-backend/internal/roster"
)

// ===== Error model =====

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeCourseNotFound  Code = "COURSE_NOT_FOUND"
	CodeExportFailed    Code = "EXPORT_FAILED"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func errInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func errInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func errCourseNotFound(courseID uint64) *APIError {
	return &APIError{Code: CodeCourseNotFound, Message: fmt.Sprintf("course %d not found", courseID)}
}

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeCourseNotFound:
			return 404
		default:
			return 500
		}
	}
	return 500
}

// ===== Service =====

// Service builds the per-course attendance + participation matrix and its
// spreadsheet export.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db), now: time.Now}
}

// BuildReport assembles the report matrix for a course from a consistent
// snapshot of its sessions, roster, attendance and participation history.
func (s *Service) BuildReport(ctx context.Context, courseID uint64) (Report, error) {
	data, err := s.store.Load(ctx, courseID)
	if err != nil {
		return Report{}, err
	}
	return buildReport(data, s.now()), nil
}

func buildReport(data Data, now time.Time) Report {
	today := now.Format("2006-01-02")

	attendanceBySession := make(map[uint64]map[uint64]AttendanceRow)
	for _, row := range data.Attendance {
		m, ok := attendanceBySession[row.SessionID]
		if !ok {
			m = make(map[uint64]AttendanceRow)
			attendanceBySession[row.SessionID] = m
		}
		m[row.StudentID] = row
	}

	studentByID := make(map[uint64]int, len(data.Roster))
	for i, st := range data.Roster {
		studentByID[st.StudentID] = i
	}

	rep := Report{CourseID: data.Course.ID, Course: data.Course}
	for _, sess := range data.Sessions {
		sr := SessionReport{Session: sess}
		isFuture := sess.Date.Format("2006-01-02") > today

		for _, st := range data.Roster {
			entry := AttendanceEntry{
				StudentID: st.StudentID,
				StudentNo: st.StudentNo,
				NameTh:    st.NameTh,
				NameEn:    st.NameEn,
			}
			if row, ok := attendanceBySession[sess.ID][st.StudentID]; ok {
				status := row.Status
				entry.Status = &status
				entry.StatusLabel = status.Label()
				if status != attendance.StatusAbsent {
					occurred := row.OccurredAt
					entry.CheckedInAt = &occurred
				}
			} else if !isFuture {
				// a past session without a record reads as absent; future
				// sessions show no status at all
				status := attendance.StatusAbsent
				entry.Status = &status
				entry.StatusLabel = status.Label()
			}
			sr.Attendances = append(sr.Attendances, entry)
		}

		sr.Rounds = buildRounds(data.Participation, sess.ID, studentByID, data.Roster)
		rep.Sessions = append(rep.Sessions, sr)
	}
	return rep
}

// buildRounds groups a session's participation rows by round number,
// preserving round insertion order.
func buildRounds(rows []ParticipationRow, sessionID uint64, studentByID map[uint64]int, rosterList []roster.EnrolledStudent) []RoundReport {
	var rounds []RoundReport
	index := make(map[int]int)

	for _, row := range rows {
		if row.SessionID != sessionID {
			continue
		}
		i, ok := index[row.Round]
		if !ok {
			rounds = append(rounds, RoundReport{Number: row.Round, Topic: row.Topic})
			i = len(rounds) - 1
			index[row.Round] = i
		}
		if row.StudentID == 0 {
			continue // round without bids
		}
		entry := BidEntry{StudentID: row.StudentID, IsScored: row.IsScored, Score: row.Score}
		if ri, ok := studentByID[row.StudentID]; ok {
			st := rosterList[ri]
			entry.StudentNo = st.StudentNo
			entry.NameTh = st.NameTh
			entry.NameEn = st.NameEn
		}
		rounds[i].Bids = append(rounds[i].Bids, entry)
	}
	return rounds
}

// AbsentRate computes totalAbsent/totalSessions as a percentage, one
// decimal, guarding totalSessions == 0 to 0%.
func AbsentRate(totalAbsent, totalSessions int) float64 {
	if totalSessions == 0 {
		return 0
	}
	rate := float64(totalAbsent) / float64(totalSessions) * 100
	// one decimal place
	return float64(int(rate*10+0.5)) / 10
}

func absentRateText(totalAbsent, totalSessions int) string {
	return fmt.Sprintf("%d/%d = %.1f%%", totalAbsent, totalSessions, AbsentRate(totalAbsent, totalSessions))
}
