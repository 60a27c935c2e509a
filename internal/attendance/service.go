package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"myclassmate-backend/internal/roster"
)

// ===== Error model (same shape across domain packages) =====

type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeSessionNotFound    Code = "SESSION_NOT_FOUND"
	CodeEnrollmentNotFound Code = "ENROLLMENT_NOT_FOUND"
	CodeInternal           Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func errInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func errInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func errSessionNotFound(sessionID uint64) *APIError {
	return &APIError{Code: CodeSessionNotFound, Message: fmt.Sprintf("course schedule %d not found", sessionID)}
}

func errEnrollmentNotFound(studentID, courseID uint64) *APIError {
	return &APIError{
		Code:    CodeEnrollmentNotFound,
		Message: fmt.Sprintf("student %d is not enrolled in course %d", studentID, courseID),
	}
}

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound, CodeSessionNotFound, CodeEnrollmentNotFound:
			return 404
		default:
			return 500
		}
	}
	return 500
}

// ===== Service =====

const DefaultLateThresholdMinutes = 15

// SessionDirectory is the slice of the roster the classifier needs.
type SessionDirectory interface {
	GetSession(ctx context.Context, sessionID uint64) (roster.Session, error)
}

// Service classifies check-ins, synthesizes absences for the batch job and
// maintains the derived attendance summaries.
type Service struct {
	store         Store
	sessions      SessionDirectory
	lateThreshold time.Duration
	locks         *keyedLocks
	now           func() time.Time
}

func NewService(db *sql.DB, sessions SessionDirectory, lateThresholdMinutes int) *Service {
	if lateThresholdMinutes <= 0 {
		lateThresholdMinutes = DefaultLateThresholdMinutes
	}
	return &Service{
		store:         NewStore(db),
		sessions:      sessions,
		lateThreshold: time.Duration(lateThresholdMinutes) * time.Minute,
		locks:         newKeyedLocks(),
		now:           time.Now,
	}
}

// RecordCheckIn classifies a check-in into PRESENT or LATE and persists it.
// The first recorded event for a (student, session) pair wins: repeated
// calls return the stored record unchanged, whatever their timestamps.
func (s *Service) RecordCheckIn(ctx context.Context, studentID, courseID, sessionID uint64, occurredAt time.Time) (Record, error) {
	enrolled, err := s.store.IsEnrolled(ctx, studentID, courseID)
	if err != nil {
		return Record{}, err
	}
	if !enrolled {
		return Record{}, errEnrollmentNotFound(studentID, courseID)
	}

	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, roster.ErrSessionNotFound) {
			return Record{}, errSessionNotFound(sessionID)
		}
		return Record{}, err
	}

	unlock := s.locks.lock(recordKey(studentID, sessionID))
	defer unlock()

	existing, err := s.store.FindRecord(ctx, studentID, sessionID)
	if err != nil {
		return Record{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	rec := Record{
		StudentID:  studentID,
		CourseID:   courseID,
		SessionID:  sessionID,
		Status:     s.classify(sess.StartTime, occurredAt),
		OccurredAt: occurredAt,
	}
	stored, _, err := s.store.InsertRecord(ctx, rec)
	return stored, err
}

// SynthesizeAbsence materializes an ABSENT record for a student who never
// checked in to a session dated on or before asOf. When a record already
// exists it is returned unchanged with created=false; future sessions are
// left untouched.
func (s *Service) SynthesizeAbsence(ctx context.Context, studentID, courseID, sessionID uint64, asOf time.Time) (Record, bool, error) {
	sess, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, roster.ErrSessionNotFound) {
			return Record{}, false, errSessionNotFound(sessionID)
		}
		return Record{}, false, err
	}

	unlock := s.locks.lock(recordKey(studentID, sessionID))
	defer unlock()

	existing, err := s.store.FindRecord(ctx, studentID, sessionID)
	if err != nil {
		return Record{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	if sess.Date.Format(dateLayout) > asOf.Format(dateLayout) {
		return Record{}, false, nil
	}

	rec := Record{
		StudentID:  studentID,
		CourseID:   courseID,
		SessionID:  sessionID,
		Status:     StatusAbsent,
		OccurredAt: asOf,
	}
	stored, created, err := s.store.InsertRecord(ctx, rec)
	return stored, created, err
}

// HasRecord reports whether the student has any attendance record for the
// session. The participation ledger gates bid submission on it.
func (s *Service) HasRecord(ctx context.Context, studentID, sessionID uint64) (bool, error) {
	rec, err := s.store.FindRecord(ctx, studentID, sessionID)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// RefreshSummary recounts the student's full attendance history in the
// course up to asOf and upserts the summary row. A full recount (never an
// increment) keeps the summary consistent with the ledger across repeated
// or partially failed batch runs.
func (s *Service) RefreshSummary(ctx context.Context, studentID, courseID uint64, asOf time.Time) (Summary, error) {
	records, err := s.store.ListRecords(ctx, studentID, courseID, asOf)
	if err != nil {
		return Summary{}, err
	}

	var present, late, absent int
	for _, r := range records {
		switch r.Status {
		case StatusPresent:
			present++
		case StatusLate:
			late++
		case StatusAbsent:
			absent++
		}
	}

	now := s.now().UTC()
	return s.store.UpsertSummary(ctx, Summary{
		StudentID:    studentID,
		CourseID:     courseID,
		TotalPresent: present,
		TotalLate:    late,
		TotalAbsent:  absent,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// History returns the student's attendance records in the course for
// sessions dated up to asOf.
func (s *Service) History(ctx context.Context, studentID, courseID uint64, asOf time.Time) ([]Record, error) {
	return s.store.ListRecords(ctx, studentID, courseID, asOf)
}

// GetSummary returns the stored summary, or nil when no batch run has
// produced one yet.
func (s *Service) GetSummary(ctx context.Context, studentID, courseID uint64) (*Summary, error) {
	return s.store.GetSummary(ctx, studentID, courseID)
}

// classify applies the late-threshold rule: a check-in at or after
// startTime + threshold (compared on time of day) is LATE, anything
// earlier is PRESENT.
func (s *Service) classify(startTime string, occurredAt time.Time) Status {
	start, err := parseTimeOfDay(startTime)
	if err != nil {
		// malformed schedule rows should not penalize the student
		return StatusPresent
	}
	deadline := start + int(s.lateThreshold/time.Second)
	if secondsOfDay(occurredAt) >= deadline {
		return StatusLate
	}
	return StatusPresent
}

// parseTimeOfDay converts "HH:MM:SS" (or "HH:MM") to seconds since midnight.
func parseTimeOfDay(v string) (int, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(v, "%d:%d:%d", &h, &m, &sec); err != nil {
		if _, err := fmt.Sscanf(v, "%d:%d", &h, &m); err != nil {
			return 0, err
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid time of day %q", v)
	}
	return h*3600 + m*60 + sec, nil
}

func secondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
