package roster

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrCourseNotFound  = errors.New("course not found")
)

// Service is the read side of the course roster: sessions, enrollments and
// user identities. The attendance, participation, report and notification
// packages all consume it through narrow interfaces.
type Service struct {
	store *Store
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

func (s *Service) GetSession(ctx context.Context, sessionID uint64) (Session, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if sess == nil {
		return Session{}, ErrSessionNotFound
	}
	return *sess, nil
}

func (s *Service) GetSessionsForCourse(ctx context.Context, courseID uint64) ([]Session, error) {
	return s.store.ListSessionsForCourse(ctx, courseID)
}

func (s *Service) GetSessionsScheduledOn(ctx context.Context, date time.Time) ([]Session, error) {
	return s.store.ListSessionsOn(ctx, date)
}

func (s *Service) GetEnrollment(ctx context.Context, courseID uint64) ([]EnrolledStudent, error) {
	return s.store.ListEnrollment(ctx, courseID)
}

func (s *Service) GetCourse(ctx context.Context, courseID uint64) (Course, error) {
	c, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	if c == nil {
		return Course{}, ErrCourseNotFound
	}
	return *c, nil
}

// IsLecturer reports whether userID exists and carries the LECTURER role.
func (s *Service) IsLecturer(ctx context.Context, userID uint64) (bool, error) {
	role, err := s.store.GetUserRole(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == "LECTURER", nil
}
