package roster

import (
	"context"
	"database/sql"
	"time"
)

const dateLayout = "2006-01-02"

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const sessionColumns = `
	course_schedule_id, course_id, schedule_date, start_time, end_time,
	COALESCE(room, ''), COALESCE(remark, '')`

func scanSession(scan func(dest ...any) error) (Session, error) {
	var s Session
	err := scan(&s.ID, &s.CourseID, &s.Date, &s.StartTime, &s.EndTime, &s.Room, &s.Remark)
	return s, err
}

func (s *Store) GetSession(ctx context.Context, sessionID uint64) (*Session, error) {
	q := `SELECT` + sessionColumns + `
	FROM course_schedules
	WHERE course_schedule_id = ?`
	row := s.db.QueryRowContext(ctx, q, sessionID)
	sess, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *Store) ListSessionsForCourse(ctx context.Context, courseID uint64) ([]Session, error) {
	q := `SELECT` + sessionColumns + `
	FROM course_schedules
	WHERE course_id = ?
	ORDER BY schedule_date ASC, course_schedule_id ASC`
	return s.querySessions(ctx, q, courseID)
}

func (s *Store) ListSessionsOn(ctx context.Context, date time.Time) ([]Session, error) {
	q := `SELECT` + sessionColumns + `
	FROM course_schedules
	WHERE schedule_date = ?
	ORDER BY start_time ASC, course_schedule_id ASC`
	return s.querySessions(ctx, q, date.Format(dateLayout))
}

func (s *Store) querySessions(ctx context.Context, q string, args ...any) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// ListEnrollment returns the roster of a course ordered by enrollment time,
// student number as tiebreaker. The ordering feeds stable report rows.
func (s *Store) ListEnrollment(ctx context.Context, courseID uint64) ([]EnrolledStudent, error) {
	const q = `
	SELECT e.student_id, p.student_no, p.name_th, p.name_en, COALESCE(u.email, ''), e.created_at
	FROM enrollments e
	JOIN student_profiles p ON p.user_id = e.student_id
	JOIN users u ON u.user_id = e.student_id
	WHERE e.course_id = ?
	ORDER BY e.created_at ASC, p.student_no ASC`
	rows, err := s.db.QueryContext(ctx, q, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EnrolledStudent
	for rows.Next() {
		var st EnrolledStudent
		if err := rows.Scan(&st.StudentID, &st.StudentNo, &st.NameTh, &st.NameEn, &st.Email, &st.EnrolledAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) GetCourse(ctx context.Context, courseID uint64) (*Course, error) {
	const q = `SELECT course_id, course_code, course_name FROM courses WHERE course_id = ?`
	var c Course
	err := s.db.QueryRowContext(ctx, q, courseID).Scan(&c.ID, &c.Code, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetUserRole(ctx context.Context, userID uint64) (string, error) {
	const q = `SELECT role FROM users WHERE user_id = ?`
	var role string
	err := s.db.QueryRowContext(ctx, q, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}
