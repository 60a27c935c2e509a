package report

import (
	"context"
	"database/sql"

	"myclassmate-backend/internal/attendance"
	platformdb "myclassmate-backend/internal/platform/db"
	"myclassmate-backend/internal/roster"
)

type Store interface {
	Load(ctx context.Context, courseID uint64) (Data, error)
}

type mysqlStore struct{ db *sql.DB }

func NewStore(db *sql.DB) Store { return &mysqlStore{db: db} }

// Load gathers everything the report needs inside one read-only
// transaction, so concurrent check-ins or evaluations cannot skew the
// matrix halfway through.
func (s *mysqlStore) Load(ctx context.Context, courseID uint64) (Data, error) {
	var data Data
	err := platformdb.ReadOnly(ctx, s.db, func(ctx context.Context, tx platformdb.DBTX) error {
		if err := s.loadCourse(ctx, tx, courseID, &data); err != nil {
			return err
		}
		if err := s.loadSessions(ctx, tx, courseID, &data); err != nil {
			return err
		}
		if err := s.loadRoster(ctx, tx, courseID, &data); err != nil {
			return err
		}
		if err := s.loadAttendance(ctx, tx, courseID, &data); err != nil {
			return err
		}
		return s.loadParticipation(ctx, tx, courseID, &data)
	})
	if err != nil {
		return Data{}, err
	}
	return data, nil
}

func (s *mysqlStore) loadCourse(ctx context.Context, tx platformdb.DBTX, courseID uint64, data *Data) error {
	const q = `SELECT course_id, course_code, course_name FROM courses WHERE course_id = ?`
	err := tx.QueryRowContext(ctx, q, courseID).Scan(&data.Course.ID, &data.Course.Code, &data.Course.Name)
	if err == sql.ErrNoRows {
		return errCourseNotFound(courseID)
	}
	return err
}

func (s *mysqlStore) loadSessions(ctx context.Context, tx platformdb.DBTX, courseID uint64, data *Data) error {
	const q = `
	SELECT course_schedule_id, course_id, schedule_date, start_time, end_time,
	       COALESCE(room, ''), COALESCE(remark, '')
	FROM course_schedules
	WHERE course_id = ?
	ORDER BY schedule_date ASC, course_schedule_id ASC`
	rows, err := tx.QueryContext(ctx, q, courseID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sess roster.Session
		if err := rows.Scan(&sess.ID, &sess.CourseID, &sess.Date, &sess.StartTime, &sess.EndTime,
			&sess.Room, &sess.Remark); err != nil {
			return err
		}
		data.Sessions = append(data.Sessions, sess)
	}
	return rows.Err()
}

func (s *mysqlStore) loadRoster(ctx context.Context, tx platformdb.DBTX, courseID uint64, data *Data) error {
	const q = `
	SELECT e.student_id, p.student_no, p.name_th, p.name_en, COALESCE(u.email, ''), e.created_at
	FROM enrollments e
	JOIN student_profiles p ON p.user_id = e.student_id
	JOIN users u ON u.user_id = e.student_id
	WHERE e.course_id = ?
	ORDER BY e.created_at ASC, p.student_no ASC`
	rows, err := tx.QueryContext(ctx, q, courseID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var st roster.EnrolledStudent
		if err := rows.Scan(&st.StudentID, &st.StudentNo, &st.NameTh, &st.NameEn, &st.Email, &st.EnrolledAt); err != nil {
			return err
		}
		data.Roster = append(data.Roster, st)
	}
	return rows.Err()
}

func (s *mysqlStore) loadAttendance(ctx context.Context, tx platformdb.DBTX, courseID uint64, data *Data) error {
	const q = `
	SELECT course_schedule_id, student_id, status, created_at
	FROM attendances
	WHERE course_id = ?`
	rows, err := tx.QueryContext(ctx, q, courseID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r AttendanceRow
		var status string
		if err := rows.Scan(&r.SessionID, &r.StudentID, &status, &r.OccurredAt); err != nil {
			return err
		}
		r.Status = attendance.Status(status)
		data.Attendance = append(data.Attendance, r)
	}
	return rows.Err()
}

func (s *mysqlStore) loadParticipation(ctx context.Context, tx platformdb.DBTX, courseID uint64, data *Data) error {
	const q = `
	SELECT p.course_schedule_id, p.round, p.topic, r.student_id, r.is_scored, r.score
	FROM course_schedules cs
	JOIN participations p ON p.course_schedule_id = cs.course_schedule_id
	LEFT JOIN participation_requests r ON r.participation_id = p.participation_id
	WHERE cs.course_id = ?
	ORDER BY p.participation_id ASC, r.created_at ASC, r.participation_request_id ASC`
	rows, err := tx.QueryContext(ctx, q, courseID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r ParticipationRow
		var studentID sql.NullInt64
		var isScored sql.NullBool
		var score sql.NullInt64
		if err := rows.Scan(&r.SessionID, &r.Round, &r.Topic, &studentID, &isScored, &score); err != nil {
			return err
		}
		// rounds without bids come back with NULL request columns; keep the
		// round visible with a zero student id
		if studentID.Valid {
			r.StudentID = uint64(studentID.Int64)
			r.IsScored = isScored.Bool
			r.Score = int(score.Int64)
		}
		data.Participation = append(data.Participation, r)
	}
	return rows.Err()
}
