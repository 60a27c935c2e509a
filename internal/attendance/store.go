package attendance

import (
	"context"
	"database/sql"
	"time"

	platformdb "myclassmate-backend/internal/platform/db"
)

const dateLayout = "2006-01-02"

// Store is the persistence seam of the package. The MySQL implementation
// below is the real one; tests substitute an in-memory fake.
type Store interface {
	FindRecord(ctx context.Context, studentID, sessionID uint64) (*Record, error)
	InsertRecord(ctx context.Context, rec Record) (Record, bool, error)
	ListRecords(ctx context.Context, studentID, courseID uint64, asOf time.Time) ([]Record, error)
	GetSummary(ctx context.Context, studentID, courseID uint64) (*Summary, error)
	UpsertSummary(ctx context.Context, sum Summary) (Summary, error)
	IsEnrolled(ctx context.Context, studentID, courseID uint64) (bool, error)
}

type mysqlStore struct{ db *sql.DB }

func NewStore(db *sql.DB) Store { return &mysqlStore{db: db} }

const recordColumns = `
	attendance_id, student_id, course_id, course_schedule_id, status, created_at, remark`

func (s *mysqlStore) FindRecord(ctx context.Context, studentID, sessionID uint64) (*Record, error) {
	q := `SELECT` + recordColumns + `
	FROM attendances
	WHERE student_id = ? AND course_schedule_id = ?`
	row := s.db.QueryRowContext(ctx, q, studentID, sessionID)
	var r Record
	err := row.Scan(&r.ID, &r.StudentID, &r.CourseID, &r.SessionID, &r.Status, &r.OccurredAt, &r.Remark)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertRecord writes the record unless one already exists for the
// (student, session) pair. The unique key uq_attendances closes the
// check-then-insert race even across processes: a duplicate-key error is
// answered by fetching and returning the winning row.
// Returns created=false when the row already existed.
func (s *mysqlStore) InsertRecord(ctx context.Context, rec Record) (Record, bool, error) {
	const q = `
	INSERT INTO attendances (student_id, course_id, course_schedule_id, status, created_at, remark)
	VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		rec.StudentID, rec.CourseID, rec.SessionID, string(rec.Status), rec.OccurredAt, rec.Remark)
	if err != nil {
		if platformdb.IsDuplicateKey(err) {
			existing, ferr := s.FindRecord(ctx, rec.StudentID, rec.SessionID)
			if ferr != nil {
				return Record{}, false, ferr
			}
			if existing == nil {
				return Record{}, false, errInternal("duplicate key but row not found")
			}
			return *existing, false, nil
		}
		return Record{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, false, err
	}
	rec.ID = uint64(id)
	return rec, true, nil
}

// ListRecords returns the student's attendance history in a course for
// sessions dated up to and including asOf, in session order.
func (s *mysqlStore) ListRecords(ctx context.Context, studentID, courseID uint64, asOf time.Time) ([]Record, error) {
	const q = `
	SELECT a.attendance_id, a.student_id, a.course_id, a.course_schedule_id, a.status, a.created_at, a.remark
	FROM attendances a
	JOIN course_schedules cs ON cs.course_schedule_id = a.course_schedule_id
	WHERE a.student_id = ? AND a.course_id = ? AND cs.schedule_date <= ?
	ORDER BY cs.schedule_date ASC, a.course_schedule_id ASC`
	rows, err := s.db.QueryContext(ctx, q, studentID, courseID, asOf.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.StudentID, &r.CourseID, &r.SessionID, &r.Status, &r.OccurredAt, &r.Remark); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *mysqlStore) GetSummary(ctx context.Context, studentID, courseID uint64) (*Summary, error) {
	const q = `
	SELECT attendance_summary_id, student_id, course_id, total_present, total_late, total_absent, created_at, updated_at
	FROM attendance_summaries
	WHERE student_id = ? AND course_id = ?`
	row := s.db.QueryRowContext(ctx, q, studentID, courseID)
	var sum Summary
	err := row.Scan(&sum.ID, &sum.StudentID, &sum.CourseID,
		&sum.TotalPresent, &sum.TotalLate, &sum.TotalAbsent, &sum.CreatedAt, &sum.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// UpsertSummary overwrites the three counters; created_at is written once
// on first insert and untouched afterwards.
func (s *mysqlStore) UpsertSummary(ctx context.Context, sum Summary) (Summary, error) {
	const q = `
	INSERT INTO attendance_summaries
		(student_id, course_id, total_present, total_late, total_absent, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		total_present = VALUES(total_present),
		total_late    = VALUES(total_late),
		total_absent  = VALUES(total_absent),
		updated_at    = VALUES(updated_at)`
	_, err := s.db.ExecContext(ctx, q,
		sum.StudentID, sum.CourseID, sum.TotalPresent, sum.TotalLate, sum.TotalAbsent,
		sum.CreatedAt, sum.UpdatedAt)
	if err != nil {
		return Summary{}, err
	}

	stored, err := s.GetSummary(ctx, sum.StudentID, sum.CourseID)
	if err != nil {
		return Summary{}, err
	}
	if stored == nil {
		return Summary{}, errInternal("upserted summary but row not found")
	}
	return *stored, nil
}

func (s *mysqlStore) IsEnrolled(ctx context.Context, studentID, courseID uint64) (bool, error) {
	const q = `SELECT 1 FROM enrollments WHERE student_id = ? AND course_id = ? LIMIT 1`
	var one int
	err := s.db.QueryRowContext(ctx, q, studentID, courseID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
