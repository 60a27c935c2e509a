package participation

import (
	"context"
	"database/sql"
	"time"

	platformdb "myclassmate-backend/internal/platform/db"
)

type Store interface {
	MaxRoundNumber(ctx context.Context, sessionID uint64) (int, error)
	InsertRound(ctx context.Context, r Round) (Round, bool, error)
	GetRound(ctx context.Context, roundID uint64) (*Round, error)
	MarkRoundClosed(ctx context.Context, roundID uint64, at time.Time) error
	ListOpenRounds(ctx context.Context, sessionID uint64) ([]Round, error)
	InsertBid(ctx context.Context, b Bid) (Bid, bool, error)
	FindBid(ctx context.Context, roundID, studentID uint64) (*Bid, error)
	GetBid(ctx context.Context, bidID uint64) (*Bid, error)
	ScoreBid(ctx context.Context, bidID uint64, score int) (bool, error)
	ListBids(ctx context.Context, roundID uint64) ([]BidDetail, error)
	SessionTotals(ctx context.Context, studentID, sessionID uint64) (Totals, error)
	CourseTotals(ctx context.Context, studentID, courseID uint64) (Totals, error)
}

type mysqlStore struct{ db *sql.DB }

func NewStore(db *sql.DB) Store { return &mysqlStore{db: db} }

func (s *mysqlStore) MaxRoundNumber(ctx context.Context, sessionID uint64) (int, error) {
	const q = `SELECT COALESCE(MAX(round), 0) FROM participations WHERE course_schedule_id = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, sessionID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// InsertRound persists the round. UNIQUE(course_schedule_id, round) makes a
// concurrent max+1 collision visible as a duplicate key; created=false
// tells the caller to recompute and retry.
func (s *mysqlStore) InsertRound(ctx context.Context, r Round) (Round, bool, error) {
	const q = `
	INSERT INTO participations (course_schedule_id, round, topic, status, created_by, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		r.SessionID, r.Number, r.Topic, string(r.Status), r.CreatedBy, r.CreatedAt)
	if err != nil {
		if platformdb.IsDuplicateKey(err) {
			return Round{}, false, nil
		}
		return Round{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Round{}, false, err
	}
	r.ID = uint64(id)
	return r, true, nil
}

const roundColumns = `
	participation_id, course_schedule_id, round, topic, status, created_by, created_at, closed_at`

func (s *mysqlStore) GetRound(ctx context.Context, roundID uint64) (*Round, error) {
	q := `SELECT` + roundColumns + ` FROM participations WHERE participation_id = ?`
	row := s.db.QueryRowContext(ctx, q, roundID)
	var r Round
	err := row.Scan(&r.ID, &r.SessionID, &r.Number, &r.Topic, &r.Status, &r.CreatedBy, &r.CreatedAt, &r.ClosedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// MarkRoundClosed transitions OPEN -> CLOSE. Already-closed rounds are left
// untouched, keeping the original closed_at.
func (s *mysqlStore) MarkRoundClosed(ctx context.Context, roundID uint64, at time.Time) error {
	const q = `
	UPDATE participations
	SET status = 'CLOSE', closed_at = ?
	WHERE participation_id = ? AND status = 'OPEN'`
	_, err := s.db.ExecContext(ctx, q, at, roundID)
	return err
}

func (s *mysqlStore) ListOpenRounds(ctx context.Context, sessionID uint64) ([]Round, error) {
	q := `SELECT` + roundColumns + `
	FROM participations
	WHERE course_schedule_id = ? AND status = 'OPEN'
	ORDER BY round ASC`
	rows, err := s.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Round
	for rows.Next() {
		var r Round
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Number, &r.Topic, &r.Status, &r.CreatedBy, &r.CreatedAt, &r.ClosedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertBid writes the bid unless the student already has one in the round;
// UNIQUE(participation_id, student_id) closes the duplicate-submit race and
// the existing row is fetched and returned instead.
func (s *mysqlStore) InsertBid(ctx context.Context, b Bid) (Bid, bool, error) {
	const q = `
	INSERT INTO participation_requests (participation_id, student_id, created_at, is_scored, score)
	VALUES (?, ?, ?, 0, 0)`
	res, err := s.db.ExecContext(ctx, q, b.RoundID, b.StudentID, b.CreatedAt)
	if err != nil {
		if platformdb.IsDuplicateKey(err) {
			existing, ferr := s.FindBid(ctx, b.RoundID, b.StudentID)
			if ferr != nil {
				return Bid{}, false, ferr
			}
			if existing == nil {
				return Bid{}, false, errInternal("duplicate key but bid not found")
			}
			return *existing, false, nil
		}
		return Bid{}, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Bid{}, false, err
	}
	b.ID = uint64(id)
	b.IsScored = false
	b.Score = 0
	return b, true, nil
}

const bidColumns = `
	participation_request_id, participation_id, student_id, created_at, is_scored, score`

func (s *mysqlStore) FindBid(ctx context.Context, roundID, studentID uint64) (*Bid, error) {
	q := `SELECT` + bidColumns + `
	FROM participation_requests
	WHERE participation_id = ? AND student_id = ?`
	return s.scanBid(s.db.QueryRowContext(ctx, q, roundID, studentID))
}

func (s *mysqlStore) GetBid(ctx context.Context, bidID uint64) (*Bid, error) {
	q := `SELECT` + bidColumns + ` FROM participation_requests WHERE participation_request_id = ?`
	return s.scanBid(s.db.QueryRowContext(ctx, q, bidID))
}

func (s *mysqlStore) scanBid(row *sql.Row) (*Bid, error) {
	var b Bid
	err := row.Scan(&b.ID, &b.RoundID, &b.StudentID, &b.CreatedAt, &b.IsScored, &b.Score)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ScoreBid sets the score exactly once. The is_scored guard in the WHERE
// clause makes re-scoring a no-op at the database level; the return value
// reports whether this call did the write.
func (s *mysqlStore) ScoreBid(ctx context.Context, bidID uint64, score int) (bool, error) {
	const q = `
	UPDATE participation_requests
	SET score = ?, is_scored = 1
	WHERE participation_request_id = ? AND is_scored = 0`
	res, err := s.db.ExecContext(ctx, q, score, bidID)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff == 1, nil
}

func (s *mysqlStore) ListBids(ctx context.Context, roundID uint64) ([]BidDetail, error) {
	const q = `
	SELECT r.participation_request_id, r.participation_id, r.student_id, r.created_at, r.is_scored, r.score,
	       p.student_no, p.name_th, p.name_en
	FROM participation_requests r
	JOIN student_profiles p ON p.user_id = r.student_id
	WHERE r.participation_id = ?
	ORDER BY r.created_at ASC, r.participation_request_id ASC`
	rows, err := s.db.QueryContext(ctx, q, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BidDetail
	for rows.Next() {
		var d BidDetail
		if err := rows.Scan(&d.ID, &d.RoundID, &d.StudentID, &d.CreatedAt, &d.IsScored, &d.Score,
			&d.StudentNo, &d.NameTh, &d.NameEn); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SessionTotals counts the student's bids and sums their scores across all
// rounds of one session. Unscored bids count toward the tally with a score
// of 0.
func (s *mysqlStore) SessionTotals(ctx context.Context, studentID, sessionID uint64) (Totals, error) {
	const q = `
	SELECT COUNT(r.participation_request_id), COALESCE(SUM(r.score), 0)
	FROM participations p
	JOIN participation_requests r ON r.participation_id = p.participation_id AND r.student_id = ?
	WHERE p.course_schedule_id = ?`
	var t Totals
	if err := s.db.QueryRowContext(ctx, q, studentID, sessionID).Scan(&t.Count, &t.Score); err != nil {
		return Totals{}, err
	}
	return t, nil
}

// CourseTotals aggregates the student's bids over the whole course.
func (s *mysqlStore) CourseTotals(ctx context.Context, studentID, courseID uint64) (Totals, error) {
	const q = `
	SELECT COUNT(r.participation_request_id), COALESCE(SUM(r.score), 0)
	FROM course_schedules cs
	JOIN participations p ON p.course_schedule_id = cs.course_schedule_id
	JOIN participation_requests r ON r.participation_id = p.participation_id AND r.student_id = ?
	WHERE cs.course_id = ?`
	var t Totals
	if err := s.db.QueryRowContext(ctx, q, studentID, courseID).Scan(&t.Count, &t.Score); err != nil {
		return Totals{}, err
	}
	return t, nil
}
