package participation

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"myclassmate-backend/internal/roster"
)

const (
	MinScore = 0
	MaxScore = 3
)

// openRoundAttempts bounds the max+1 retry loop when two lecturers open a
// round on the same session at once.
const openRoundAttempts = 3

type SessionDirectory interface {
	GetSession(ctx context.Context, sessionID uint64) (roster.Session, error)
}

// RoleDirectory answers whether a user may open rounds.
type RoleDirectory interface {
	IsLecturer(ctx context.Context, userID uint64) (bool, error)
}

// AttendanceDirectory gates bidding: a student must have checked in to the
// session before requesting participation credit.
type AttendanceDirectory interface {
	HasRecord(ctx context.Context, studentID, sessionID uint64) (bool, error)
}

// Service manages participation rounds and bids for sessions.
type Service struct {
	store      Store
	sessions   SessionDirectory
	roles      RoleDirectory
	attendance AttendanceDirectory
	now        func() time.Time
}

func NewService(db *sql.DB, sessions SessionDirectory, roles RoleDirectory, attendance AttendanceDirectory) *Service {
	return &Service{
		store:      NewStore(db),
		sessions:   sessions,
		roles:      roles,
		attendance: attendance,
		now:        time.Now,
	}
}

// OpenRound creates the next participation round on a session. Round
// numbers are assigned max(existing)+1 and stay monotonic; a blank topic
// is stored as the "-" placeholder.
func (s *Service) OpenRound(ctx context.Context, sessionID, lecturerID uint64, topic string) (Round, error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		if errors.Is(err, roster.ErrSessionNotFound) {
			return Round{}, errSessionNotFound(sessionID)
		}
		return Round{}, err
	}

	isLecturer, err := s.roles.IsLecturer(ctx, lecturerID)
	if err != nil {
		return Round{}, err
	}
	if !isLecturer {
		return Round{}, errNotLecturer(lecturerID)
	}

	if strings.TrimSpace(topic) == "" {
		topic = DefaultTopic
	}

	for attempt := 0; attempt < openRoundAttempts; attempt++ {
		maxRound, err := s.store.MaxRoundNumber(ctx, sessionID)
		if err != nil {
			return Round{}, err
		}

		round, created, err := s.store.InsertRound(ctx, Round{
			SessionID: sessionID,
			Number:    maxRound + 1,
			Topic:     topic,
			Status:    RoundOpen,
			CreatedBy: lecturerID,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return Round{}, err
		}
		if created {
			return round, nil
		}
		// lost the round number to a concurrent open; recompute
	}
	return Round{}, errInternal("could not allocate a round number")
}

// CloseRound transitions a round OPEN -> CLOSE. Closing an already-closed
// round returns its current state unchanged.
func (s *Service) CloseRound(ctx context.Context, roundID uint64) (Round, error) {
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return Round{}, err
	}
	if round == nil {
		return Round{}, errRoundNotFound(roundID)
	}
	if round.Status == RoundClosed {
		return *round, nil
	}

	if err := s.store.MarkRoundClosed(ctx, roundID, s.now().UTC()); err != nil {
		return Round{}, err
	}
	closed, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return Round{}, err
	}
	if closed == nil {
		return Round{}, errRoundNotFound(roundID)
	}
	return *closed, nil
}

func (s *Service) OpenRounds(ctx context.Context, sessionID uint64) ([]Round, error) {
	return s.store.ListOpenRounds(ctx, sessionID)
}

// SubmitBid records a student's participation request in a round. The
// student must hold an attendance record for the round's session; a repeat
// submission returns the existing bid unchanged.
func (s *Service) SubmitBid(ctx context.Context, roundID, studentID uint64) (Bid, error) {
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return Bid{}, err
	}
	if round == nil {
		return Bid{}, errRoundNotFound(roundID)
	}
	if round.Status == RoundClosed {
		return Bid{}, errRoundClosed(roundID)
	}

	hasAttendance, err := s.attendance.HasRecord(ctx, studentID, round.SessionID)
	if err != nil {
		return Bid{}, err
	}
	if !hasAttendance {
		return Bid{}, errAttendanceNotFound(studentID, round.SessionID)
	}

	bid, _, err := s.store.InsertBid(ctx, Bid{
		RoundID:   roundID,
		StudentID: studentID,
		CreatedAt: s.now().UTC(),
	})
	return bid, err
}

func (s *Service) Bids(ctx context.Context, roundID uint64) ([]BidDetail, error) {
	round, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, errRoundNotFound(roundID)
	}
	return s.store.ListBids(ctx, roundID)
}

// BidScore is one entry of an evaluation batch.
type BidScore struct {
	BidID uint64 `json:"participation_request_id" binding:"required"`
	Score int    `json:"score"`
}

// EvaluateOutcome reports what happened to one batch entry.
type EvaluateOutcome struct {
	BidID  uint64 `json:"participation_request_id"`
	Result string `json:"result"` // scored | already_scored | not_found | invalid_score | error
}

// Evaluate processes a batch of bid scores. Each entry is its own unit of
// work: an invalid or missing entry is reported in its outcome and does not
// block the rest. A bid that was already scored keeps its original score.
func (s *Service) Evaluate(ctx context.Context, entries []BidScore) []EvaluateOutcome {
	outcomes := make([]EvaluateOutcome, 0, len(entries))
	for _, e := range entries {
		outcomes = append(outcomes, s.evaluateOne(ctx, e))
	}
	return outcomes
}

func (s *Service) evaluateOne(ctx context.Context, e BidScore) EvaluateOutcome {
	if e.Score < MinScore || e.Score > MaxScore {
		return EvaluateOutcome{BidID: e.BidID, Result: "invalid_score"}
	}

	bid, err := s.store.GetBid(ctx, e.BidID)
	if err != nil {
		log.Printf("[ERROR] evaluate bid %d: %v", e.BidID, err)
		return EvaluateOutcome{BidID: e.BidID, Result: "error"}
	}
	if bid == nil {
		return EvaluateOutcome{BidID: e.BidID, Result: "not_found"}
	}

	scored, err := s.store.ScoreBid(ctx, e.BidID, e.Score)
	if err != nil {
		log.Printf("[ERROR] evaluate bid %d: %v", e.BidID, err)
		return EvaluateOutcome{BidID: e.BidID, Result: "error"}
	}
	if !scored {
		log.Printf("[INFO] bid %d has a score already", e.BidID)
		return EvaluateOutcome{BidID: e.BidID, Result: "already_scored"}
	}
	return EvaluateOutcome{BidID: e.BidID, Result: "scored"}
}

// SessionTotals returns the student's bid count and summed score for one
// session. The daily notification includes it as "today's participation".
func (s *Service) SessionTotals(ctx context.Context, studentID, sessionID uint64) (Totals, error) {
	return s.store.SessionTotals(ctx, studentID, sessionID)
}

// CourseTotals returns the student's cumulative participation in a course.
func (s *Service) CourseTotals(ctx context.Context, studentID, courseID uint64) (Totals, error) {
	return s.store.CourseTotals(ctx, studentID, courseID)
}
