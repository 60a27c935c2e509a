package participation

import (
	"context"
	"errors"
	"testing"
	"time"

	"myclassmate-backend/internal/roster"
)

// ===== fakes =====

type fakeStore struct {
	rounds    []Round
	bids      []Bid
	nextRound uint64
	nextBid   uint64
}

func (f *fakeStore) MaxRoundNumber(_ context.Context, sessionID uint64) (int, error) {
	max := 0
	for _, r := range f.rounds {
		if r.SessionID == sessionID && r.Number > max {
			max = r.Number
		}
	}
	return max, nil
}

func (f *fakeStore) InsertRound(_ context.Context, r Round) (Round, bool, error) {
	for i := range f.rounds {
		if f.rounds[i].SessionID == r.SessionID && f.rounds[i].Number == r.Number {
			return f.rounds[i], false, nil
		}
	}
	f.nextRound++
	r.ID = f.nextRound
	f.rounds = append(f.rounds, r)
	return r, true, nil
}

func (f *fakeStore) GetRound(_ context.Context, roundID uint64) (*Round, error) {
	for i := range f.rounds {
		if f.rounds[i].ID == roundID {
			r := f.rounds[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) MarkRoundClosed(_ context.Context, roundID uint64, at time.Time) error {
	for i := range f.rounds {
		if f.rounds[i].ID == roundID && f.rounds[i].Status == RoundOpen {
			f.rounds[i].Status = RoundClosed
			f.rounds[i].ClosedAt = &at
		}
	}
	return nil
}

func (f *fakeStore) ListOpenRounds(_ context.Context, sessionID uint64) ([]Round, error) {
	var out []Round
	for _, r := range f.rounds {
		if r.SessionID == sessionID && r.Status == RoundOpen {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertBid(_ context.Context, b Bid) (Bid, bool, error) {
	for i := range f.bids {
		if f.bids[i].RoundID == b.RoundID && f.bids[i].StudentID == b.StudentID {
			return f.bids[i], false, nil
		}
	}
	f.nextBid++
	b.ID = f.nextBid
	f.bids = append(f.bids, b)
	return b, true, nil
}

func (f *fakeStore) FindBid(_ context.Context, roundID, studentID uint64) (*Bid, error) {
	for i := range f.bids {
		if f.bids[i].RoundID == roundID && f.bids[i].StudentID == studentID {
			b := f.bids[i]
			return &b, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetBid(_ context.Context, bidID uint64) (*Bid, error) {
	for i := range f.bids {
		if f.bids[i].ID == bidID {
			b := f.bids[i]
			return &b, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ScoreBid(_ context.Context, bidID uint64, score int) (bool, error) {
	for i := range f.bids {
		if f.bids[i].ID == bidID {
			if f.bids[i].IsScored {
				return false, nil
			}
			f.bids[i].IsScored = true
			f.bids[i].Score = score
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListBids(_ context.Context, roundID uint64) ([]BidDetail, error) {
	var out []BidDetail
	for _, b := range f.bids {
		if b.RoundID == roundID {
			out = append(out, BidDetail{Bid: b})
		}
	}
	return out, nil
}

func (f *fakeStore) SessionTotals(_ context.Context, studentID, sessionID uint64) (Totals, error) {
	roundIDs := make(map[uint64]bool)
	for _, r := range f.rounds {
		if r.SessionID == sessionID {
			roundIDs[r.ID] = true
		}
	}
	var t Totals
	for _, b := range f.bids {
		if b.StudentID == studentID && roundIDs[b.RoundID] {
			t.Count++
			t.Score += b.Score
		}
	}
	return t, nil
}

func (f *fakeStore) CourseTotals(_ context.Context, studentID, _ uint64) (Totals, error) {
	var t Totals
	for _, b := range f.bids {
		if b.StudentID == studentID {
			t.Count++
			t.Score += b.Score
		}
	}
	return t, nil
}

type fakeSessions struct{ known map[uint64]bool }

func (f *fakeSessions) GetSession(_ context.Context, id uint64) (roster.Session, error) {
	if f.known[id] {
		return roster.Session{ID: id, CourseID: 1}, nil
	}
	return roster.Session{}, roster.ErrSessionNotFound
}

type fakeRoles struct{ lecturers map[uint64]bool }

func (f *fakeRoles) IsLecturer(_ context.Context, userID uint64) (bool, error) {
	return f.lecturers[userID], nil
}

type fakeAttendance struct{ present map[uint64]bool }

func (f *fakeAttendance) HasRecord(_ context.Context, studentID, _ uint64) (bool, error) {
	return f.present[studentID], nil
}

func newTestService(store *fakeStore) *Service {
	return &Service{
		store:      store,
		sessions:   &fakeSessions{known: map[uint64]bool{10: true}},
		roles:      &fakeRoles{lecturers: map[uint64]bool{1: true}},
		attendance: &fakeAttendance{present: map[uint64]bool{100: true, 101: true}},
		now:        time.Now,
	}
}

// ===== tests =====

func TestOpenRoundNumbering(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		round, err := svc.OpenRound(ctx, 10, 1, "quiz")
		if err != nil {
			t.Fatalf("OpenRound() error = %v", err)
		}
		if round.Number != want {
			t.Errorf("round number = %d, want %d", round.Number, want)
		}
		if round.Status != RoundOpen {
			t.Errorf("round status = %s, want OPEN", round.Status)
		}
	}

	// closing round 2 does not free its number
	if _, err := svc.CloseRound(ctx, 2); err != nil {
		t.Fatalf("CloseRound() error = %v", err)
	}
	round, err := svc.OpenRound(ctx, 10, 1, "quiz")
	if err != nil {
		t.Fatalf("OpenRound() after close error = %v", err)
	}
	if round.Number != 4 {
		t.Errorf("round number after close = %d, want 4", round.Number)
	}
}

func TestOpenRoundDefaultsTopic(t *testing.T) {
	svc := newTestService(&fakeStore{})

	round, err := svc.OpenRound(context.Background(), 10, 1, "   ")
	if err != nil {
		t.Fatalf("OpenRound() error = %v", err)
	}
	if round.Topic != DefaultTopic {
		t.Errorf("topic = %q, want %q", round.Topic, DefaultTopic)
	}
}

func TestOpenRoundGates(t *testing.T) {
	svc := newTestService(&fakeStore{})
	ctx := context.Background()

	_, err := svc.OpenRound(ctx, 99, 1, "quiz")
	var api *APIError
	if !errors.As(err, &api) || api.Code != CodeSessionNotFound {
		t.Errorf("unknown session error = %v, want SESSION_NOT_FOUND", err)
	}

	_, err = svc.OpenRound(ctx, 10, 100, "quiz")
	if !errors.As(err, &api) || api.Code != CodeNotLecturer {
		t.Errorf("student opening round error = %v, want NOT_LECTURER", err)
	}
}

func TestCloseRoundIdempotent(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)
	ctx := context.Background()

	round, err := svc.OpenRound(ctx, 10, 1, "quiz")
	if err != nil {
		t.Fatalf("OpenRound() error = %v", err)
	}

	closed, err := svc.CloseRound(ctx, round.ID)
	if err != nil {
		t.Fatalf("CloseRound() error = %v", err)
	}
	if closed.Status != RoundClosed || closed.ClosedAt == nil {
		t.Errorf("closed round = %+v, want CLOSE with timestamp", closed)
	}

	again, err := svc.CloseRound(ctx, round.ID)
	if err != nil {
		t.Fatalf("second CloseRound() error = %v", err)
	}
	if !again.ClosedAt.Equal(*closed.ClosedAt) {
		t.Error("second close changed the close timestamp")
	}
}

func TestSubmitBid(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)
	ctx := context.Background()

	round, err := svc.OpenRound(ctx, 10, 1, "quiz")
	if err != nil {
		t.Fatalf("OpenRound() error = %v", err)
	}

	bid, err := svc.SubmitBid(ctx, round.ID, 100)
	if err != nil {
		t.Fatalf("SubmitBid() error = %v", err)
	}

	// duplicate submission returns the same bid
	again, err := svc.SubmitBid(ctx, round.ID, 100)
	if err != nil {
		t.Fatalf("repeat SubmitBid() error = %v", err)
	}
	if again.ID != bid.ID || len(store.bids) != 1 {
		t.Errorf("repeat bid = %+v (stored %d), want the first bid only", again, len(store.bids))
	}

	// no attendance record, no bid
	var api *APIError
	_, err = svc.SubmitBid(ctx, round.ID, 999)
	if !errors.As(err, &api) || api.Code != CodeAttendanceNotFound {
		t.Errorf("no-attendance bid error = %v, want ATTENDANCE_NOT_FOUND", err)
	}

	// closed round rejects new bids
	if _, err := svc.CloseRound(ctx, round.ID); err != nil {
		t.Fatalf("CloseRound() error = %v", err)
	}
	_, err = svc.SubmitBid(ctx, round.ID, 101)
	if !errors.As(err, &api) || api.Code != CodeRoundClosed {
		t.Errorf("closed-round bid error = %v, want ROUND_CLOSED", err)
	}
}

func TestEvaluateBatch(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)
	ctx := context.Background()

	round, _ := svc.OpenRound(ctx, 10, 1, "quiz")
	bid1, _ := svc.SubmitBid(ctx, round.ID, 100)
	bid2, _ := svc.SubmitBid(ctx, round.ID, 101)

	outcomes := svc.Evaluate(ctx, []BidScore{
		{BidID: bid1.ID, Score: 2},
		{BidID: bid2.ID, Score: 5},
		{BidID: 999, Score: 1},
	})

	want := []string{"scored", "invalid_score", "not_found"}
	for i, o := range outcomes {
		if o.Result != want[i] {
			t.Errorf("outcome[%d] = %s, want %s", i, o.Result, want[i])
		}
	}

	// re-scoring keeps the original score
	outcomes = svc.Evaluate(ctx, []BidScore{{BidID: bid1.ID, Score: 3}})
	if outcomes[0].Result != "already_scored" {
		t.Errorf("re-score result = %s, want already_scored", outcomes[0].Result)
	}
	stored, _ := store.GetBid(ctx, bid1.ID)
	if stored.Score != 2 {
		t.Errorf("score after re-score attempt = %d, want 2", stored.Score)
	}
}

func TestTotals(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)
	ctx := context.Background()

	r1, _ := svc.OpenRound(ctx, 10, 1, "quiz")
	r2, _ := svc.OpenRound(ctx, 10, 1, "debate")
	b1, _ := svc.SubmitBid(ctx, r1.ID, 100)
	b2, _ := svc.SubmitBid(ctx, r2.ID, 100)
	b3, _ := svc.SubmitBid(ctx, r1.ID, 101)

	svc.Evaluate(ctx, []BidScore{
		{BidID: b1.ID, Score: 2},
		{BidID: b2.ID, Score: 3},
	})

	got, err := svc.SessionTotals(ctx, 100, 10)
	if err != nil {
		t.Fatalf("SessionTotals() error = %v", err)
	}
	if got.Count != 2 || got.Score != 5 {
		t.Errorf("session totals = %+v, want {2 5}", got)
	}

	// an unscored bid counts toward the tally with a score of 0
	_ = b3
	got, err = svc.SessionTotals(ctx, 101, 10)
	if err != nil {
		t.Fatalf("SessionTotals() error = %v", err)
	}
	if got.Count != 1 || got.Score != 0 {
		t.Errorf("unscored totals = %+v, want {1 0}", got)
	}
}
