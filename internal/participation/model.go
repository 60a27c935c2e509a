package participation

import "time"

type RoundStatus string

const (
	RoundOpen   RoundStatus = "OPEN"
	RoundClosed RoundStatus = "CLOSE"
)

// DefaultTopic stands in for a blank topic; the stored placeholder is
// observable in reports and kept as-is.
const DefaultTopic = "-"

// Round is one solicitation of in-class participation within a session.
// Number is 1-based and monotonic per session: max(existing)+1, never
// reused even after deletions.
type Round struct {
	ID        uint64      `json:"participation_id"`
	SessionID uint64      `json:"course_schedule_id"`
	Number    int         `json:"round"`
	Topic     string      `json:"topic"`
	Status    RoundStatus `json:"status"`
	CreatedBy uint64      `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
	ClosedAt  *time.Time  `json:"closed_at,omitempty"`
}

// Bid is a student's request to be credited for participation in a round.
// At most one exists per (RoundID, StudentID); Score is written exactly
// once, when IsScored flips to true.
type Bid struct {
	ID        uint64    `json:"participation_request_id"`
	RoundID   uint64    `json:"participation_id"`
	StudentID uint64    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
	IsScored  bool      `json:"is_scored"`
	Score     int       `json:"score"`
}

// BidDetail is a bid joined with the student's identity, for listings.
type BidDetail struct {
	Bid
	StudentNo string `json:"student_no"`
	NameTh    string `json:"student_name_th"`
	NameEn    string `json:"student_name_en"`
}

// Totals aggregates a student's bids: how many, and their summed score.
type Totals struct {
	Count int `json:"total_participations"`
	Score int `json:"total_score"`
}
