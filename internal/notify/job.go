package notify

import (
	"context"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"myclassmate-backend/internal/attendance"
	"myclassmate-backend/internal/participation"
	"myclassmate-backend/internal/roster"
)

// ===== Dependencies =====

type RosterDirectory interface {
	GetSessionsScheduledOn(ctx context.Context, date time.Time) ([]roster.Session, error)
	GetSessionsForCourse(ctx context.Context, courseID uint64) ([]roster.Session, error)
	GetEnrollment(ctx context.Context, courseID uint64) ([]roster.EnrolledStudent, error)
	GetCourse(ctx context.Context, courseID uint64) (roster.Course, error)
}

type AttendanceLedger interface {
	SynthesizeAbsence(ctx context.Context, studentID, courseID, sessionID uint64, asOf time.Time) (attendance.Record, bool, error)
	RefreshSummary(ctx context.Context, studentID, courseID uint64, asOf time.Time) (attendance.Summary, error)
}

type ParticipationLedger interface {
	SessionTotals(ctx context.Context, studentID, sessionID uint64) (participation.Totals, error)
	CourseTotals(ctx context.Context, studentID, courseID uint64) (participation.Totals, error)
}

// ===== Job =====

// RunStats summarizes one batch run.
type RunStats struct {
	RunID          string `json:"run_id"`
	Date           string `json:"date"`
	Sessions       int    `json:"schedules"`
	Processed      int    `json:"processed"`
	Emailed        int    `json:"emailed"`
	SkippedNoEmail int    `json:"skipped_no_email"`
	Failed         int    `json:"failed"`
}

// Job runs the end-of-day summary: it closes out attendance for every
// session held on the run date, recounts summaries, and emails each
// enrolled student their standing. Failures are logged per student and
// never abort the run.
type Job struct {
	roster        RosterDirectory
	attendance    AttendanceLedger
	participation ParticipationLedger
	email         EmailService
	newID         func() string
}

func NewJob(r RosterDirectory, a AttendanceLedger, p ParticipationLedger, email EmailService) *Job {
	return &Job{
		roster:        r,
		attendance:    a,
		participation: p,
		email:         email,
		newID:         func() string { return ulid.Make().String() },
	}
}

// RunDailySummary processes every session scheduled on asOf's date. It is
// idempotent: re-running synthesizes no duplicate records and recounted
// summaries converge to the same values.
func (j *Job) RunDailySummary(ctx context.Context, asOf time.Time) (RunStats, error) {
	stats := RunStats{RunID: j.newID(), Date: asOf.Format("2006-01-02")}
	log.Printf("[INFO] daily summary run %s started for %s", stats.RunID, stats.Date)

	sessions, err := j.roster.GetSessionsScheduledOn(ctx, asOf)
	if err != nil {
		return stats, err
	}
	stats.Sessions = len(sessions)

	for _, sess := range sessions {
		course, err := j.roster.GetCourse(ctx, sess.CourseID)
		if err != nil {
			log.Printf("[WARN] run %s: course %d: %v", stats.RunID, sess.CourseID, err)
			stats.Failed++
			continue
		}
		courseSessions, err := j.roster.GetSessionsForCourse(ctx, sess.CourseID)
		if err != nil {
			log.Printf("[WARN] run %s: schedules for course %d: %v", stats.RunID, sess.CourseID, err)
			stats.Failed++
			continue
		}
		students, err := j.roster.GetEnrollment(ctx, sess.CourseID)
		if err != nil {
			log.Printf("[WARN] run %s: enrollment for course %d: %v", stats.RunID, sess.CourseID, err)
			stats.Failed++
			continue
		}

		for _, st := range students {
			stats.Processed++
			emailed, err := j.processStudent(ctx, course, sess, st, len(courseSessions), asOf)
			if err != nil {
				log.Printf("[WARN] run %s: student %d session %d: %v",
					stats.RunID, st.StudentID, sess.ID, err)
				stats.Failed++
				continue
			}
			if emailed {
				stats.Emailed++
			} else {
				stats.SkippedNoEmail++
			}
		}
	}

	log.Printf("[INFO] daily summary run %s finished: sessions=%d processed=%d emailed=%d skipped=%d failed=%d",
		stats.RunID, stats.Sessions, stats.Processed, stats.Emailed, stats.SkippedNoEmail, stats.Failed)
	return stats, nil
}

func (j *Job) processStudent(ctx context.Context, course roster.Course, sess roster.Session, st roster.EnrolledStudent, totalSessions int, asOf time.Time) (bool, error) {
	rec, _, err := j.attendance.SynthesizeAbsence(ctx, st.StudentID, sess.CourseID, sess.ID, asOf)
	if err != nil {
		return false, err
	}

	summary, err := j.attendance.RefreshSummary(ctx, st.StudentID, sess.CourseID, asOf)
	if err != nil {
		return false, err
	}

	if st.Email == "" {
		return false, nil
	}

	sessTotals, err := j.participation.SessionTotals(ctx, st.StudentID, sess.ID)
	if err != nil {
		return false, err
	}
	courseTotals, err := j.participation.CourseTotals(ctx, st.StudentID, sess.CourseID)
	if err != nil {
		return false, err
	}

	msg := Message{
		StudentName:   st.NameTh,
		CourseName:    course.Name,
		SessionDate:   sess.Date,
		Status:        rec.Status,
		Summary:       summary,
		TotalSessions: totalSessions,
		SessionCount:  sessTotals.Count,
		SessionScore:  sessTotals.Score,
		CourseCount:   courseTotals.Count,
		CourseScore:   courseTotals.Score,
		AbsentRate:    absentRate(summary, totalSessions),
	}
	if err := j.email.Send(ctx, st.Email, msg.Subject(), msg.HTMLBody()); err != nil {
		return false, err
	}
	return true, nil
}

// absentRate is the share of absences over the course's full schedule.
func absentRate(s attendance.Summary, totalSessions int) float64 {
	if totalSessions == 0 {
		return 0
	}
	return float64(s.TotalAbsent) / float64(totalSessions) * 100
}
