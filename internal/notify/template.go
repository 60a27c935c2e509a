package notify

import (
	"fmt"
	"strings"
	"time"

	"myclassmate-backend/internal/attendance"
	"myclassmate-backend/internal/thaidate"
)

// Message holds everything one daily summary email needs for one student
// in one session.
type Message struct {
	StudentName   string
	CourseName    string
	SessionDate   time.Time
	Status        attendance.Status
	Summary       attendance.Summary
	TotalSessions int // every scheduled session of the course
	SessionCount  int // bids in this session
	SessionScore  int
	CourseCount   int // bids across the course so far
	CourseScore   int
	AbsentRate    float64 // percentage over TotalSessions
}

func (m Message) Subject() string {
	return fmt.Sprintf("[MyClassmate] สรุปการเข้าเรียนและการมีส่วนร่วม วิชา %s ประจำวันที่ %s",
		m.CourseName, thaidate.BuddhistDate(m.SessionDate))
}

func (m Message) HTMLBody() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>เรียน %s</p>", m.StudentName)
	fmt.Fprintf(&b, "<p>สรุปผลวิชา <b>%s</b> ประจำวันที่ %s</p>",
		m.CourseName, thaidate.BuddhistDate(m.SessionDate))

	fmt.Fprintf(&b, `<p>สถานะการเข้าเรียน: <span style="color:%s;font-weight:bold">%s</span>%s</p>`,
		m.Status.Color(), m.Status.Label(), m.absenceNote())

	fmt.Fprintf(&b, "<p>สรุปการเข้าเรียนสะสม: ตรงเวลา %d ครั้ง, สาย %d ครั้ง, ขาด %d ครั้ง<br>",
		m.Summary.TotalPresent, m.Summary.TotalLate, m.Summary.TotalAbsent)
	fmt.Fprintf(&b, "จากจำนวนครั้งที่จะมีการเรียนการสอนทั้งหมด: %d ครั้ง</p>", m.TotalSessions)

	fmt.Fprintf(&b, "<p>การมีส่วนร่วมในคาบนี้: %d ครั้ง รวม %d คะแนน<br>",
		m.SessionCount, m.SessionScore)
	fmt.Fprintf(&b, "การมีส่วนร่วมสะสมทั้งวิชา: %d ครั้ง รวม %d คะแนน</p>",
		m.CourseCount, m.CourseScore)

	b.WriteString("<p>ขอบคุณครับ/ค่ะ<br>MyClassmate</p>")
	return b.String()
}

// absenceNote appends the absence rate over the full schedule to the
// status line. A zero rate renders nothing.
func (m Message) absenceNote() string {
	if m.AbsentRate == 0 {
		return ""
	}
	return fmt.Sprintf(" (ปัจจุบันอัตราการขาดเรียนคิดเป็นร้อยละ %.2f%% ของคาบเรียนที่ผ่านมา)", m.AbsentRate)
}
