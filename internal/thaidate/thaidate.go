// Package thaidate formats dates in the Thai Buddhist calendar for report
// headers and notification emails.
package thaidate

import (
	"fmt"
	"time"
)

var thaiMonths = [12]string{
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

var thaiDays = map[time.Weekday]string{
	time.Monday:    "วันจันทร์",
	time.Tuesday:   "วันอังคาร",
	time.Wednesday: "วันพุธ",
	time.Thursday:  "วันพฤหัสบดี",
	time.Friday:    "วันศุกร์",
	time.Saturday:  "วันเสาร์",
	time.Sunday:    "วันอาทิตย์",
}

// BuddhistDate renders "2 มิ.ย. 2567" (day, abbreviated Thai month,
// Buddhist-era year = Gregorian + 543).
func BuddhistDate(date time.Time) string {
	return fmt.Sprintf("%d %s %d",
		date.Day(), thaiMonths[date.Month()-1], date.Year()+543)
}

// SessionHeader renders the full report-column header for a session date,
// e.g. "วันเสาร์ที่ 1 มิ.ย. 2567".
func SessionHeader(date time.Time) string {
	return fmt.Sprintf("%sที่ %s", thaiDays[date.Weekday()], BuddhistDate(date))
}
