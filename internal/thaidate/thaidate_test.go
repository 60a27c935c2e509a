package thaidate

import (
	"testing"
	"time"
)

func TestBuddhistDate(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), want: "1 มิ.ย. 2567"},
		{date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), want: "31 ม.ค. 2567"},
		{date: time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC), want: "25 ธ.ค. 2568"},
	}
	for _, tt := range tests {
		if got := BuddhistDate(tt.date); got != tt.want {
			t.Errorf("BuddhistDate(%v) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestSessionHeader(t *testing.T) {
	// 2024-06-01 was a Saturday
	got := SessionHeader(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	want := "วันเสาร์ที่ 1 มิ.ย. 2567"
	if got != want {
		t.Errorf("SessionHeader() = %q, want %q", got, want)
	}
}
