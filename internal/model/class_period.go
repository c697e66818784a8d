package model

import (
	"strconv"
	"strings"
	"time"
)

// ClassPeriod is a scheduled class taught by exactly one teacher. Its
// optional time-of-day window and days mask restrict when passes may be
// requested, if window enforcement is enabled.
type ClassPeriod struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	TeacherID int    `json:"teacher_id"`
	// StartTime and EndTime are 24h "HH:MM" strings; both empty means no window.
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	// DaysMask is a 7-char string of '1'/'0' for Monday..Sunday.
	DaysMask string `json:"days_mask,omitempty"`
	Room     string `json:"room,omitempty"`
	IsActive bool   `json:"is_active"`
}

// InWindow reports whether now falls inside the period's time-of-day window
// and days mask. Periods without a window, or with a malformed one, are
// treated as always open.
func (p *ClassPeriod) InWindow(now time.Time) bool {
	if p.StartTime == "" || p.EndTime == "" {
		return true
	}

	start, ok1 := parseClockMinutes(p.StartTime)
	end, ok2 := parseClockMinutes(p.EndTime)
	if !ok1 || !ok2 {
		return true
	}

	nowMinutes := now.Hour()*60 + now.Minute()
	inTime := start <= nowMinutes && nowMinutes <= end

	if len(p.DaysMask) == 7 {
		// Monday is index 0.
		idx := (int(now.Weekday()) + 6) % 7
		return inTime && p.DaysMask[idx] == '1'
	}
	return inTime
}

func parseClockMinutes(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
