package schedule

import "time"

// QuietWindow is a recurring interval during which the scheduler
// behaves as if quiet_until were set. The scheduler re-evaluates it on
// every tick and, while inside it, writes the window's end into the
// quiet_until of the state that tick saves. It is bounded by a start
// schedule and a duration.
type QuietWindow struct {
	Start    CronSchedule
	Duration time.Duration
}

// ParseQuietWindow parses "<start-cron-expr>+<duration>", e.g.
// "daily:02:00+5h" or "weekly:Sat+24h".
func ParseQuietWindow(expr string) (QuietWindow, error) {
	startExpr, durExpr, ok := splitLast(expr, '+')
	if !ok {
		return QuietWindow{}, errInvalidQuietWindow(expr)
	}
	start, err := ParseCronExpr(startExpr)
	if err != nil {
		return QuietWindow{}, err
	}
	dur, err := time.ParseDuration(durExpr)
	if err != nil {
		return QuietWindow{}, errInvalidQuietWindow(expr)
	}
	return QuietWindow{Start: start, Duration: dur}, nil
}

// Contains reports whether t falls inside the most recent occurrence of
// the window, returning the window's end time when true.
func (w QuietWindow) Contains(t time.Time) (bool, time.Time) {
	// NextAfter(t) is the first start strictly after t. CronSchedule has
	// no explicit period, so step back one day/week from it to reach the
	// most recent start at or before t.
	candidate := w.Start.NextAfter(t)
	for candidate.After(t) {
		candidate = w.previousBefore(candidate)
	}
	end := candidate.Add(w.Duration)
	if t.Before(candidate) || !t.Before(end) {
		return false, time.Time{}
	}
	return true, end
}

func (w QuietWindow) previousBefore(t time.Time) time.Time {
	if w.Start.Weekday != nil {
		return t.AddDate(0, 0, -7)
	}
	return t.AddDate(0, 0, -1)
}

func errInvalidQuietWindow(expr string) error {
	return &invalidQuietWindowError{expr: expr}
}

type invalidQuietWindowError struct{ expr string }

func (e *invalidQuietWindowError) Error() string {
	return "schedule: invalid quiet window expression " + e.expr
}

func splitLast(s string, sep byte) (head, tail string, ok bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
