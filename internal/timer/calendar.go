// Package timer generates the systemd user units that run trash-expiry
// periodically, translating the configured cron schedule into a systemd
// calendar event.
package timer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrUnsupported is returned for cron schedules without a systemd equivalent.
var ErrUnsupported = errors.New("schedule cannot be expressed as a systemd timer")

// Schedule is the systemd form of a cron schedule. Exactly one of
// OnCalendar and Every is set.
type Schedule struct {
	OnCalendar string
	Every      time.Duration
}

var descriptors = map[string]string{
	"@yearly":   "yearly",
	"@annually": "yearly",
	"@monthly":  "monthly",
	"@weekly":   "weekly",
	"@daily":    "daily",
	"@midnight": "daily",
	"@hourly":   "hourly",
}

type fieldSpec struct {
	name     string
	min, max int
	names    map[string]int
}

var (
	minuteField = fieldSpec{name: "minute", min: 0, max: 59}
	hourField   = fieldSpec{name: "hour", min: 0, max: 23}
	domField    = fieldSpec{name: "day of month", min: 1, max: 31}
	monthField  = fieldSpec{name: "month", min: 1, max: 12, names: map[string]int{
		"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
		"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	}}
	dowField = fieldSpec{name: "day of week", min: 0, max: 7, names: map[string]int{
		"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
	}}
)

var weekdays = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Translate converts a standard cron expression (five fields or a
// descriptor, optionally prefixed with CRON_TZ=) into a systemd schedule.
func Translate(expr string) (Schedule, error) {
	expr = strings.TrimSpace(expr)
	if _, err := cron.ParseStandard(expr); err != nil {
		return Schedule{}, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}

	var zone string
	if strings.HasPrefix(expr, "CRON_TZ=") || strings.HasPrefix(expr, "TZ=") {
		prefix, rest, _ := strings.Cut(expr, " ")
		_, zone, _ = strings.Cut(prefix, "=")
		expr = strings.TrimSpace(rest)
	}

	if strings.HasPrefix(expr, "@every ") {
		every, err := time.ParseDuration(strings.TrimSpace(strings.TrimPrefix(expr, "@every ")))
		if err != nil {
			return Schedule{}, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
		}
		if zone != "" {
			return Schedule{}, fmt.Errorf("%w: %q: time zone with @every", ErrUnsupported, expr)
		}
		// timer units count in whole seconds
		if every < time.Second {
			return Schedule{}, fmt.Errorf("%w: %q: interval under one second", ErrUnsupported, expr)
		}
		return Schedule{Every: every}, nil
	}

	if cal, ok := descriptors[strings.ToLower(expr)]; ok {
		return Schedule{OnCalendar: withZone(cal, zone)}, nil
	}

	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return Schedule{}, fmt.Errorf("%w: %q", ErrUnsupported, expr)
	}
	if fields[2] != "*" && fields[2] != "?" && fields[4] != "*" && fields[4] != "?" {
		// cron matches either day field, systemd requires both
		return Schedule{}, fmt.Errorf("%w: %q restricts both day of month and day of week", ErrUnsupported, expr)
	}

	minute, err := translateField(fields[0], minuteField)
	if err != nil {
		return Schedule{}, err
	}
	hour, err := translateField(fields[1], hourField)
	if err != nil {
		return Schedule{}, err
	}
	dom, err := translateField(fields[2], domField)
	if err != nil {
		return Schedule{}, err
	}
	month, err := translateField(fields[3], monthField)
	if err != nil {
		return Schedule{}, err
	}
	dow, err := translateWeekdays(fields[4])
	if err != nil {
		return Schedule{}, err
	}

	cal := fmt.Sprintf("*-%s-%s %s:%s:00", month, dom, hour, minute)
	if dow != "" {
		cal = dow + " " + cal
	}
	return Schedule{OnCalendar: withZone(cal, zone)}, nil
}

func withZone(cal, zone string) string {
	if zone == "" {
		return cal
	}
	return cal + " " + zone
}

// translateField converts one numeric cron field: "a-b" becomes "a..b",
// "*/n" becomes "min/n" and ranges with a step are expanded into a list.
func translateField(expr string, f fieldSpec) (string, error) {
	if expr == "*" || expr == "?" {
		return "*", nil
	}

	parts := strings.Split(expr, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		base, stepStr, hasStep := strings.Cut(part, "/")
		step := 1
		if hasStep {
			n, err := strconv.Atoi(stepStr)
			if err != nil || n <= 0 {
				return "", fmt.Errorf("%w: bad step in %s field %q", ErrUnsupported, f.name, part)
			}
			step = n
		}

		lo, hi, isRange, err := parseRange(base, f)
		if err != nil {
			return "", err
		}

		switch {
		case base == "*" || base == "?":
			if step == 1 {
				out = append(out, "*")
			} else {
				out = append(out, fmt.Sprintf("%02d/%d", f.min, step))
			}
		case hasStep && !isRange:
			out = append(out, fmt.Sprintf("%02d/%d", lo, step))
		case hasStep:
			for v := lo; v <= hi; v += step {
				out = append(out, fmt.Sprintf("%02d", v))
			}
		case isRange:
			out = append(out, fmt.Sprintf("%02d..%02d", lo, hi))
		default:
			out = append(out, fmt.Sprintf("%02d", lo))
		}
	}
	return strings.Join(out, ","), nil
}

// translateWeekdays renders the day-of-week field as systemd weekday names.
// An unrestricted field yields "".
func translateWeekdays(expr string) (string, error) {
	if expr == "*" || expr == "?" {
		return "", nil
	}

	var (
		days []string
		seen = make(map[string]bool)
	)
	for _, part := range strings.Split(expr, ",") {
		base, stepStr, hasStep := strings.Cut(part, "/")
		step := 1
		if hasStep {
			n, err := strconv.Atoi(stepStr)
			if err != nil || n <= 0 {
				return "", fmt.Errorf("%w: bad step in day of week field %q", ErrUnsupported, part)
			}
			step = n
		}

		lo, hi, isRange, err := parseRange(base, dowField)
		if err != nil {
			return "", err
		}
		if !isRange && hasStep {
			hi = 6
		}
		if base == "*" || base == "?" {
			lo, hi = 0, 6
		}
		for v := lo; v <= hi; v += step {
			name := weekdays[v]
			if !seen[name] {
				seen[name] = true
				days = append(days, name)
			}
		}
	}
	return strings.Join(days, ","), nil
}

// parseRange parses "*", "a" or "a-b" in the domain of f.
func parseRange(expr string, f fieldSpec) (lo, hi int, isRange bool, err error) {
	if expr == "*" || expr == "?" {
		return f.min, f.max, false, nil
	}
	loStr, hiStr, isRange := strings.Cut(expr, "-")
	if lo, err = parseValue(loStr, f); err != nil {
		return 0, 0, false, err
	}
	hi = lo
	if isRange {
		if hi, err = parseValue(hiStr, f); err != nil {
			return 0, 0, false, err
		}
		if hi < lo {
			return 0, 0, false, fmt.Errorf("%w: descending range in %s field %q", ErrUnsupported, f.name, expr)
		}
	}
	return lo, hi, isRange, nil
}

func parseValue(s string, f fieldSpec) (int, error) {
	if v, ok := f.names[strings.ToLower(s)]; ok {
		return v, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < f.min || v > f.max {
		return 0, fmt.Errorf("%w: bad value in %s field %q", ErrUnsupported, f.name, s)
	}
	return v, nil
}
