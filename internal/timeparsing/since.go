// Package timeparsing turns the --since argument of fetch-subtasks into a
// lower bound on the updated date of an issue.
//
// Accepted forms, tried in order:
//
//	-7d, 12h, 2w, 1m, 1y   a span back from now (the sign is optional)
//	2025-01-31             midnight of that day, local time
//	2025-01-31T09:00:00Z   an RFC3339 timestamp
//	last monday, 3 days ago, yesterday
//
// A bound later than now is rejected since it can match nothing.
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// JQLDateLayout is the date form JQL accepts in comparisons on updated.
const JQLDateLayout = "2006-01-02"

var spanRe = regexp.MustCompile(`^(-?)(\d+)([hdwmy])$`)

var nlp = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Since parses s as a lower bound relative to now.
func Since(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty --since value")
	}
	t, err := parse(s, now)
	if err != nil {
		return time.Time{}, err
	}
	if t.After(now) {
		return time.Time{}, fmt.Errorf("%q is in the future", s)
	}
	return t, nil
}

// SinceDate is Since formatted for a JQL date comparison.
func SinceDate(s string, now time.Time) (string, error) {
	t, err := Since(s, now)
	if err != nil {
		return "", err
	}
	return t.In(now.Location()).Format(JQLDateLayout), nil
}

func parse(s string, now time.Time) (time.Time, error) {
	if strings.HasPrefix(s, "+") {
		return time.Time{}, fmt.Errorf("%q is in the future", s)
	}
	if m := spanRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid span %q: %w", s, err)
		}
		return back(now, n, m[3]), nil
	}
	if t, err := time.ParseInLocation(JQLDateLayout, s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if r, err := nlp.Parse(s, now); err == nil && r != nil {
		return r.Time, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %q: use a span like -7d, a date like 2025-01-31, or an expression like \"last monday\"", s)
}

// back moves now n units into the past.
func back(now time.Time, n int, unit string) time.Time {
	switch unit {
	case "h":
		return now.Add(-time.Duration(n) * time.Hour)
	case "w":
		return now.AddDate(0, 0, -7*n)
	case "m":
		return now.AddDate(0, -n, 0)
	case "y":
		return now.AddDate(-n, 0, 0)
	default:
		return now.AddDate(0, 0, -n)
	}
}
