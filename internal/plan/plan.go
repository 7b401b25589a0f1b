package plan

import (
	"sort"
	"strings"
	"time"
)

const weekLabelLayout = "2006-01-02"

// dayOffsets maps day names to their offset from the week start (Monday).
var dayOffsets = map[string]int{
	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

// Plan is the whole training plan file as stored on disk.
type Plan struct {
	Weeks []Week `json:"weeks"`
}

// Week groups the prescribed sessions under one week label. The label is the
// week-start date (a Monday) in 2006-01-02 form, but free-form labels are
// tolerated, their sessions just carry no calendar date.
type Week struct {
	Label    string    `json:"label"`
	Sessions []Session `json:"sessions"`
}

// Session is one prescribed training session.
type Session struct {
	Day         string            `json:"day"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	DurationMin float64           `json:"duration_min,omitempty"`
	DistanceKm  float64           `json:"distance_km,omitempty"`
	Detail      map[string]string `json:"detail,omitempty"`
}

// Entry is a session flattened together with its week label and the derived
// calendar date. Date is nil when the week label or the day name cannot be
// parsed.
type Entry struct {
	WeekLabel   string            `json:"week_label"`
	Day         string            `json:"day"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	DurationMin float64           `json:"duration_min,omitempty"`
	DistanceKm  float64           `json:"distance_km,omitempty"`
	Detail      map[string]string `json:"detail,omitempty"`
	Date        *time.Time        `json:"date,omitempty"`
}

// Entries flattens the plan, preserving file order. Every session is listed,
// including those without a derivable date.
func (p Plan) Entries() []Entry {
	var entries []Entry
	for _, week := range p.Weeks {
		weekStart, weekOk := parseWeekLabel(week.Label)
		for _, session := range week.Sessions {
			entry := Entry{
				WeekLabel:   week.Label,
				Day:         session.Day,
				Name:        session.Name,
				Type:        session.Type,
				DurationMin: session.DurationMin,
				DistanceKm:  session.DistanceKm,
				Detail:      session.Detail,
			}
			if offset, dayOk := dayOffsets[strings.ToLower(session.Day)]; weekOk && dayOk {
				date := weekStart.AddDate(0, 0, offset)
				entry.Date = &date
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

// Upcoming returns up to limit entries dated today or later, soonest first.
// Entries without a date are excluded from date-based filtering.
func (p Plan) Upcoming(now time.Time, limit int) []Entry {
	// entry dates are zone-less calendar days stored as UTC midnights, so
	// compare against the caller's local calendar day, not an absolute
	// 24h truncation of now
	year, month, day := now.Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	var upcoming []Entry
	for _, entry := range p.Entries() {
		if entry.Date == nil || entry.Date.Before(today) {
			continue
		}
		upcoming = append(upcoming, entry)
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Date.Before(*upcoming[j].Date)
	})

	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

func parseWeekLabel(label string) (time.Time, bool) {
	weekStart, err := time.Parse(weekLabelLayout, strings.TrimSpace(label))
	if err != nil {
		return time.Time{}, false
	}
	return weekStart, true
}
