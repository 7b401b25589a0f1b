package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/bkovacev/runsight/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
)

var ErrEntryNotFound = errors.New("plan entry not found")

// Edit is one externally approved change to a single session, addressed by
// week label and day. Nil fields are left untouched.
type Edit struct {
	WeekLabel   string             `json:"week_label"`
	Day         string             `json:"day"`
	Name        *string            `json:"name,omitempty"`
	Type        *string            `json:"type,omitempty"`
	DurationMin *float64           `json:"duration_min,omitempty"`
	DistanceKm  *float64           `json:"distance_km,omitempty"`
	Detail      *map[string]string `json:"detail,omitempty"`
}

// Loader reads and re-persists the training plan file. The plan is small,
// edits rewrite the whole file.
type Loader struct {
	mu   sync.Mutex
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the plan file. A missing file yields an empty plan, a present
// but unparsable file is an error since silently dropping a hand-written
// plan would be worse than failing.
func (l *Loader) Load(ctx context.Context) (_ Plan, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "planLoader.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *Loader) load() (Plan, error) {
	planBytes, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warnf("training plan [%s] not found", l.path)
		return Plan{}, nil
	}
	if err != nil {
		return Plan{}, fmt.Errorf("read training plan file: %w", err)
	}

	var p Plan
	if err := json.Unmarshal(planBytes, &p); err != nil {
		return Plan{}, fmt.Errorf("unmarshal training plan: %w", err)
	}
	return p, nil
}

// ApplyEdit applies one edit to the matching session and re-persists the
// whole plan file. Returns the updated plan.
func (l *Loader) ApplyEdit(ctx context.Context, edit Edit) (_ Plan, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "planLoader.applyEdit")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.load()
	if err != nil {
		return Plan{}, err
	}

	session := findSession(&p, edit.WeekLabel, edit.Day)
	if session == nil {
		return Plan{}, fmt.Errorf("%w: week [%s] day [%s]", ErrEntryNotFound, edit.WeekLabel, edit.Day)
	}

	if edit.Name != nil {
		session.Name = *edit.Name
	}
	if edit.Type != nil {
		session.Type = *edit.Type
	}
	if edit.DurationMin != nil {
		session.DurationMin = *edit.DurationMin
	}
	if edit.DistanceKm != nil {
		session.DistanceKm = *edit.DistanceKm
	}
	if edit.Detail != nil {
		session.Detail = *edit.Detail
	}

	planBytes, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return Plan{}, fmt.Errorf("marshal training plan: %w", err)
	}
	if err := os.WriteFile(l.path, planBytes, 0o644); err != nil {
		return Plan{}, fmt.Errorf("write training plan file: %w", err)
	}

	log.Debugf("training plan [%s] updated: week [%s] day [%s]", l.path, edit.WeekLabel, edit.Day)

	return p, nil
}

func findSession(p *Plan, weekLabel, day string) *Session {
	for wi := range p.Weeks {
		if p.Weeks[wi].Label != weekLabel {
			continue
		}
		for si := range p.Weeks[wi].Sessions {
			if strings.EqualFold(p.Weeks[wi].Sessions[si].Day, day) {
				return &p.Weeks[wi].Sessions[si]
			}
		}
	}
	return nil
}
