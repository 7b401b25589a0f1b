package coach

import (
	"fmt"
	"strings"

	"github.com/bkovacev/runsight/internal/activities"
	"github.com/bkovacev/runsight/internal/plan"
)

const systemInstruction = `You are an experienced running coach. ` +
	`You get a summary of the athlete's recent completed activities and the upcoming ` +
	`sessions of their training plan, followed by a question. Answer concisely and ` +
	`concretely, grounded in the provided data. If the data is insufficient, say so.`

// BuildPrompt renders the bounded activity and plan summaries plus the
// question into a single user prompt.
func BuildPrompt(question string, recent []activities.Activity, upcoming []plan.Entry) string {
	var b strings.Builder

	b.WriteString("Recent activities:\n")
	if len(recent) == 0 {
		b.WriteString("- none\n")
	}
	for _, act := range recent {
		line := fmt.Sprintf("- %s: %s, %.1f km in %d min", act.StartDateLocal, act.Name, act.Distance/1000, act.ElapsedTime/60)
		if pace, ok := act.Pace(); ok {
			line += fmt.Sprintf(" (%.2f min/km)", pace)
		}
		if act.AverageHeartrate > 0 {
			line += fmt.Sprintf(", avg HR %.0f", act.AverageHeartrate)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\nUpcoming plan:\n")
	if len(upcoming) == 0 {
		b.WriteString("- none\n")
	}
	for _, entry := range upcoming {
		line := fmt.Sprintf("- %s %s: %s [%s]", entry.WeekLabel, entry.Day, entry.Name, entry.Type)
		if entry.DurationMin > 0 {
			line += fmt.Sprintf(", %.0f min", entry.DurationMin)
		}
		if entry.DistanceKm > 0 {
			line += fmt.Sprintf(", %.1f km", entry.DistanceKm)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\nQuestion: " + question + "\n")

	return b.String()
}
