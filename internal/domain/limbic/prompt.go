package limbic

import (
	"fmt"

	"github.com/quietsignal/persona-core/internal/domain/signal"
)

// PromptContext carries the explicit details spec.md §4.1.b requires
// every signal-specific prompt to convey: the reason to wake, the
// pressure that triggered it, and enough surrounding context for the
// downstream persona to act on it.
type PromptContext struct {
	Pressure         float64
	PendingTotal     int
	SecondsSinceLast float64
	Forced           bool
	Reason           string
}

// templates holds one format string per emittable signal kind. Each is
// filled with (pressure, pending, seconds-since-last, forced-note).
// Every template consumes the same four verbs in the same order:
// pressure, pending total, seconds since last emission, forced note.
var templates = map[signal.Kind]string{
	signal.Social: "SOCIAL pressure is %.2f with %d pending interactions waiting " +
		"(%.0fs since you last checked%s). Look at what's pending and decide " +
		"whether anything deserves a reply, a like, or can simply be ignored.",
	signal.Curiosity: "CURIOSITY pressure is %.2f, %d items pending " +
		"(%.0fs since you last went looking for something new%s). Nothing " +
		"external is pulling at you right now — go find something worth " +
		"engaging with.",
	signal.Maintenance: "MAINTENANCE pressure is %.2f, driven by rising context " +
		"usage, %d items pending (%.0fs since the last maintenance pass%s). " +
		"Consider summarizing, pruning, or otherwise tidying up before context " +
		"becomes a problem.",
	signal.Boredom: "BOREDOM pressure is %.2f after an idle stretch, %d items " +
		"pending (%.0fs since your last action%s). Nothing is demanding " +
		"attention; this is unstructured time to explore, reflect, or rest.",
	signal.Anxiety: "ANXIETY pressure is %.2f, elevated by recent errors, %d " +
		"items pending (%.0fs since the last anxious moment%s). Check whether " +
		"something is actually wrong before taking any action.",
	signal.Drift: "DRIFT pressure is %.2f — your recent output has deviated " +
		"from its usual shape, %d items pending (%.0fs since the last drift " +
		"check%s). Consider whether you're still sounding like yourself.",
	signal.Stale: "STALE pressure is %.2f, %d items pending (%.0fs since you " +
		"last surfaced something on your own%s). It's been a long time since " +
		"you initiated anything — consider posting or reaching out.",
	signal.Uncanny: "UNCANNY pressure is %.2f, %d items pending (%.0fs since " +
		"the last check%s). Something about a recent interaction felt off; " +
		"take a moment to reassess before continuing as usual.",
}

// Prompt renders the signal-specific wake prompt for kind, carrying
// pressure, pending counts, elapsed time, and the forced flag
// explicitly (spec.md §4.1.b). An unrecognized kind (should not occur
// for an emittable signal) renders a generic fallback rather than
// panicking.
func Prompt(kind signal.Kind, ctx PromptContext) string {
	tmpl, ok := templates[kind]
	if !ok {
		return fmt.Sprintf("%s pressure is %.2f (%.0fs since last emission).",
			kind, ctx.Pressure, ctx.SecondsSinceLast)
	}
	forcedNote := ""
	if ctx.Forced {
		forcedNote = ", forced by its maximum interval"
	}
	return fmt.Sprintf(tmpl, ctx.Pressure, ctx.PendingTotal, ctx.SecondsSinceLast, forcedNote)
}
