package orchestrator

import (
	"regexp"
	"strings"
)

// PlanStep is one parsed unit of a model plan.
type PlanStep struct {
	Title       string
	Description string
}

var planStepRegexp = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)

// ParsePlan parses a free-text model plan into ordered steps using a numbered
// list heuristic. A line like "1. Do something" starts a new step and the
// following non-empty lines accumulate into its description until the next
// numbered line. Content before the first numbered line is ignored.
func ParsePlan(plan string) []PlanStep {
	var steps []PlanStep
	var descLines []string

	flushDesc := func() {
		if len(steps) == 0 || len(descLines) == 0 {
			descLines = nil
			return
		}
		steps[len(steps)-1].Description = strings.Join(descLines, "\n")
		descLines = nil
	}

	for _, line := range strings.Split(plan, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		match := planStepRegexp.FindStringSubmatch(line)
		if match != nil {
			flushDesc()
			steps = append(steps, PlanStep{Title: strings.TrimSpace(match[2])})
			continue
		}

		if len(steps) > 0 {
			descLines = append(descLines, line)
		}
	}
	flushDesc()

	return steps
}
