package orchestrator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskpilot/taskpilot/internal/orchestrator"
)

func TestParsePlan(t *testing.T) {
	tests := map[string]struct {
		plan     string
		expSteps []orchestrator.PlanStep
	}{
		"Numbered list with a description line.": {
			plan: "1. Fetch data\nDetails here\n2. Summarize\n",
			expSteps: []orchestrator.PlanStep{
				{Title: "Fetch data", Description: "Details here"},
				{Title: "Summarize"},
			},
		},

		"Empty plan yields no steps.": {
			plan:     "",
			expSteps: nil,
		},

		"Prose without numbers yields no steps.": {
			plan:     "I would start by looking at the data.\nThen summarize it.",
			expSteps: nil,
		},

		"Preamble before the first numbered line is ignored.": {
			plan: "Here is the plan:\n1. Do the thing\n",
			expSteps: []orchestrator.PlanStep{
				{Title: "Do the thing"},
			},
		},

		"Multi line descriptions accumulate.": {
			plan: "1. Build\nrun make\ncheck output\n2. Ship\nupload artifact\n",
			expSteps: []orchestrator.PlanStep{
				{Title: "Build", Description: "run make\ncheck output"},
				{Title: "Ship", Description: "upload artifact"},
			},
		},

		"Blank lines inside a description are skipped.": {
			plan: "1. Build\nrun make\n\ncheck output\n",
			expSteps: []orchestrator.PlanStep{
				{Title: "Build", Description: "run make\ncheck output"},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := orchestrator.ParsePlan(test.plan)
			assert.Equal(t, test.expSteps, got)
		})
	}
}
