package history

// StepStatus is the lifecycle state of a single PlanUpdate step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

// PlanStep is one named item within a PlanUpdate.
type PlanStep struct {
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
}

// ProgressIcon is the coarse bucket a plan's completion ratio falls
// into, used to pick a glyph without the renderer needing to know the
// exact fraction.
type ProgressIcon string

const (
	IconEmpty    ProgressIcon = "empty"    // 0%
	IconStart    ProgressIcon = "start"    // (0, 1/3]
	IconMid      ProgressIcon = "mid"      // (1/3, 2/3]
	IconLate     ProgressIcon = "late"     // (2/3, 100%)
	IconComplete ProgressIcon = "complete" // 100%
)

// PlanUpdate is a named plan with a completed/total progress count and
// an ordered list of steps.
type PlanUpdate struct {
	Name      string     `json:"name,omitempty"`
	Completed int        `json:"completed"`
	Total     int        `json:"total"`
	Steps     []PlanStep `json:"steps"`
}

// Icon derives the ProgressIcon bucket from Completed/Total per the
// thresholds in spec.md §3.2: empty at 0%, start at or below a third,
// mid between a third and two-thirds, late above two-thirds but below
// complete, complete at 100%.
func (p PlanUpdate) Icon() ProgressIcon {
	if p.Total <= 0 || p.Completed <= 0 {
		return IconEmpty
	}
	if p.Completed >= p.Total {
		return IconComplete
	}
	ratio := float64(p.Completed) / float64(p.Total)
	switch {
	case ratio <= 1.0/3.0:
		return IconStart
	case ratio <= 2.0/3.0:
		return IconMid
	default:
		return IconLate
	}
}
