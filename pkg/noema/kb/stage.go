package kb

// Stage is one of the eight fixed phases a reasoning cycle executes in
// order. The zero value means "no stage assigned".
type Stage int

// The eight stages, in execution order.
const (
	StageNone Stage = iota
	StageUnderstanding
	StageThought
	StageSpeech
	StageAction
	StageLivelihood
	StageEffort
	StageMindfulness
	StageConcentration
)

// Stages lists the eight stages in execution order.
var Stages = [8]Stage{
	StageUnderstanding,
	StageThought,
	StageSpeech,
	StageAction,
	StageLivelihood,
	StageEffort,
	StageMindfulness,
	StageConcentration,
}

var stageNames = map[Stage]string{
	StageUnderstanding: "right_understanding",
	StageThought:       "right_thought",
	StageSpeech:        "right_speech",
	StageAction:        "right_action",
	StageLivelihood:    "right_livelihood",
	StageEffort:        "right_effort",
	StageMindfulness:   "right_mindfulness",
	StageConcentration: "right_concentration",
}

// String returns the wire name of the stage.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "none"
}

// ParseStage maps a wire name to its stage. Unknown names map to StageNone.
func ParseStage(name string) Stage {
	for stage, n := range stageNames {
		if n == name {
			return stage
		}
	}
	return StageNone
}
