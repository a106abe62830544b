package ai

const DefaultProvider = "openai"

var optimalProviders = map[string]string{
	TaskDevelopmentalEdit: "anthropic",
	TaskLineEdit:          "openai",
	TaskMetaphors:         "anthropic",
	TaskPacing:            "gemini",
	TaskPlotStructure:     "gemini",
	TaskCharacterVoice:    "anthropic",
	TaskWorldBuilding:     "anthropic",
	TaskReadability:       "openai",
	TaskDialogue:          "anthropic",
	TaskClarity:           "openai",
	TaskSentimentArc:      "openai",
	TaskThemes:            "anthropic",
	TaskBrainstorm:        "anthropic",
}

// GetOptimalProvider suggests a vendor for an analysis task. Unknown tasks get
// DefaultProvider. The gateway does not enforce it.
func GetOptimalProvider(task string) string {
	if p, ok := optimalProviders[normalizeName(task)]; ok {
		return p
	}
	return DefaultProvider
}

func OptimalProviders() map[string]string {
	out := make(map[string]string, len(optimalProviders))
	for k, v := range optimalProviders {
		out[k] = v
	}
	return out
}
