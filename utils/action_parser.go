package utils

import (
	"encoding/json"
	"strings"

	"planai/models"
)

// ParseActions decodes raw model output into actions. It tolerates
// markdown fences, a wrapping {"actions": [...]} object, and alias type
// spellings. If nothing parseable is found the raw text is degraded to a
// single synthetic info action rather than an error: a confused model
// response should surface to the user, not crash the plan.
func ParseActions(raw string) []models.Action {
	text := stripFences(raw)

	if actions, ok := decodeActions(text); ok {
		return actions
	}

	// The model may have wrapped the array in prose: try the outermost
	// bracketed slice.
	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start >= 0 && end > start {
		if actions, ok := decodeActions(text[start : end+1]); ok {
			return actions
		}
	}

	return []models.Action{InfoAction(strings.TrimSpace(raw))}
}

// InfoAction builds the synthetic fallback action around text.
func InfoAction(text string) models.Action {
	return models.Action{
		Type:        models.ActionInfo,
		Description: text,
	}
}

func decodeActions(text string) ([]models.Action, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	var actions []models.Action
	if err := json.Unmarshal([]byte(text), &actions); err == nil {
		return normalizeActions(actions), true
	}

	var wrapper struct {
		Actions []models.Action `json:"actions"`
	}
	if err := json.Unmarshal([]byte(text), &wrapper); err == nil && wrapper.Actions != nil {
		return normalizeActions(wrapper.Actions), true
	}

	return nil, false
}

func normalizeActions(actions []models.Action) []models.Action {
	out := make([]models.Action, 0, len(actions))
	for _, a := range actions {
		a.Type = a.Type.Normalize()
		out = append(out, a)
	}
	return out
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
