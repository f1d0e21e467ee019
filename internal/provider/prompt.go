package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tickwise/cortex/internal/core"
)

const systemPrompt = `You are a tactical planner for a simulated agent.
Given a world snapshot in JSON, respond with ONLY a JSON object of the form:
{"plan_id":"<short id>","steps":[...]}
Each step is one of:
  {"kind":"move_to","x":<int>,"y":<int>}
  {"kind":"attack","target":"<enemy id>","stance":"standing|crouched"}
  {"kind":"take_cover","x":<int>,"y":<int>}
  {"kind":"reload"}
  {"kind":"throw_smoke","x":<int>,"y":<int>}
  {"kind":"wait","duration":<seconds>}
Plan 3-8 steps ahead. Do not include any text outside the JSON object.`

// BuildMessages renders the snapshot into a chat-completion request body.
func BuildMessages(snap *core.WorldSnapshot) ([]ChatMessage, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: string(payload)},
	}, nil
}

// ParsePlan extracts a validated PlanIntent from raw model output. Models
// routinely wrap JSON in code fences or prose; everything outside the
// outermost object is discarded.
func ParsePlan(content string) (*core.PlanIntent, error) {
	raw := extractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedPlan)
	}

	var plan core.PlanIntent
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	if plan.PlanID == "" {
		plan.PlanID = core.NewPlanID()
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	return &plan, nil
}

// extractJSON returns the outermost {...} span of content.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}
