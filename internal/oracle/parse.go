package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"screenlog/internal/domain"
)

// stripFences removes a single leading/trailing ``` or ```json fence, the
// fence shape models commonly wrap structured output in despite explicit
// instructions not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseResponse implements the Extraction Oracle's response contract
// (spec.md §4.4): strip fences, parse (repairing minor JSON defects first),
// normalize either shape into a multi-activity AnalysisResult, and enforce
// that at least one activity survives.
func ParseResponse(raw string) (domain.AnalysisResult, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return domain.AnalysisResult{}, fmt.Errorf("%w: empty response", domain.ErrExtractionMalformed)
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrExtractionMalformed, err)
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal([]byte(repaired), &generic); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrExtractionMalformed, err)
	}

	var activities []domain.Activity
	var isContinuation bool

	if rawActivities, ok := generic["activities"]; ok {
		var wire wireMultiShape
		if err := json.Unmarshal([]byte(repaired), &wire); err != nil {
			return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrExtractionMalformed, err)
		}
		_ = rawActivities
		for _, w := range wire.Activities {
			activities = append(activities, w.toDomain())
		}
		isContinuation = wire.IsContinuation
	} else {
		var flat wireActivity
		if err := json.Unmarshal([]byte(repaired), &flat); err != nil {
			return domain.AnalysisResult{}, fmt.Errorf("%w: %v", domain.ErrExtractionMalformed, err)
		}
		flat.Layer = string(domain.LayerPrimary)
		activities = append(activities, flat.toDomain())
		if cont, ok := generic["isContinuation"]; ok {
			_ = json.Unmarshal(cont, &isContinuation)
		}
	}

	if len(activities) == 0 {
		return domain.AnalysisResult{}, fmt.Errorf("%w", domain.ErrExtractionEmpty)
	}

	normalizePrimary(activities)

	return domain.AnalysisResult{Activities: activities, IsContinuation: isContinuation}, nil
}

// normalizePrimary ensures exactly one layer is marked primary: the first
// explicitly marked primary wins; if none is, the first layer is promoted.
func normalizePrimary(activities []domain.Activity) {
	primary := -1
	for i := range activities {
		if activities[i].Layer != domain.LayerPrimary {
			continue
		}
		if primary < 0 {
			primary = i
		} else {
			activities[i].Layer = domain.LayerOverlay
		}
	}
	if primary < 0 {
		activities[0].Layer = domain.LayerPrimary
	}
}
