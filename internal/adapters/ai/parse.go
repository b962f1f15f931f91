package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/selivandex/stockbrief/pkg/models"
)

// Models often wrap JSON in a markdown fence, sometimes with preamble text
var jsonFenceRegex = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

var validate = validator.New()

// extractJSON pulls a JSON object out of a model response, stripping
// markdown fences and any leading prose.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if matches := jsonFenceRegex.FindStringSubmatch(text); len(matches) > 1 {
		text = strings.TrimSpace(matches[1])
	}

	if !strings.HasPrefix(text, "{") {
		if start := strings.Index(text, "{"); start != -1 {
			text = text[start:]
		}
	}
	return text
}

// parseAnalysis decodes and schema-validates the model's response.
// A response that decodes but is missing required fields is an error;
// the caller decides whether to degrade.
func parseAnalysis(text string) (*models.AnalysisResult, error) {
	payload := extractJSON(text)

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis JSON: %w", err)
	}

	if err := validate.Struct(&result); err != nil {
		return nil, fmt.Errorf("analysis response failed schema validation: %w", err)
	}
	return &result, nil
}
