package app

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"coderefine/internal/domain"
)

/********** field registry (single source of truth) **********/

var optionalTextFields = []string{"bugs", "performance", "explanation"}

var complexityFields = []string{
	"original_time_complexity",
	"original_space_complexity",
	"time_complexity",
	"space_complexity",
}

// placeholders the prompt forbids for complexity fields (compared case-insensitively)
var complexityPlaceholders = map[string]struct{}{
	"?": {}, "o(?)": {}, "unknown": {}, "n/a": {}, "na": {}, "none": {}, "null": {}, "-": {},
}

// keys tried when a suggestion arrives as an object instead of a string
var suggestionKeys = []string{"suggestion", "text", "description", "title"}

/********** tiny helpers **********/

// parseObject decodes text strictly as a single JSON object.
func parseObject(text string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &m); err != nil {
		return nil, fmt.Errorf("%w: response is not valid JSON: %v", domain.ErrInvalidOutput, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: response is not a JSON object", domain.ErrInvalidOutput)
	}
	return m, nil
}

// scoreFlexible: integer score from float64/string like "85" or "85.5"; absent -> 0.
// Out-of-range values are clamped into [0,100].
func scoreFlexible(m map[string]any, key string) (int, error) {
	var f float64
	switch v := m[key].(type) {
	case nil:
		return 0, nil
	case float64:
		f = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			f = float64(n)
		} else if x, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(x) {
			f = x
		} else {
			return 0, fmt.Errorf("%w: %s is not a number: %q", domain.ErrInvalidOutput, key, v)
		}
	default:
		return 0, fmt.Errorf("%w: %s has unexpected type %T", domain.ErrInvalidOutput, key, v)
	}
	return int(math.Max(0, math.Min(100, math.Trunc(f)))), nil
}

// textFlexible: string as-is, list of strings joined by newlines, scalars formatted; absent -> "".
func textFlexible(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := stringsOf(t)
		return strings.Join(parts, "\n")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// stringsOf accepts []any with either strings or {suggestion/text/description/title} objects.
func stringsOf(raw []any) []string {
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		switch t := it.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			for _, k := range suggestionKeys {
				if s, ok := t[k].(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
					break
				}
			}
		}
	}
	return out
}

// distinct keeps the first occurrence of each entry, preserving order.
func distinct(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func improvementsFlexible(v any) []string {
	switch t := v.(type) {
	case []any:
		return distinct(stringsOf(t))
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	}
	return []string{}
}

func isPlaceholder(s string) bool {
	_, ok := complexityPlaceholders[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func requiredText(m map[string]any, key string) (string, error) {
	s, ok := m[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: missing %s", domain.ErrInvalidOutput, key)
	}
	return s, nil
}

/********** review mapper **********/

// decodeReview turns raw model text into a ReviewResult, failing on anything a caller
// could not render: non-JSON text, non-numeric scores, a missing rewrite or complexity.
func decodeReview(text string) (domain.ReviewResult, error) {
	m, err := parseObject(text)
	if err != nil {
		return domain.ReviewResult{}, err
	}

	var r domain.ReviewResult
	if r.OriginalScore, err = scoreFlexible(m, "original_score"); err != nil {
		return domain.ReviewResult{}, err
	}
	if r.RefinedScore, err = scoreFlexible(m, "refined_score"); err != nil {
		return domain.ReviewResult{}, err
	}

	texts := make(map[string]string, len(optionalTextFields))
	for _, k := range optionalTextFields {
		texts[k] = textFlexible(m[k])
	}
	r.Bugs, r.Performance, r.Explanation = texts["bugs"], texts["performance"], texts["explanation"]
	r.Improvements = improvementsFlexible(m["improvements"])

	if r.OptimizedCode, err = requiredText(m, "optimized_code"); err != nil {
		return domain.ReviewResult{}, err
	}

	cx := make(map[string]string, len(complexityFields))
	for _, k := range complexityFields {
		s, err := requiredText(m, k)
		if err != nil {
			return domain.ReviewResult{}, err
		}
		if isPlaceholder(s) {
			return domain.ReviewResult{}, fmt.Errorf("%w: %s is a placeholder (%q)", domain.ErrInvalidOutput, k, s)
		}
		cx[k] = strings.TrimSpace(s)
	}
	r.OriginalTimeComplexity = cx["original_time_complexity"]
	r.OriginalSpaceComplexity = cx["original_space_complexity"]
	r.TimeComplexity = cx["time_complexity"]
	r.SpaceComplexity = cx["space_complexity"]

	return r, nil
}

/********** translation mapper **********/

func decodeTranslation(text string) (domain.TranslateResult, error) {
	m, err := parseObject(text)
	if err != nil {
		return domain.TranslateResult{}, err
	}
	s, ok := m["translated_code"].(string)
	if !ok {
		return domain.TranslateResult{}, fmt.Errorf("%w: missing translated_code", domain.ErrInvalidOutput)
	}
	return domain.TranslateResult{TranslatedCode: s}, nil
}
