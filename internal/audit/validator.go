package audit

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"auditapi/internal/model"
)

// Validate checks a decoded value against the schema variant and converts
// it into an AuditReport. The first failed check is returned as a
// *ValidationError.
func Validate(value any, variant SchemaVariant) (*model.AuditReport, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, &ValidationError{Rule: RuleWrongType, Detail: fmt.Sprintf("expected object, got %s", typeName(value))}
	}

	var (
		report model.AuditReport
		err    error
	)
	if report.Client, err = textField(obj, "client", true); err != nil {
		return nil, err
	}
	if report.BusinessOverview, err = textField(obj, "businessoverview", true); err != nil {
		return nil, err
	}
	if report.InstagramSummary, err = textField(obj, "instagramSummary", false); err != nil {
		return nil, err
	}
	if report.FacebookSummary, err = textField(obj, "facebookSummary", false); err != nil {
		return nil, err
	}
	if report.InstagramScore, err = scoreField(obj, "instagramScore", ChannelScoreMin, ScoreMax); err != nil {
		return nil, err
	}
	if report.FacebookScore, err = scoreField(obj, "facebookScore", ChannelScoreMin, ScoreMax); err != nil {
		return nil, err
	}
	if variant.WebsiteScore {
		if report.WebsiteScore, err = optionalScoreField(obj, "websiteScore", ChannelScoreMin, ScoreMax); err != nil {
			return nil, err
		}
	}
	if report.OverallScore, err = scoreField(obj, "overallScore", OverallScoreMin, ScoreMax); err != nil {
		return nil, err
	}
	if report.BusinessSummary, err = textField(obj, "businesssummary", true); err != nil {
		return nil, err
	}
	if report.Insights, err = textListField(obj, "insights", variant.MinListItems); err != nil {
		return nil, err
	}
	if report.Tips, err = textListField(obj, "tips", variant.MinListItems); err != nil {
		return nil, err
	}
	return &report, nil
}

// ExpectedOverall is the overall score the prompt asks the model to compute:
// 50% website, 25% each channel; without a website the channel average is
// halved.
func ExpectedOverall(r *model.AuditReport) float64 {
	if r.WebsiteScore != nil {
		return 0.5*(*r.WebsiteScore) + 0.25*r.InstagramScore + 0.25*r.FacebookScore
	}
	return (0.5*r.InstagramScore + 0.5*r.FacebookScore) / 2
}

func textField(obj map[string]any, field string, nonEmpty bool) (string, error) {
	raw, ok := obj[field]
	if !ok {
		return "", &ValidationError{Field: field, Rule: RuleMissing}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &ValidationError{Field: field, Rule: RuleWrongType, Detail: "expected text, got " + typeName(raw)}
	}
	if nonEmpty && strings.TrimSpace(s) == "" {
		return "", &ValidationError{Field: field, Rule: RuleEmpty}
	}
	return s, nil
}

func scoreField(obj map[string]any, field string, lo, hi float64) (float64, error) {
	raw, ok := obj[field]
	if !ok {
		return 0, &ValidationError{Field: field, Rule: RuleMissing}
	}
	return score(field, raw, lo, hi)
}

func optionalScoreField(obj map[string]any, field string, lo, hi float64) (*float64, error) {
	raw, ok := obj[field]
	if !ok || raw == nil {
		return nil, nil
	}
	v, err := score(field, raw, lo, hi)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func score(field string, raw any, lo, hi float64) (float64, error) {
	v, ok := toFloat(raw)
	if !ok {
		return 0, &ValidationError{Field: field, Rule: RuleWrongType, Detail: "expected number, got " + typeName(raw)}
	}
	if v < lo || v > hi {
		return 0, &ValidationError{Field: field, Rule: RuleOutOfRange, Detail: fmt.Sprintf("%g not in [%g,%g]", v, lo, hi)}
	}
	return v, nil
}

func textListField(obj map[string]any, field string, minLen int) ([]string, error) {
	raw, ok := obj[field]
	if !ok {
		return nil, &ValidationError{Field: field, Rule: RuleMissing}
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, &ValidationError{Field: field, Rule: RuleWrongType, Detail: "expected list, got " + typeName(raw)}
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &ValidationError{Field: fmt.Sprintf("%s[%d]", field, i), Rule: RuleWrongType, Detail: "expected text, got " + typeName(item)}
		}
		out = append(out, s)
	}
	if len(out) < minLen {
		return nil, &ValidationError{Field: field, Rule: RuleTooShort, Detail: fmt.Sprintf("%d items, need %d", len(out), minLen)}
	}
	return out, nil
}

func toFloat(raw any) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "text"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
