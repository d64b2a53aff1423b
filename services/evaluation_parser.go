package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	minScore = 0
	maxScore = 10
)

// CategoryResult is one scored dimension of an evaluation.
type CategoryResult struct {
	Score  int
	Reason string
	Advice string
}

// ParsedEvaluation is the validated content of a completion reply.
// Gram fields are nil when the model gave nothing usable.
type ParsedEvaluation struct {
	Macro   CategoryResult
	Disease CategoryResult
	Goal    CategoryResult

	MacroReasonRaw string
	CarbsG         *int
	ProteinG       *int
	FatG           *int
}

// ParseEvaluation reads the reply requested by BuildEvaluationPrompt. Any
// failure is a *ResponseParseError carrying raw.
func ParseEvaluation(raw string) (*ParsedEvaluation, error) {
	doc, err := decodeObject(stripCodeFence(raw))
	if err != nil {
		return nil, &ResponseParseError{Raw: raw, Detail: err.Error()}
	}

	var out ParsedEvaluation
	sections := []struct {
		name string
		dst  *CategoryResult
	}{
		{"macro", &out.Macro},
		{"disease", &out.Disease},
		{"goal", &out.Goal},
	}
	for _, s := range sections {
		sec, err := section(doc, s.name)
		if err != nil {
			return nil, &ResponseParseError{Raw: raw, Detail: err.Error()}
		}
		cat, err := readCategory(sec)
		if err != nil {
			return nil, &ResponseParseError{Raw: raw, Detail: fmt.Sprintf("%s.%v", s.name, err)}
		}
		*s.dst = cat

		if s.name == "macro" {
			out.MacroReasonRaw = cat.Reason
			out.CarbsG = coerceGrams(sec["carbs_g"])
			out.ProteinG = coerceGrams(sec["protein_g"])
			out.FatG = coerceGrams(sec["fat_g"])
		}
	}

	out.Macro.Reason = ComposeMacroReason(out.CarbsG, out.ProteinG, out.FatG, out.MacroReasonRaw)
	return &out, nil
}

// ComposeMacroReason builds the stored two-line macro reason: a gram summary
// followed by the model's own reason.
func ComposeMacroReason(carbs, protein, fat *int, reason string) string {
	var line1 string
	if carbs != nil && protein != nil && fat != nil {
		line1 = fmt.Sprintf("Carbs %dg, Protein %dg, Fat %dg", *carbs, *protein, *fat)
	} else {
		line1 = fmt.Sprintf("Carbs %s, Protein %s, Fat %s", gramsOrNA(carbs), gramsOrNA(protein), gramsOrNA(fat))
	}
	return line1 + "\n" + strings.TrimSpace(reason)
}

func gramsOrNA(v *int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%dg", *v)
}

// stripCodeFence removes a ```json ... ``` wrapper some models add.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	} else {
		return s
	}
	return strings.TrimSuffix(strings.TrimSpace(t), "```")
}

func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if doc == nil {
		return nil, errors.New("response is not a JSON object")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("unexpected data after JSON object")
	}
	return doc, nil
}

// section returns the named category. A missing category reads as empty.
func section(doc map[string]any, name string) (map[string]any, error) {
	v, ok := doc[name]
	if !ok {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object", name)
	}
	return m, nil
}

func readCategory(sec map[string]any) (CategoryResult, error) {
	score := 0
	if v, ok := sec["score"]; ok {
		s, err := coerceScore(v)
		if err != nil {
			return CategoryResult{}, fmt.Errorf("score: %w", err)
		}
		score = s
	}
	return CategoryResult{
		Score:  score,
		Reason: coerceText(sec["reason"]),
		Advice: coerceText(sec["advice"]),
	}, nil
}

// coerceScore accepts integers, decimals (truncated) and integer strings,
// then clamps to the 0-10 range. Values too large for an int clamp as well.
func coerceScore(v any) (int, error) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := x.Float64()
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("not a number: %q", x.String())
		}
		f = parsed
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("not an integer: %q", x)
		}
		f = float64(i)
	case bool:
		if x {
			f = 1
		}
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
	return int(math.Max(minScore, math.Min(maxScore, math.Trunc(f)))), nil
}

// maxGrams bounds a plausible gram estimate; larger values are treated as
// absent.
const maxGrams = math.MaxInt32

// coerceGrams rounds a gram estimate half-to-even. Anything that is not a
// finite number in [0, maxGrams] yields nil.
func coerceGrams(v any) *int {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || f < 0 || f > maxGrams {
		return nil
	}
	n := int(math.RoundToEven(f))
	return &n
}

func coerceText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
