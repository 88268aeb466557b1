package judge

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

// ParseVerdict turns raw engine text into a normalized verdict.
// The result always has scores summing to 100 and non-nil list fields.
func ParseVerdict(raw string) (*domain.Verdict, error) {
	var out rawVerdictOutput
	if err := decodeValidated(raw, verdictOutputSchema, &out); err != nil {
		return nil, err
	}

	a, b := normalizeScores(out.Analysis.PartyA.Score.value(), out.Analysis.PartyB.Score.value())
	v := &domain.Verdict{
		PartyA:     out.Analysis.PartyA.toDomain(a),
		PartyB:     out.Analysis.PartyB.toDomain(b),
		Confidence: clampPercent(out.Verdict.Confidence.value()),
		Summary:    strings.TrimSpace(out.Verdict.Summary),
		Reasoning:  strings.TrimSpace(out.Verdict.Reasoning),
		Advice:     strings.TrimSpace(out.Verdict.Advice),
	}
	v.Winner = resolveWinner(out.Verdict.Winner, a, b)
	return v, nil
}

// ParseAppeal turns raw engine text into a normalized appeal decision.
func ParseAppeal(raw string) (*domain.AppealDecision, error) {
	var out rawAppealOutput
	if err := decodeValidated(raw, appealOutputSchema, &out); err != nil {
		return nil, err
	}

	a, b := normalizeScores(out.NewAnalysis.PartyA.Score.value(), out.NewAnalysis.PartyB.Score.value())
	d := &domain.AppealDecision{
		PartyA:            out.NewAnalysis.PartyA.toDomain(a),
		PartyB:            out.NewAnalysis.PartyB.toDomain(b),
		Confidence:        clampPercent(out.NewVerdict.Confidence.value()),
		Summary:           strings.TrimSpace(out.NewVerdict.Summary),
		Reasoning:         strings.TrimSpace(out.NewVerdict.Reasoning),
		Meritorious:       out.AppealAssessment.Meritorious,
		NewEvidenceImpact: strings.TrimSpace(out.AppealAssessment.NewEvidenceImpact),
		ChangeSummary:     strings.TrimSpace(out.AppealAssessment.ChangeSummary),
	}
	d.Winner = resolveWinner(out.NewVerdict.Winner, a, b)
	return d, nil
}

// decodeValidated strips fences, extracts the JSON object, checks it
// against schema and decodes it into dst.
func decodeValidated(raw string, schema *jsonschema.Schema, dst any) error {
	body, err := extractJSON(stripFences(raw))
	if err != nil {
		return &domain.MalformedOutputError{Reason: "no JSON object", Err: err}
	}

	var doc any
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return &domain.MalformedOutputError{Reason: "invalid JSON", Err: err}
	}
	if err := schema.Validate(doc); err != nil {
		return &domain.MalformedOutputError{Reason: "missing required sections", Err: err}
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return &domain.MalformedOutputError{Reason: "unexpected field types", Err: err}
	}
	return nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// extractJSON returns the text between the first '{' and the last '}'.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

// normalizeScores rescales both scores proportionally to a 100-point total.
// Negative scores count as zero; there is no upper bound before rescaling,
// so 150/50 becomes 75/25. Party B receives the remainder so the sum is exact.
func normalizeScores(a, b float64) (int, int) {
	a, b = nonNegative(a), nonNegative(b)
	top := max(a, b)
	if top == 0 {
		return 50, 50
	}
	a, b = a/top, b/top
	pa := int(math.Round(a * 100 / (a + b)))
	return pa, 100 - pa
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}

func resolveWinner(raw string, a, b int) domain.Winner {
	if w, ok := domain.ParseWinner(raw); ok {
		return w
	}
	switch {
	case a > b:
		return domain.WinnerPartyA
	case b > a:
		return domain.WinnerPartyB
	default:
		return domain.WinnerDraw
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return min(v, 100)
}

func clampPercent(v float64) int {
	return int(math.Round(clamp(v)))
}

type rawVerdictOutput struct {
	Analysis rawAnalysisPair `json:"analysis"`
	Verdict  rawRuling       `json:"verdict"`
}

type rawAppealOutput struct {
	NewAnalysis      rawAnalysisPair `json:"newAnalysis"`
	NewVerdict       rawRuling       `json:"newVerdict"`
	AppealAssessment struct {
		Meritorious       bool   `json:"meritorious"`
		NewEvidenceImpact string `json:"newEvidenceImpact"`
		ChangeSummary     string `json:"changeSummary"`
	} `json:"appealAssessment"`
}

type rawAnalysisPair struct {
	PartyA rawPartyAnalysis `json:"partyA"`
	PartyB rawPartyAnalysis `json:"partyB"`
}

type rawRuling struct {
	Winner     string     `json:"winner"`
	Confidence flexNumber `json:"confidence"`
	Summary    string     `json:"summary"`
	Reasoning  string     `json:"reasoning"`
	Advice     string     `json:"advice"`
}

type rawPartyAnalysis struct {
	Score           flexNumber      `json:"score"`
	Strengths       flexStrings     `json:"strengths"`
	Weaknesses      flexStrings     `json:"weaknesses"`
	Fallacies       []rawFallacy    `json:"fallacies"`
	KeyEvidence     flexStrings     `json:"keyEvidence"`
	EvidenceQuality string          `json:"evidenceQuality"`
	Gaslighting     *rawGaslighting `json:"gaslighting"`
}

func (r rawPartyAnalysis) toDomain(score int) domain.PartyAnalysis {
	fallacies := make([]domain.Fallacy, 0, len(r.Fallacies))
	for _, f := range r.Fallacies {
		if name := strings.TrimSpace(f.Name); name != "" {
			fallacies = append(fallacies, domain.Fallacy{Name: name, Explanation: strings.TrimSpace(f.Explanation)})
		}
	}

	g := domain.GaslightingAssessment{Severity: domain.SeverityNone, Examples: []string{}}
	if r.Gaslighting != nil {
		g.Detected = r.Gaslighting.Detected
		g.Severity = domain.ParseSeverity(r.Gaslighting.Severity)
		g.Examples = domain.CleanList(r.Gaslighting.Examples)
		if g.Detected && g.Severity == domain.SeverityNone {
			g.Severity = domain.SeverityLow
		}
	}

	return domain.PartyAnalysis{
		Score:           score,
		Strengths:       domain.CleanList(r.Strengths),
		Weaknesses:      domain.CleanList(r.Weaknesses),
		Fallacies:       fallacies,
		KeyEvidence:     domain.CleanList(r.KeyEvidence),
		EvidenceQuality: domain.ParseEvidenceQuality(r.EvidenceQuality),
		Gaslighting:     g,
	}
}

type rawGaslighting struct {
	Detected bool        `json:"detected"`
	Severity string      `json:"severity"`
	Examples flexStrings `json:"examples"`
}

// rawFallacy accepts either a bare name or {"name"|"type", "explanation"|"description"}.
type rawFallacy struct {
	Name        string
	Explanation string
}

func (f *rawFallacy) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		f.Name = name
		return nil
	}
	var obj struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		Explanation string `json:"explanation"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("fallacy: %w", err)
	}
	f.Name = cmp.Or(obj.Name, obj.Type)
	f.Explanation = cmp.Or(obj.Explanation, obj.Description)
	return nil
}

// flexStrings accepts a list of strings, a single string, or null.
type flexStrings []string

func (s *flexStrings) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = flexStrings{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	*s = many
	return nil
}

// flexNumber accepts a number, a numeric string ("78", "78%"), or null.
type flexNumber struct {
	v float64
}

func (n flexNumber) value() float64 { return n.v }

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.v = f
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("number: %w", err)
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("number %q: %w", s, err)
	}
	n.v = f
	return nil
}

