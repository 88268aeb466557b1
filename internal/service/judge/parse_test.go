package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

const fullVerdict = `{
  "analysis": {
    "partyA": {
      "score": 70,
      "strengths": ["clear timeline", "  "],
      "weaknesses": ["assumes intent"],
      "fallacies": [{"name": "strawman", "explanation": "misstates B"}],
      "keyEvidence": ["text messages"],
      "evidenceQuality": "Strong",
      "gaslighting": {"detected": true, "severity": "medium", "examples": ["that never happened"]}
    },
    "partyB": {
      "score": 20,
      "strengths": [],
      "weaknesses": ["no evidence"],
      "fallacies": ["ad hominem"],
      "keyEvidence": [],
      "evidenceQuality": "weak"
    }
  },
  "verdict": {
    "winner": "partyA",
    "confidence": 82,
    "summary": " A wins. ",
    "reasoning": "Better documented.",
    "advice": "Talk it out."
  }
}`

func TestParseVerdict_Full(t *testing.T) {
	t.Parallel()

	v, err := ParseVerdict(fullVerdict)
	require.NoError(t, err)

	assert.Equal(t, 78, v.PartyA.Score)
	assert.Equal(t, 22, v.PartyB.Score)
	assert.Equal(t, domain.WinnerPartyA, v.Winner)
	assert.Equal(t, 82, v.Confidence)
	assert.Equal(t, "A wins.", v.Summary)

	assert.Equal(t, []string{"clear timeline"}, v.PartyA.Strengths)
	assert.Equal(t, domain.EvidenceQualityStrong, v.PartyA.EvidenceQuality)
	assert.Equal(t, []domain.Fallacy{{Name: "strawman", Explanation: "misstates B"}}, v.PartyA.Fallacies)
	assert.True(t, v.PartyA.Gaslighting.Detected)
	assert.Equal(t, domain.SeverityMedium, v.PartyA.Gaslighting.Severity)

	assert.Equal(t, []domain.Fallacy{{Name: "ad hominem"}}, v.PartyB.Fallacies)
	assert.Equal(t, domain.GaslightingAssessment{Severity: domain.SeverityNone, Examples: []string{}}, v.PartyB.Gaslighting)
}

func TestParseVerdict_MissingOptionalFieldsDefaultEmpty(t *testing.T) {
	t.Parallel()

	raw := `{"analysis":{"partyA":{"score":50},"partyB":{"score":50}},"verdict":{"winner":"draw"}}`
	v, err := ParseVerdict(raw)
	require.NoError(t, err)

	for _, pa := range []domain.PartyAnalysis{v.PartyA, v.PartyB} {
		assert.NotNil(t, pa.Fallacies)
		assert.Empty(t, pa.Fallacies)
		assert.NotNil(t, pa.Strengths)
		assert.NotNil(t, pa.Weaknesses)
		assert.NotNil(t, pa.KeyEvidence)
		assert.Equal(t, domain.EvidenceQualityNone, pa.EvidenceQuality)
		assert.False(t, pa.Gaslighting.Detected)
		assert.Equal(t, domain.SeverityNone, pa.Gaslighting.Severity)
	}
	assert.Equal(t, domain.WinnerDraw, v.Winner)
}

func TestParseVerdict_StripsFencesAndProse(t *testing.T) {
	t.Parallel()

	raw := "```json\n{\"analysis\":{\"partyA\":{\"score\":40},\"partyB\":{\"score\":60}},\"verdict\":{\"winner\":\"partyB\"}}\n```"
	v, err := ParseVerdict(raw)
	require.NoError(t, err)
	assert.Equal(t, 40, v.PartyA.Score)
	assert.Equal(t, domain.WinnerPartyB, v.Winner)

	raw = "Here is my ruling:\n{\"analysis\":{\"partyA\":{\"score\":\"65%\"},\"partyB\":{\"score\":\"35\"}},\"verdict\":{}}\nHope that helps."
	v, err = ParseVerdict(raw)
	require.NoError(t, err)
	assert.Equal(t, 65, v.PartyA.Score)
	assert.Equal(t, 35, v.PartyB.Score)
	assert.Equal(t, domain.WinnerPartyA, v.Winner, "winner derived from scores when absent")
}

func TestParseVerdict_ScoreRepair(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		a, b       string
		wantA      int
		wantB      int
		wantWinner domain.Winner
	}{
		{"sum 90", "70", "20", 78, 22, domain.WinnerPartyA},
		{"sum 120", "60", "60", 50, 50, domain.WinnerDraw},
		{"both zero", "0", "0", 50, 50, domain.WinnerDraw},
		{"negative clamped", "-10", "30", 0, 100, domain.WinnerPartyB},
		{"over 100 rescaled", "150", "50", 75, 25, domain.WinnerPartyA},
		{"both over 100", "300", "100", 75, 25, domain.WinnerPartyA},
		{"fractional", "33.3", "66.7", 33, 67, domain.WinnerPartyB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw := `{"analysis":{"partyA":{"score":` + tt.a + `},"partyB":{"score":` + tt.b + `}},"verdict":{"winner":"nobody"}}`
			v, err := ParseVerdict(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantA, v.PartyA.Score)
			assert.Equal(t, tt.wantB, v.PartyB.Score)
			assert.Equal(t, 100, v.PartyA.Score+v.PartyB.Score)
			assert.Equal(t, tt.wantWinner, v.Winner)
		})
	}
}

func TestParseVerdict_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"prose only", "I cannot decide this case."},
		{"broken json", `{"analysis": {"partyA": `},
		{"missing verdict", `{"analysis":{"partyA":{"score":50},"partyB":{"score":50}}}`},
		{"missing analysis", `{"verdict":{"winner":"draw"}}`},
		{"missing party", `{"analysis":{"partyA":{"score":50}},"verdict":{}}`},
		{"missing score", `{"analysis":{"partyA":{"score":50},"partyB":{}},"verdict":{}}`},
		{"score wrong type", `{"analysis":{"partyA":{"score":true},"partyB":{"score":1}},"verdict":{}}`},
		{"score not numeric", `{"analysis":{"partyA":{"score":"lots"},"partyB":{"score":1}},"verdict":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseVerdict(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedOutput)
			assert.True(t, domain.IsEngineFailure(err))
		})
	}
}

func TestParseVerdict_LooseShapes(t *testing.T) {
	t.Parallel()

	raw := `{
	  "analysis": {
	    "partyA": {"score": 55, "strengths": "single string", "fallacies": [{"type": "red herring", "description": "off topic"}], "gaslighting": {"detected": true}},
	    "partyB": {"score": 45, "strengths": null, "fallacies": null, "gaslighting": null}
	  },
	  "verdict": {"winner": "Party A", "confidence": "90"}
	}`
	v, err := ParseVerdict(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"single string"}, v.PartyA.Strengths)
	assert.Equal(t, []domain.Fallacy{{Name: "red herring", Explanation: "off topic"}}, v.PartyA.Fallacies)
	assert.Equal(t, domain.SeverityLow, v.PartyA.Gaslighting.Severity, "detected without severity is low")
	assert.Equal(t, []string{}, v.PartyB.Strengths)
	assert.Equal(t, []domain.Fallacy{}, v.PartyB.Fallacies)
	assert.Equal(t, domain.WinnerPartyA, v.Winner)
	assert.Equal(t, 90, v.Confidence)
}

func TestParseAppeal(t *testing.T) {
	t.Parallel()

	raw := `{
	  "newAnalysis": {"partyA": {"score": 30}, "partyB": {"score": 60}},
	  "newVerdict": {"winner": "partyB", "confidence": 70, "summary": "B now wins", "reasoning": "new receipts"},
	  "appealAssessment": {"meritorious": true, "newEvidenceImpact": "decisive", "changeSummary": "Receipts flipped it."}
	}`
	d, err := ParseAppeal(raw)
	require.NoError(t, err)

	assert.Equal(t, 33, d.PartyA.Score)
	assert.Equal(t, 67, d.PartyB.Score)
	assert.Equal(t, domain.WinnerPartyB, d.Winner)
	assert.True(t, d.Meritorious)
	assert.Equal(t, "Receipts flipped it.", d.ChangeSummary)
	assert.Equal(t, domain.VerdictSnapshot{
		Winner: domain.WinnerPartyB, PartyAScore: 33, PartyBScore: 67, Confidence: 70,
		Summary: "B now wins", Reasoning: "new receipts",
	}, d.Snapshot())
}

func TestParseAppeal_MissingAssessment(t *testing.T) {
	t.Parallel()

	raw := `{"newAnalysis": {"partyA": {"score": 30}, "partyB": {"score": 70}}, "newVerdict": {}}`
	_, err := ParseAppeal(raw)
	assert.ErrorIs(t, err, domain.ErrMalformedOutput)
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFences("  {\"a\":1}  "))
}
