package judge

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/whosright-backend/internal/domain"
)

var toneInstructions = map[domain.Tone]string{
	domain.ToneNeutral: `Be balanced and matter-of-fact. Explain the ruling plainly.`,
	domain.ToneGentle:  `Be kind and constructive. Soften criticism and focus on repairing the relationship.`,
	domain.ToneBrutal:  `Be blunt and direct. Call out weak reasoning without sugar-coating, but never insult.`,
	domain.ToneFunny:   `Be witty. Roast weak arguments playfully while keeping the ruling fair and clear.`,
}

const systemPrompt = `You are an impartial judge settling a two-party dispute.
Score each side on the strength of its reasoning and evidence, detect logical fallacies and
manipulation such as gaslighting, and pick a winner or declare a draw.
Scores are integers from 0 to 100 and the two scores must add up to 100.
%s
Respond with ONLY a JSON object, no markdown and no commentary.`

const verdictFormat = `{
  "analysis": {
    "partyA": {
      "score": <0-100>,
      "strengths": ["..."],
      "weaknesses": ["..."],
      "fallacies": [{"name": "...", "explanation": "..."}],
      "keyEvidence": ["..."],
      "evidenceQuality": "none|weak|moderate|strong",
      "gaslighting": {"detected": false, "severity": "none|low|medium|high", "examples": []}
    },
    "partyB": { ...same shape as partyA... }
  },
  "verdict": {
    "winner": "partyA|partyB|draw",
    "confidence": <0-100>,
    "summary": "<one or two sentences>",
    "reasoning": "<why this side prevailed>",
    "advice": "<how both can move forward>"
  }
}`

const appealFormat = `{
  "newAnalysis": { "partyA": {...}, "partyB": {...} },
  "newVerdict": {
    "winner": "partyA|partyB|draw",
    "confidence": <0-100>,
    "summary": "...",
    "reasoning": "..."
  },
  "appealAssessment": {
    "meritorious": true|false,
    "newEvidenceImpact": "<how the new material changed the picture>",
    "changeSummary": "<what changed from the original ruling and why, or why nothing changed>"
  }
}`

func buildSystemPrompt(tone domain.Tone) string {
	instr, ok := toneInstructions[tone]
	if !ok {
		instr = toneInstructions[domain.ToneNeutral]
	}
	return fmt.Sprintf(systemPrompt, instr)
}

func buildVerdictPrompt(req VerdictRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n\n", req.Category)
	writeParty(&b, "Party A", req.PartyA)
	writeParty(&b, "Party B", req.PartyB)
	b.WriteString("Output a JSON object with exactly this shape:\n")
	b.WriteString(verdictFormat)
	return b.String()
}

func buildAppealPrompt(req AppealRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n\n", req.Category)
	writeParty(&b, "Party A", req.PartyA)
	writeParty(&b, "Party B", req.PartyB)

	o := req.Original
	fmt.Fprintf(&b, "Original ruling: winner %s, scores A %d / B %d, confidence %d.\n", o.Winner, o.PartyAScore, o.PartyBScore, o.Confidence)
	fmt.Fprintf(&b, "Original summary: %s\nOriginal reasoning: %s\n\n", o.Summary, o.Reasoning)

	appellant := "Party A"
	if req.Appellant == domain.PartyB {
		appellant = "Party B"
	}
	fmt.Fprintf(&b, "%s appeals. Reason:\n%s\n\n", appellant, req.Reason)
	writeList(&b, "New evidence", req.NewEvidence)
	writeList(&b, "New image evidence (URLs)", req.NewEvidenceImages)

	b.WriteString("Re-evaluate the whole dispute. Change the ruling only if the appeal has merit.\n")
	b.WriteString("Output a JSON object with exactly this shape:\n")
	b.WriteString(appealFormat)
	return b.String()
}

func writeParty(b *strings.Builder, label string, p domain.PartySubmission) {
	fmt.Fprintf(b, "%s (%s) says:\n%s\n", label, p.Name, p.Argument)
	writeList(b, label+" evidence", p.Evidence)
	writeList(b, label+" image evidence (URLs)", p.EvidenceImages)
	b.WriteString("\n")
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
