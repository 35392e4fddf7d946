package screeningsrv

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abraxas-365/screener/pkg/logx"
	"github.com/Abraxas-365/screener/screening"
)

const summarizerSystemPrompt = `You are a recruitment assistant. Write exactly one sentence summarizing a candidate screening result.
The sentence must contain the recommendation label verbatim, name the candidate's strongest category as the primary justification, and reference the overall score.
Do not soften, hedge, or change the recommendation label. Respond with the sentence only, no quotes or preamble.`

const nameExtractionPrompt = `Extract the candidate's full name from the resume text. Respond with the name only, nothing else. If no name can be found, respond with exactly: Unknown Candidate`

// nameWindowChars limits how much resume text the name extraction sees.
// Names appear at the top; the rest is noise and tokens.
const nameWindowChars = 2000

// UnknownCandidate is the fallback when no name can be extracted.
const UnknownCandidate = "Unknown Candidate"

// Summarizer turns the numeric score breakdown into a one-sentence
// justification. It must never be the reason a run fails: malformed
// responses fall back to a deterministic template.
type Summarizer struct {
	textService screening.TextService
}

// NewSummarizer creates a summary generator.
func NewSummarizer(textService screening.TextService) *Summarizer {
	return &Summarizer{textService: textService}
}

// Summarize produces the final one-sentence justification.
func (s *Summarizer) Summarize(ctx context.Context, state *screening.State) string {
	best := screening.BestCategory(state.CategoryScores)
	userPrompt := s.buildPrompt(state, best)

	response, err := s.textService.Generate(ctx, summarizerSystemPrompt, userPrompt)
	if err != nil {
		logx.Warnf("Summary generation failed, using template fallback: %v", err)
		state.AddDegradation(screening.ErrSummaryFailed(err).Error())
		return templateSummary(state, best)
	}

	summary := strings.TrimSpace(response)
	if !validSummary(summary, state.Recommendation) {
		logx.Warnf("Summary response rejected, using template fallback: %q", summary)
		state.AddDegradation("summary response malformed, template used")
		return templateSummary(state, best)
	}

	return summary
}

func (s *Summarizer) buildPrompt(state *screening.State, best screening.Category) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Candidate: %s\n", state.CandidateName)
	fmt.Fprintf(&sb, "Recommendation: %s\n", state.Recommendation)
	fmt.Fprintf(&sb, "Overall score: %.2f\n", state.ConsolidatedScore)
	fmt.Fprintf(&sb, "Strongest category: %s\n", best)
	sb.WriteString("Category scores:\n")
	for _, category := range screening.SortedCategories(state.CategoryScores) {
		fmt.Fprintf(&sb, "  %s: %.2f\n", category, state.CategoryScores[category])
	}
	return sb.String()
}

// validSummary enforces the summary contract: non-empty, single
// sentence, recommendation label present verbatim.
func validSummary(summary string, recommendation screening.Recommendation) bool {
	if summary == "" {
		return false
	}
	if !strings.Contains(summary, string(recommendation)) {
		return false
	}
	if strings.Count(summary, "\n") > 0 {
		return false
	}
	// A terminator followed by a space means a second sentence started.
	// Bare periods inside scores like 0.46 do not count.
	for _, sep := range []string{". ", "! ", "? "} {
		if strings.Contains(summary, sep) {
			return false
		}
	}
	return true
}

// templateSummary is the deterministic fallback built from the same
// inputs the model would have seen.
func templateSummary(state *screening.State, best screening.Category) string {
	return fmt.Sprintf("%s is a %s with an overall score of %.2f, driven primarily by the %s category (%.2f).",
		state.CandidateName,
		state.Recommendation,
		state.ConsolidatedScore,
		best,
		state.CategoryScores[best],
	)
}

// ExtractCandidateName pulls the candidate's name from the top of the
// resume. Falls back to UnknownCandidate on any failure.
func (s *Summarizer) ExtractCandidateName(ctx context.Context, resumeText string) string {
	response, err := s.textService.Generate(ctx, nameExtractionPrompt, truncate(resumeText, nameWindowChars))
	if err != nil {
		logx.Warnf("Candidate name extraction failed: %v", err)
		return UnknownCandidate
	}

	name := strings.TrimSpace(response)
	if name == "" || len(name) > 100 || strings.Count(name, "\n") > 0 {
		return UnknownCandidate
	}
	return name
}
