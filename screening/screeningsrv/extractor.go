package screeningsrv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abraxas-365/screener/screening"
)

const extractorSystemPrompt = `You are a job description analyst. Extract the requirements from the job description.
Respond with a single JSON object with exactly these keys:
  "required_experience": string describing years and kind of experience required,
  "hard_skills": array of technical skill strings,
  "soft_skills": array of interpersonal skill strings,
  "required_tools": array of tool/platform strings,
  "education_requirements": string describing degrees or fields required,
  "certifications": array of certification strings,
  "project_experience": array of strings describing project work expected,
  "industry_experience": string describing industry background required.
Use an empty string or empty array for anything the job description does not mention.`

// Extractor converts free-text job descriptions into the typed
// requirement record via one extraction call to the text service.
type Extractor struct {
	textService screening.TextService
}

// NewExtractor creates a requirement extractor.
func NewExtractor(textService screening.TextService) *Extractor {
	return &Extractor{textService: textService}
}

// Extract parses the JD into structured requirements. Extraction is
// best-effort: a failed call or unparseable response returns the empty
// record plus the error so the caller can record the degradation.
func (e *Extractor) Extract(ctx context.Context, jdText string) (screening.StructuredRequirements, error) {
	input := truncate(jdText, maxPromptChars)

	response, err := e.textService.GenerateJSON(ctx, extractorSystemPrompt, input)
	if err != nil {
		return screening.EmptyRequirements(), llmErr(err, screening.ErrExtractionFailed)
	}

	reqs, err := parseRequirements(response)
	if err != nil {
		return screening.EmptyRequirements(), screening.ErrExtractionFailed(err)
	}
	return reqs, nil
}

func parseRequirements(response string) (screening.StructuredRequirements, error) {
	raw, ok := extractJSON(response)
	if !ok {
		return screening.EmptyRequirements(), fmt.Errorf("no JSON object in response")
	}

	var parsed screening.StructuredRequirements
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return screening.EmptyRequirements(), fmt.Errorf("invalid requirements JSON: %w", err)
	}

	// Absent fields must be empty collections, never nil.
	if parsed.HardSkills == nil {
		parsed.HardSkills = []string{}
	}
	if parsed.SoftSkills == nil {
		parsed.SoftSkills = []string{}
	}
	if parsed.RequiredTools == nil {
		parsed.RequiredTools = []string{}
	}
	if parsed.Certifications == nil {
		parsed.Certifications = []string{}
	}
	if parsed.ProjectExperience == nil {
		parsed.ProjectExperience = []string{}
	}

	return parsed, nil
}
