package screeningsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Abraxas-365/screener/pkg/logx"
	"github.com/Abraxas-365/screener/screening"
)

// maxPromptChars is the input window sent to the text service. Longer
// inputs are truncated; result quality degrades instead of erroring.
const maxPromptChars = 6000

const chunkerSystemPrompt = `You are a resume parsing assistant. Split the resume into labeled sections.
Respond with a single JSON object whose keys are section labels and whose values are the verbatim text of that section.
Use only these labels: work_experience, skills, projects, education, certifications, summary.
Omit labels that have no content in the resume. Do not invent content.`

// Chunker splits raw resume text into the fixed section vocabulary via
// one structuring call to the text service.
type Chunker struct {
	textService screening.TextService
}

// NewChunker creates a resume chunker.
func NewChunker(textService screening.TextService) *Chunker {
	return &Chunker{textService: textService}
}

// Chunk partitions resume text into labeled sections. Unknown labels in
// the response are discarded; labels absent from the response are left
// unset. A response that cannot be parsed at all returns an error so
// the caller can degrade.
func (c *Chunker) Chunk(ctx context.Context, resumeText string) (map[screening.SectionLabel]string, error) {
	input := truncate(resumeText, maxPromptChars)

	response, err := c.textService.GenerateJSON(ctx, chunkerSystemPrompt, input)
	if err != nil {
		return nil, llmErr(err, screening.ErrChunkingFailed)
	}

	sections, err := parseSections(response)
	if err != nil {
		return nil, screening.ErrChunkingFailed(err)
	}
	if len(sections) == 0 {
		return nil, screening.ErrChunkingFailed(fmt.Errorf("response contained no known sections"))
	}

	return sections, nil
}

func parseSections(response string) (map[screening.SectionLabel]string, error) {
	raw, ok := extractJSON(response)
	if !ok {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("invalid section JSON: %w", err)
	}

	sections := make(map[screening.SectionLabel]string)
	for key, value := range parsed {
		label := screening.SectionLabel(strings.ToLower(strings.TrimSpace(key)))
		if !screening.KnownSection(label) {
			logx.Debugf("Dropping unknown section label: %s", key)
			continue
		}

		content := stringifySection(value)
		if content == "" {
			continue
		}
		sections[label] = content
	}

	return sections, nil
}

// stringifySection flattens a section value. Models occasionally emit
// arrays of lines instead of one string.
func stringifySection(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		var lines []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				lines = append(lines, strings.TrimSpace(s))
			}
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}
