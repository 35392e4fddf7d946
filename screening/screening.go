package screening

import (
	"time"

	"github.com/Abraxas-365/screener/pkg/kernel"
	"github.com/google/uuid"
)

// SectionLabel identifies one labeled chunk of a resume.
type SectionLabel string

// Fixed section vocabulary. The chunker drops anything else.
const (
	SectionWorkExperience SectionLabel = "work_experience"
	SectionSkills         SectionLabel = "skills"
	SectionProjects       SectionLabel = "projects"
	SectionEducation      SectionLabel = "education"
	SectionCertifications SectionLabel = "certifications"
	SectionSummary        SectionLabel = "summary"
)

// KnownSections lists the section vocabulary in canonical order.
var KnownSections = []SectionLabel{
	SectionWorkExperience,
	SectionSkills,
	SectionProjects,
	SectionEducation,
	SectionCertifications,
	SectionSummary,
}

// KnownSection reports whether label belongs to the fixed vocabulary.
func KnownSection(label SectionLabel) bool {
	for _, known := range KnownSections {
		if label == known {
			return true
		}
	}
	return false
}

// Stage marks how far a screening run has progressed.
type Stage string

const (
	StageInit             Stage = "init"
	StageResumeProcessed  Stage = "resume_processed"
	StageJDProcessed      Stage = "jd_processed"
	StageSummaryGenerated Stage = "summary_generated"
)

// Recommendation is the discrete decision label derived from the
// consolidated score. The labels are an external contract with the
// summary generator and must appear verbatim in the summary.
type Recommendation string

const (
	RecommendationStrong   Recommendation = "Strong Match"
	RecommendationModerate Recommendation = "Moderate Match"
	RecommendationWeak     Recommendation = "Weak Match"
	RecommendationNone     Recommendation = "No Match"
)

// StructuredRequirements is the typed extraction of a job description.
// Every field defaults to empty when the JD does not mention that
// category; fields are never nil-vs-absent.
type StructuredRequirements struct {
	RequiredExperience    string   `json:"required_experience"`
	HardSkills            []string `json:"hard_skills"`
	SoftSkills            []string `json:"soft_skills"`
	RequiredTools         []string `json:"required_tools"`
	EducationRequirements string   `json:"education_requirements"`
	Certifications        []string `json:"certifications"`
	ProjectExperience     []string `json:"project_experience"`
	IndustryExperience    string   `json:"industry_experience"`
}

// EmptyRequirements returns requirements with every field at its empty
// default, the degraded result when extraction fails entirely.
func EmptyRequirements() StructuredRequirements {
	return StructuredRequirements{
		HardSkills:        []string{},
		SoftSkills:        []string{},
		RequiredTools:     []string{},
		Certifications:    []string{},
		ProjectExperience: []string{},
	}
}

// IsEmpty reports whether no requirement category carries any content.
func (r StructuredRequirements) IsEmpty() bool {
	return r.RequiredExperience == "" &&
		len(r.HardSkills) == 0 &&
		len(r.SoftSkills) == 0 &&
		len(r.RequiredTools) == 0 &&
		r.EducationRequirements == "" &&
		len(r.Certifications) == 0 &&
		len(r.ProjectExperience) == 0 &&
		r.IndustryExperience == ""
}

// State is the single mutable record threaded through the workflow.
// Fields are populated monotonically: each node writes its own fields
// and never touches what an earlier node finalized.
type State struct {
	ScreeningID   kernel.ScreeningID `json:"screening_id"`
	CandidateName string             `json:"candidate_name"`

	// Raw inputs, set once at workflow entry.
	ResumeText string `json:"resume_text"`
	JDText     string `json:"jd_text"`

	// Populated by the resume node.
	ResumeSections   map[SectionLabel]string    `json:"resume_sections"`
	ResumeEmbeddings map[SectionLabel][]float32 `json:"resume_embeddings"`

	// Populated by the JD node.
	Requirements StructuredRequirements `json:"requirements"`

	// Populated by the summary node.
	CategoryScores    map[Category]float64 `json:"category_scores"`
	ConsolidatedScore float64              `json:"consolidated_score"`
	Recommendation    Recommendation       `json:"recommendation"`
	SummaryText       string               `json:"summary_text"`

	Stage        Stage    `json:"stage"`
	Incomplete   bool     `json:"incomplete"`
	Degradations []string `json:"degradations,omitempty"`
}

// NewState creates the initial state for one screening run.
func NewState(candidateName, resumeText, jdText string) *State {
	return &State{
		ScreeningID:      kernel.NewScreeningID(uuid.NewString()),
		CandidateName:    candidateName,
		ResumeText:       resumeText,
		JDText:           jdText,
		ResumeSections:   make(map[SectionLabel]string),
		ResumeEmbeddings: make(map[SectionLabel][]float32),
		Requirements:     EmptyRequirements(),
		CategoryScores:   make(map[Category]float64),
		Stage:            StageInit,
	}
}

// Namespace returns the run-scoped vector index namespace. One run's
// vectors never leak into another run's similarity queries.
func (s *State) Namespace() string {
	return "screening:" + s.ScreeningID.String()
}

// MarkIncomplete records an aborted run. Partial results stay readable.
func (s *State) MarkIncomplete(reason string) {
	s.Incomplete = true
	s.AddDegradation(reason)
}

// AddDegradation records that some stage fell back to a degraded result.
func (s *State) AddDegradation(reason string) {
	s.Degradations = append(s.Degradations, reason)
}

// HasSection reports whether the resume node produced a given section.
func (s *State) HasSection(label SectionLabel) bool {
	_, ok := s.ResumeSections[label]
	return ok
}

// Screening is the persisted record of one completed (or aborted) run.
type Screening struct {
	ID            kernel.ScreeningID `db:"id" json:"id"`
	CandidateName string             `db:"candidate_name" json:"candidate_name"`

	ResumeText string `db:"resume_text" json:"resume_text"`
	JDText     string `db:"jd_text" json:"jd_text"`

	Requirements      StructuredRequirements `db:"requirements" json:"requirements"`
	CategoryScores    map[Category]float64   `db:"category_scores" json:"category_scores"`
	ConsolidatedScore float64                `db:"consolidated_score" json:"consolidated_score"`
	Recommendation    Recommendation         `db:"recommendation" json:"recommendation"`
	SummaryText       string                 `db:"summary_text" json:"summary_text"`

	Incomplete   bool     `db:"incomplete" json:"incomplete"`
	Degradations []string `db:"degradations" json:"degradations,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FromState builds the persistable record from a finished workflow state.
func FromState(state *State) *Screening {
	return &Screening{
		ID:                state.ScreeningID,
		CandidateName:     state.CandidateName,
		ResumeText:        state.ResumeText,
		JDText:            state.JDText,
		Requirements:      state.Requirements,
		CategoryScores:    state.CategoryScores,
		ConsolidatedScore: state.ConsolidatedScore,
		Recommendation:    state.Recommendation,
		SummaryText:       state.SummaryText,
		Incomplete:        state.Incomplete,
		Degradations:      state.Degradations,
		CreatedAt:         time.Now(),
	}
}
