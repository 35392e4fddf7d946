package screening

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Category is a weighted scoring dimension of the job-candidate match.
type Category string

const (
	CategoryProjects   Category = "projects"
	CategorySkills     Category = "skills"
	CategoryExperience Category = "experience"
	CategoryEducation  Category = "education"
)

// CategoryOrder is the fixed priority order for tie-breaking. Ties on
// best-category selection resolve to the earliest entry here.
var CategoryOrder = []Category{
	CategoryProjects,
	CategorySkills,
	CategoryExperience,
	CategoryEducation,
}

// ScoringConfig holds the category weight table and recommendation
// thresholds. It is fixed configuration, validated once at startup.
type ScoringConfig struct {
	Weights map[Category]float64

	// Thresholds are lower bounds on the consolidated score, checked
	// top-down: Strong, then Moderate, then Weak. Below Weak is No Match.
	StrongThreshold   float64
	ModerateThreshold float64
	WeakThreshold     float64
}

// DefaultScoringConfig is the documented weighting policy: projects
// carry the most signal about demonstrated ability, then skills,
// experience, and education.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: map[Category]float64{
			CategoryProjects:   0.40,
			CategorySkills:     0.30,
			CategoryExperience: 0.20,
			CategoryEducation:  0.10,
		},
		StrongThreshold:   0.75,
		ModerateThreshold: 0.55,
		WeakThreshold:     0.35,
	}
}

const weightSumEpsilon = 1e-9

// Validate checks the configuration invariants. A bad table is a
// programmer error and must abort the process at startup.
func (c ScoringConfig) Validate() error {
	if len(c.Weights) == 0 {
		return fmt.Errorf("weight table is empty")
	}

	sum := 0.0
	for category, weight := range c.Weights {
		if weight < 0 {
			return fmt.Errorf("weight for category %q is negative: %f", category, weight)
		}
		found := false
		for _, known := range CategoryOrder {
			if category == known {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("weight table has unknown category %q", category)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return fmt.Errorf("weights must sum to 1.0, got %f", sum)
	}

	if !(c.StrongThreshold > c.ModerateThreshold && c.ModerateThreshold > c.WeakThreshold) {
		return fmt.Errorf("thresholds must be strictly descending: strong=%f moderate=%f weak=%f",
			c.StrongThreshold, c.ModerateThreshold, c.WeakThreshold)
	}
	if c.WeakThreshold < 0 || c.StrongThreshold > 1 {
		return fmt.Errorf("thresholds must lie within [0,1]")
	}

	return nil
}

// Recommend maps a consolidated score to its recommendation label.
func (c ScoringConfig) Recommend(score float64) Recommendation {
	switch {
	case score >= c.StrongThreshold:
		return RecommendationStrong
	case score >= c.ModerateThreshold:
		return RecommendationModerate
	case score >= c.WeakThreshold:
		return RecommendationWeak
	default:
		return RecommendationNone
	}
}

// RequirementTextFor flattens the requirement fields that feed a
// category into one comparable text. Empty when the JD said nothing
// relevant, which downstream scores as 0.0.
func RequirementTextFor(category Category, reqs StructuredRequirements) string {
	var parts []string
	switch category {
	case CategoryProjects:
		parts = reqs.ProjectExperience
	case CategorySkills:
		parts = append(append(parts, reqs.HardSkills...), reqs.RequiredTools...)
	case CategoryExperience:
		if reqs.RequiredExperience != "" {
			parts = append(parts, reqs.RequiredExperience)
		}
		if reqs.IndustryExperience != "" {
			parts = append(parts, reqs.IndustryExperience)
		}
	case CategoryEducation:
		if reqs.EducationRequirements != "" {
			parts = append(parts, reqs.EducationRequirements)
		}
		parts = append(parts, reqs.Certifications...)
	}

	// parts may alias the requirements record; never compact in place.
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			cleaned = append(cleaned, strings.TrimSpace(p))
		}
	}
	return strings.Join(cleaned, ". ")
}

// SectionForCategory returns the resume section a category compares
// against, with a secondary fallback where one exists.
func SectionForCategory(category Category, state *State) ([]float32, bool) {
	switch category {
	case CategoryProjects:
		vec, ok := state.ResumeEmbeddings[SectionProjects]
		return vec, ok
	case CategorySkills:
		vec, ok := state.ResumeEmbeddings[SectionSkills]
		return vec, ok
	case CategoryExperience:
		vec, ok := state.ResumeEmbeddings[SectionWorkExperience]
		return vec, ok
	case CategoryEducation:
		if vec, ok := state.ResumeEmbeddings[SectionEducation]; ok {
			return vec, true
		}
		vec, ok := state.ResumeEmbeddings[SectionCertifications]
		return vec, ok
	}
	return nil, false
}

// CosineSimilarity is the normalized dot product of two vectors.
// Defined as exactly 0.0 when either vector is absent or zero-norm,
// never NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ScoringEngine computes per-category similarity and the consolidated
// weighted score. Requirement embeddings come from the same embedder
// used on the resume so both sides share one embedding space.
type ScoringEngine struct {
	config   ScoringConfig
	embedder Embedder
}

// NewScoringEngine creates an engine with a validated configuration.
func NewScoringEngine(config ScoringConfig, embedder Embedder) (*ScoringEngine, error) {
	if err := config.Validate(); err != nil {
		return nil, ErrRegistry.NewWithCause(CodeScoringConfig, err)
	}
	return &ScoringEngine{
		config:   config,
		embedder: embedder,
	}, nil
}

// Config returns the engine's scoring configuration.
func (e *ScoringEngine) Config() ScoringConfig {
	return e.config
}

// Score fills CategoryScores, ConsolidatedScore, and Recommendation on
// the state. Missing sections and empty requirement texts score 0.0
// rather than erroring; an embedding failure for one category degrades
// that category to 0.0 and is recorded on the state.
func (e *ScoringEngine) Score(ctx context.Context, state *State) error {
	state.CategoryScores = make(map[Category]float64, len(e.config.Weights))
	consolidated := 0.0

	for _, category := range CategoryOrder {
		weight, weighted := e.config.Weights[category]
		if !weighted {
			continue
		}

		score := e.scoreCategory(ctx, category, state)
		state.CategoryScores[category] = score
		consolidated += weight * score
	}

	state.ConsolidatedScore = clamp01(consolidated)
	state.Recommendation = e.config.Recommend(state.ConsolidatedScore)
	return nil
}

func (e *ScoringEngine) scoreCategory(ctx context.Context, category Category, state *State) float64 {
	reqText := RequirementTextFor(category, state.Requirements)
	if reqText == "" {
		return 0.0
	}

	sectionVec, ok := SectionForCategory(category, state)
	if !ok {
		return 0.0
	}

	reqVec, err := e.embedder.Embed(ctx, reqText)
	if err != nil {
		state.AddDegradation(fmt.Sprintf("category %s: %v", category, ErrEmbeddingFailed(err)))
		return 0.0
	}

	// Negative cosines carry no useful ranking signal here; clamp so
	// one adversarial section cannot drag the weighted sum below zero.
	return clamp01(CosineSimilarity(sectionVec, reqVec))
}

// BestCategory returns the highest-scoring category, ties broken by
// CategoryOrder. Empty scores return the first configured category.
func BestCategory(scores map[Category]float64) Category {
	best := CategoryOrder[0]
	bestScore := math.Inf(-1)
	for _, category := range CategoryOrder {
		score, ok := scores[category]
		if !ok {
			continue
		}
		if score > bestScore {
			best = category
			bestScore = score
		}
	}
	return best
}

// SortedCategories returns the scored categories ordered by score
// descending, ties broken by CategoryOrder.
func SortedCategories(scores map[Category]float64) []Category {
	order := make(map[Category]int, len(CategoryOrder))
	for i, c := range CategoryOrder {
		order[c] = i
	}

	categories := make([]Category, 0, len(scores))
	for _, c := range CategoryOrder {
		if _, ok := scores[c]; ok {
			categories = append(categories, c)
		}
	}
	sort.SliceStable(categories, func(i, j int) bool {
		si, sj := scores[categories[i]], scores[categories[j]]
		if si != sj {
			return si > sj
		}
		return order[categories[i]] < order[categories[j]]
	})
	return categories
}
