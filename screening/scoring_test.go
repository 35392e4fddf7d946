package screening

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strings"
	"testing"

	"github.com/Abraxas-365/screener/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEmbedder is a deterministic bag-of-words embedder for tests.
// Identical text always embeds to the identical vector.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return hashVector(text), nil
}

func (hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t)
	}
	return out, nil
}

func hashVector(text string) []float32 {
	vec := make([]float32, 256)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%256]++
	}
	return vec
}

func TestDefaultScoringConfigIsValid(t *testing.T) {
	cfg := DefaultScoringConfig()
	require.NoError(t, cfg.Validate())

	sum := 0.0
	for _, w := range cfg.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestScoringConfigValidateRejectsBadTables(t *testing.T) {
	t.Run("empty table", func(t *testing.T) {
		cfg := DefaultScoringConfig()
		cfg.Weights = map[Category]float64{}
		assert.Error(t, cfg.Validate())
	})

	t.Run("weights not summing to one", func(t *testing.T) {
		cfg := DefaultScoringConfig()
		cfg.Weights[CategoryProjects] = 0.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative weight", func(t *testing.T) {
		cfg := DefaultScoringConfig()
		cfg.Weights[CategoryProjects] = -0.1
		cfg.Weights[CategorySkills] = 0.8
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown category", func(t *testing.T) {
		cfg := DefaultScoringConfig()
		delete(cfg.Weights, CategoryEducation)
		cfg.Weights[Category("charisma")] = 0.10
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-descending thresholds", func(t *testing.T) {
		cfg := DefaultScoringConfig()
		cfg.ModerateThreshold = cfg.StrongThreshold
		assert.Error(t, cfg.Validate())
	})
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 2, 3, 4}
	neg := []float32{-1, -2, -3, -4}

	assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity(a, neg), 1e-9)

	// Missing or zero-norm vectors are exactly 0.0, never NaN
	assert.Equal(t, 0.0, CosineSimilarity(nil, a))
	assert.Equal(t, 0.0, CosineSimilarity(a, nil))
	assert.Equal(t, 0.0, CosineSimilarity(a, []float32{0, 0, 0, 0}))
	assert.Equal(t, 0.0, CosineSimilarity(a, []float32{1, 2}))
}

func TestConsolidatedScoreStaysInRange(t *testing.T) {
	cfg := DefaultScoringConfig()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		consolidated := 0.0
		for _, w := range cfg.Weights {
			// Raw cosines can be negative; the engine clamps before weighting
			score := rng.Float64()*2 - 1
			if score < 0 {
				score = 0
			}
			consolidated += w * score
		}
		assert.GreaterOrEqual(t, consolidated, 0.0)
		assert.LessOrEqual(t, consolidated, 1.0)
	}
}

func TestRecommendThresholdsPartitionUnitInterval(t *testing.T) {
	cfg := DefaultScoringConfig()

	// Every point in [0,1] maps to exactly one label, boundaries inclusive upward
	assert.Equal(t, RecommendationNone, cfg.Recommend(0.0))
	assert.Equal(t, RecommendationNone, cfg.Recommend(cfg.WeakThreshold-0.001))
	assert.Equal(t, RecommendationWeak, cfg.Recommend(cfg.WeakThreshold))
	assert.Equal(t, RecommendationWeak, cfg.Recommend(cfg.ModerateThreshold-0.001))
	assert.Equal(t, RecommendationModerate, cfg.Recommend(cfg.ModerateThreshold))
	assert.Equal(t, RecommendationModerate, cfg.Recommend(cfg.StrongThreshold-0.001))
	assert.Equal(t, RecommendationStrong, cfg.Recommend(cfg.StrongThreshold))
	assert.Equal(t, RecommendationStrong, cfg.Recommend(1.0))
}

func TestRequirementTextFor(t *testing.T) {
	reqs := StructuredRequirements{
		RequiredExperience:    "5 years backend",
		HardSkills:            []string{"Go", "Python"},
		RequiredTools:         []string{"Docker"},
		EducationRequirements: "BSc Computer Science",
		Certifications:        []string{"AWS SAA"},
		ProjectExperience:     []string{"built APIs"},
		IndustryExperience:    "fintech",
	}

	assert.Equal(t, "built APIs", RequirementTextFor(CategoryProjects, reqs))
	assert.Equal(t, "Go. Python. Docker", RequirementTextFor(CategorySkills, reqs))
	assert.Equal(t, "5 years backend. fintech", RequirementTextFor(CategoryExperience, reqs))
	assert.Equal(t, "BSc Computer Science. AWS SAA", RequirementTextFor(CategoryEducation, reqs))

	empty := EmptyRequirements()
	for _, category := range CategoryOrder {
		assert.Empty(t, RequirementTextFor(category, empty))
	}
}

func TestRequirementTextForLeavesRequirementsIntact(t *testing.T) {
	reqs := EmptyRequirements()
	reqs.ProjectExperience = []string{"   ", "built APIs "}

	first := RequirementTextFor(CategoryProjects, reqs)
	second := RequirementTextFor(CategoryProjects, reqs)

	assert.Equal(t, "built APIs", first)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"   ", "built APIs "}, reqs.ProjectExperience)
}

func TestScoreIsIdempotent(t *testing.T) {
	engine, err := NewScoringEngine(DefaultScoringConfig(), hashEmbedder{})
	require.NoError(t, err)

	build := func() *State {
		state := NewState("Jane Doe", "resume", "jd")
		state.ResumeSections[SectionSkills] = "python aws docker kubernetes"
		state.ResumeEmbeddings[SectionSkills] = hashVector("python aws docker kubernetes")
		state.Requirements = EmptyRequirements()
		state.Requirements.HardSkills = []string{"python", "aws"}
		return state
	}

	first := build()
	second := build()
	require.NoError(t, engine.Score(context.Background(), first))
	require.NoError(t, engine.Score(context.Background(), second))

	assert.Equal(t, first.CategoryScores, second.CategoryScores)
	assert.Equal(t, first.ConsolidatedScore, second.ConsolidatedScore)
	assert.Equal(t, first.Recommendation, second.Recommendation)
}

func TestScoreMissingSectionScoresZero(t *testing.T) {
	engine, err := NewScoringEngine(DefaultScoringConfig(), hashEmbedder{})
	require.NoError(t, err)

	// Resume has only a skills section; the JD wants projects and skills
	state := NewState("Jane Doe", "resume", "jd")
	state.ResumeSections[SectionSkills] = "python aws docker"
	state.ResumeEmbeddings[SectionSkills] = hashVector("python aws docker")
	state.Requirements = EmptyRequirements()
	state.Requirements.ProjectExperience = []string{"built data pipelines"}
	state.Requirements.HardSkills = []string{"python", "aws", "docker"}

	require.NoError(t, engine.Score(context.Background(), state))

	assert.Equal(t, 0.0, state.CategoryScores[CategoryProjects])
	assert.Greater(t, state.CategoryScores[CategorySkills], 0.9)

	// Only the skills weight contributes
	expected := 0.30 * state.CategoryScores[CategorySkills]
	assert.InDelta(t, expected, state.ConsolidatedScore, 1e-9)
}

func TestScoreEmptyRequirementsYieldZero(t *testing.T) {
	engine, err := NewScoringEngine(DefaultScoringConfig(), hashEmbedder{})
	require.NoError(t, err)

	state := NewState("Jane Doe", "resume", "jd")
	state.ResumeSections[SectionSkills] = "python"
	state.ResumeEmbeddings[SectionSkills] = hashVector("python")

	require.NoError(t, engine.Score(context.Background(), state))

	for _, category := range CategoryOrder {
		assert.Equal(t, 0.0, state.CategoryScores[category])
	}
	assert.Equal(t, 0.0, state.ConsolidatedScore)
	assert.Equal(t, RecommendationNone, state.Recommendation)
}

func TestScoreEducationFallsBackToCertifications(t *testing.T) {
	engine, err := NewScoringEngine(DefaultScoringConfig(), hashEmbedder{})
	require.NoError(t, err)

	state := NewState("Jane Doe", "resume", "jd")
	state.ResumeSections[SectionCertifications] = "aws solutions architect"
	state.ResumeEmbeddings[SectionCertifications] = hashVector("aws solutions architect")
	state.Requirements = EmptyRequirements()
	state.Requirements.Certifications = []string{"aws solutions architect"}

	require.NoError(t, engine.Score(context.Background(), state))

	assert.Greater(t, state.CategoryScores[CategoryEducation], 0.9)
}

func TestNewScoringEngineRejectsBadConfig(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.Weights[CategoryProjects] = 0.9

	_, err := NewScoringEngine(cfg, hashEmbedder{})
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, CodeScoringConfig))
}

func TestBestCategoryTieBreaksByDeclarationOrder(t *testing.T) {
	scores := map[Category]float64{
		CategoryProjects:   0.5,
		CategorySkills:     0.5,
		CategoryExperience: 0.5,
		CategoryEducation:  0.5,
	}
	assert.Equal(t, CategoryProjects, BestCategory(scores))

	scores[CategorySkills] = 0.9
	assert.Equal(t, CategorySkills, BestCategory(scores))
}

func TestSortedCategoriesOrdersByScoreThenPriority(t *testing.T) {
	scores := map[Category]float64{
		CategoryProjects:   0.2,
		CategorySkills:     0.8,
		CategoryExperience: 0.8,
		CategoryEducation:  0.1,
	}
	assert.Equal(t,
		[]Category{CategorySkills, CategoryExperience, CategoryProjects, CategoryEducation},
		SortedCategories(scores))
}
