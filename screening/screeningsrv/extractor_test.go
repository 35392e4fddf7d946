package screeningsrv

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/screener/pkg/errx"
	"github.com/Abraxas-365/screener/screening"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorParsesAllFields(t *testing.T) {
	text := &fakeTextService{
		extractResponse: `{
			"required_experience": "3+ years backend development",
			"hard_skills": ["Python", "AWS"],
			"soft_skills": ["communication"],
			"required_tools": ["Docker"],
			"education_requirements": "BSc or equivalent",
			"certifications": ["AWS SAA"],
			"project_experience": ["production APIs"],
			"industry_experience": "fintech"
		}`,
	}
	extractor := NewExtractor(text)

	reqs, err := extractor.Extract(context.Background(), "jd text")
	require.NoError(t, err)

	assert.Equal(t, "3+ years backend development", reqs.RequiredExperience)
	assert.Equal(t, []string{"Python", "AWS"}, reqs.HardSkills)
	assert.Equal(t, []string{"communication"}, reqs.SoftSkills)
	assert.Equal(t, []string{"Docker"}, reqs.RequiredTools)
	assert.Equal(t, "BSc or equivalent", reqs.EducationRequirements)
	assert.Equal(t, []string{"AWS SAA"}, reqs.Certifications)
	assert.Equal(t, []string{"production APIs"}, reqs.ProjectExperience)
	assert.Equal(t, "fintech", reqs.IndustryExperience)
}

func TestExtractorAbsentFieldsDefaultToEmpty(t *testing.T) {
	text := &fakeTextService{
		extractResponse: `{"hard_skills": ["Go"]}`,
	}
	extractor := NewExtractor(text)

	reqs, err := extractor.Extract(context.Background(), "jd text")
	require.NoError(t, err)

	assert.Equal(t, []string{"Go"}, reqs.HardSkills)
	assert.Empty(t, reqs.RequiredExperience)
	// Every collection is an empty slice, never nil
	assert.NotNil(t, reqs.SoftSkills)
	assert.NotNil(t, reqs.RequiredTools)
	assert.NotNil(t, reqs.Certifications)
	assert.NotNil(t, reqs.ProjectExperience)
}

func TestExtractorMalformedResponseDegradesToEmpty(t *testing.T) {
	extractor := NewExtractor(&fakeTextService{
		extractResponse: "This job description is about a backend engineer role.",
	})

	reqs, err := extractor.Extract(context.Background(), "jd text")
	require.Error(t, err)
	assert.True(t, errx.HasCode(err, screening.CodeExtractionFailed))
	assert.True(t, reqs.IsEmpty())
}

func TestExtractorServiceErrorDegradesToEmpty(t *testing.T) {
	extractor := NewExtractor(&fakeTextService{extractErr: errors.New("timeout")})

	reqs, err := extractor.Extract(context.Background(), "jd text")
	require.Error(t, err)
	assert.True(t, reqs.IsEmpty())
}
