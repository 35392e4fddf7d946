package screeningsrv

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/Abraxas-365/screener/screening"
)

// fakeTextService routes prompts to scripted responses by instruction.
type fakeTextService struct {
	chunkResponse   string
	chunkErr        error
	extractResponse string
	extractErr      error
	summaryResponse string
	summaryErr      error
	nameResponse    string
	nameErr         error
}

func (f *fakeTextService) Generate(_ context.Context, systemPrompt, _ string) (string, error) {
	switch {
	case strings.Contains(systemPrompt, "full name"):
		return f.nameResponse, f.nameErr
	case strings.Contains(systemPrompt, "one sentence"):
		return f.summaryResponse, f.summaryErr
	}
	return "", errors.New("unexpected prompt")
}

func (f *fakeTextService) GenerateJSON(_ context.Context, systemPrompt, _ string) (string, error) {
	switch {
	case strings.Contains(systemPrompt, "resume parsing"):
		return f.chunkResponse, f.chunkErr
	case strings.Contains(systemPrompt, "job description analyst"):
		return f.extractResponse, f.extractErr
	}
	return "", errors.New("unexpected prompt")
}

// hashEmbedder is a deterministic bag-of-words embedder.
type hashEmbedder struct {
	batchErr error
	embedErr map[string]error
}

func (e *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if err, ok := e.embedErr[text]; ok {
		return nil, err
	}
	return hashVector(text), nil
}

func (e *hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err, ok := e.embedErr[t]; ok {
			return nil, err
		}
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

// memoryIndex is an in-memory screening.VectorIndex.
type memoryIndex struct {
	mu      sync.Mutex
	vectors map[string]map[string][]float32
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{vectors: make(map[string]map[string][]float32)}
}

func (m *memoryIndex) Upsert(_ context.Context, namespace, id string, vector []float32, _ map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vectors[namespace] == nil {
		m.vectors[namespace] = make(map[string][]float32)
	}
	m.vectors[namespace][id] = vector
	return nil
}

func (m *memoryIndex) Query(_ context.Context, namespace string, vector []float32, topK int) ([]screening.VectorMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matches := make([]screening.VectorMatch, 0, topK)
	for id, stored := range m.vectors[namespace] {
		matches = append(matches, screening.VectorMatch{
			ID:    id,
			Score: screening.CosineSimilarity(stored, vector),
		})
		if len(matches) == topK {
			break
		}
	}
	return matches, nil
}

func (m *memoryIndex) DeleteNamespace(_ context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, namespace)
	return nil
}

func (m *memoryIndex) count(namespace string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors[namespace])
}

func newTestWorkflow(text *fakeTextService, embedder *hashEmbedder, index *memoryIndex) *Workflow {
	engine, err := screening.NewScoringEngine(screening.DefaultScoringConfig(), embedder)
	if err != nil {
		panic(err)
	}
	return NewWorkflow(
		NewChunker(text),
		NewExtractor(text),
		NewSummarizer(text),
		embedder,
		index,
		engine,
	)
}
