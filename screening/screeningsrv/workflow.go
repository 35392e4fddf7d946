package screeningsrv

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/screener/pkg/logx"
	"github.com/Abraxas-365/screener/screening"
)

// Workflow is the three-node state machine that takes a screening run
// from raw text to a scored, summarized result. Node order is fixed and
// total; every run executes all three nodes exactly once unless the
// context is cancelled between nodes.
type Workflow struct {
	chunker    *Chunker
	extractor  *Extractor
	summarizer *Summarizer
	embedder   screening.Embedder
	index      screening.VectorIndex
	engine     *screening.ScoringEngine
}

// NewWorkflow wires the pipeline nodes together.
func NewWorkflow(
	chunker *Chunker,
	extractor *Extractor,
	summarizer *Summarizer,
	embedder screening.Embedder,
	index screening.VectorIndex,
	engine *screening.ScoringEngine,
) *Workflow {
	return &Workflow{
		chunker:    chunker,
		extractor:  extractor,
		summarizer: summarizer,
		embedder:   embedder,
		index:      index,
		engine:     engine,
	}
}

// Run executes the pipeline on a fresh state. External-service failures
// degrade to partial results rather than aborting; the only error paths
// out of Run are programmer errors. Cancellation is honored at node
// boundaries only and returns the partially populated state marked
// incomplete, not an error.
func (w *Workflow) Run(ctx context.Context, state *screening.State) (*screening.State, error) {
	logx.Infof("Screening run started: ID=%s, Candidate=%s", state.ScreeningID, state.CandidateName)

	if cancelled(ctx, state, "before resume processing") {
		return state, nil
	}
	w.processResume(ctx, state)
	state.Stage = screening.StageResumeProcessed

	if cancelled(ctx, state, "before JD processing") {
		return state, nil
	}
	w.processJD(ctx, state)
	state.Stage = screening.StageJDProcessed

	if cancelled(ctx, state, "before scoring") {
		return state, nil
	}
	if err := w.scoreAndSummarize(ctx, state); err != nil {
		return state, err
	}
	state.Stage = screening.StageSummaryGenerated

	logx.Infof("Screening run finished: ID=%s, Score=%.2f, Recommendation=%s",
		state.ScreeningID, state.ConsolidatedScore, state.Recommendation)
	return state, nil
}

func cancelled(ctx context.Context, state *screening.State, boundary string) bool {
	select {
	case <-ctx.Done():
		logx.Warnf("Screening run aborted %s: ID=%s", boundary, state.ScreeningID)
		state.MarkIncomplete("run aborted " + boundary)
		return true
	default:
		return false
	}
}

// processResume chunks the resume and embeds every section it found.
// Chunking failure degrades to zero sections; a failed embedding for
// one section does not block the others.
func (w *Workflow) processResume(ctx context.Context, state *screening.State) {
	sections, err := w.chunker.Chunk(ctx, state.ResumeText)
	if err != nil {
		logx.Warnf("Chunking degraded to no sections: ID=%s, Error=%v", state.ScreeningID, err)
		state.AddDegradation(fmt.Sprintf("chunking failed: %v", err))
		return
	}
	state.ResumeSections = sections

	w.embedSections(ctx, state)

	for label, vector := range state.ResumeEmbeddings {
		id := state.CandidateName + "|" + string(label)
		metadata := map[string]any{
			"candidate": state.CandidateName,
			"section":   string(label),
		}
		if err := w.index.Upsert(ctx, state.Namespace(), id, vector, metadata); err != nil {
			logx.Warnf("Vector upsert failed: ID=%s, Section=%s, Error=%v", state.ScreeningID, label, err)
			state.AddDegradation(fmt.Sprintf("vector upsert failed for section %s: %v", label, err))
		}
	}
}

// embedSections embeds all sections in one batch call, falling back to
// per-section calls when the batch fails so one bad section cannot take
// the rest down with it.
func (w *Workflow) embedSections(ctx context.Context, state *screening.State) {
	labels := make([]screening.SectionLabel, 0, len(state.ResumeSections))
	texts := make([]string, 0, len(state.ResumeSections))
	for _, label := range screening.KnownSections {
		if content, ok := state.ResumeSections[label]; ok && content != "" {
			labels = append(labels, label)
			texts = append(texts, content)
		}
	}
	if len(texts) == 0 {
		return
	}

	vectors, err := w.embedder.EmbedBatch(ctx, texts)
	if err == nil && len(vectors) == len(labels) {
		for i, label := range labels {
			state.ResumeEmbeddings[label] = vectors[i]
		}
		return
	}
	if err != nil {
		logx.Warnf("Batch embedding failed, retrying per section: ID=%s, Error=%v", state.ScreeningID, err)
	}

	for _, label := range labels {
		vector, err := w.embedder.Embed(ctx, state.ResumeSections[label])
		if err != nil {
			logx.Warnf("Section embedding skipped: ID=%s, Section=%s, Error=%v", state.ScreeningID, label, err)
			state.AddDegradation(fmt.Sprintf("section %s: %v", label, screening.ErrEmbeddingFailed(err)))
			continue
		}
		state.ResumeEmbeddings[label] = vector
	}
}

// processJD extracts structured requirements. Extraction failure
// degrades to the all-empty record.
func (w *Workflow) processJD(ctx context.Context, state *screening.State) {
	reqs, err := w.extractor.Extract(ctx, state.JDText)
	if err != nil {
		logx.Warnf("Extraction degraded to empty requirements: ID=%s, Error=%v", state.ScreeningID, err)
		state.AddDegradation(fmt.Sprintf("extraction failed: %v", err))
	}
	state.Requirements = reqs
}

func (w *Workflow) scoreAndSummarize(ctx context.Context, state *screening.State) error {
	if err := w.engine.Score(ctx, state); err != nil {
		return err
	}
	state.SummaryText = w.summarizer.Summarize(ctx, state)
	return nil
}
