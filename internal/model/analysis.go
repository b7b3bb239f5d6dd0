package model

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is the result of running one path candidate through the pipeline.
// A failed analysis keeps its candidate and error so it can still be
// reported; Result and Explanation are nil in that case.
type Analysis struct {
	// ID uniquely identifies this analysis.
	ID string `json:"id"`

	// RunID groups analyses produced by the same batch.
	RunID string `json:"run_id,omitempty"`

	// Index is the candidate's position in the batch input.
	Index int `json:"index"`

	// PathKey is the candidate's stable path identifier.
	PathKey string `json:"path_key"`

	Candidate   *PathCandidate `json:"candidate"`
	Result      *ScoreResult   `json:"result,omitempty"`
	Explanation *Explanation   `json:"explanation,omitempty"`

	// AnalyzedAt is when the analysis was created.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Steps lists the pipeline steps that ran.
	Steps []string `json:"steps,omitempty"`

	// Error is the failure, if any. It is not serialized; ErrorMessage is.
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`

	// RecordError is set when a scored analysis could not be stored in the
	// history database. The score and explanation remain valid.
	RecordError string `json:"record_error,omitempty"`

	// Cancelled is true when the batch was cancelled before this analysis finished.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewAnalysis creates an Analysis for a candidate with a fresh ID.
func NewAnalysis(candidate *PathCandidate, index int) *Analysis {
	a := &Analysis{
		ID:         uuid.NewString(),
		Index:      index,
		Candidate:  candidate,
		AnalyzedAt: time.Now().UTC(),
	}
	if candidate != nil {
		a.PathKey = candidate.PathKey()
	}
	return a
}

// Failed reports whether the analysis ended with an error.
func (a *Analysis) Failed() bool {
	return a.Error != nil || a.ErrorMessage != ""
}

// Scored reports whether the analysis has a score and explanation.
func (a *Analysis) Scored() bool {
	return a.Result != nil && a.Explanation != nil && !a.Failed()
}

// BatchReport aggregates every analysis in one run.
type BatchReport struct {
	RunID         string    `json:"run_id"`
	GeneratedAt   time.Time `json:"generated_at"`
	WeightProfile string    `json:"weight_profile"`
	ConfigDigest  string    `json:"config_digest"`

	// Analyses holds every analysis in input order.
	Analyses []*Analysis `json:"analyses"`

	// Ranked holds the top scored analyses, best first.
	Ranked []*Analysis `json:"ranked"`
}

// NewBatchReport creates an empty report with a fresh run ID.
func NewBatchReport() *BatchReport {
	return &BatchReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
	}
}

// TierCounts counts scored analyses per tier.
func (r *BatchReport) TierCounts() map[Tier]int {
	counts := make(map[Tier]int, len(Tiers))
	for _, a := range r.Analyses {
		if a.Scored() {
			counts[a.Result.Tier]++
		}
	}
	return counts
}

// FailedCount returns the number of analyses that ended with an error.
func (r *BatchReport) FailedCount() int {
	n := 0
	for _, a := range r.Analyses {
		if a.Failed() {
			n++
		}
	}
	return n
}
