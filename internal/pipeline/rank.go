package pipeline

import (
	"sort"

	"github.com/nao1215/pathscore/internal/model"
)

// Rank returns the n most plausible scored analyses, best first.
// Ties on final score keep input order. Failed and
// unscored analyses are excluded. n <= 0 returns every scored analysis.
func Rank(analyses []*model.Analysis, n int) []*model.Analysis {
	ranked := make([]*model.Analysis, 0, len(analyses))
	for _, a := range analyses {
		if a != nil && a.Scored() {
			ranked = append(ranked, a)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Result.FinalScore != b.Result.FinalScore {
			return a.Result.FinalScore > b.Result.FinalScore
		}
		return a.Index < b.Index
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// BuildReport assembles a batch report from processed analyses.
// Every analysis is stamped with the report's run ID. An empty runID gets
// a fresh one.
func BuildReport(runID string, analyses []*model.Analysis, weightProfile, digest string, topN int) *model.BatchReport {
	report := model.NewBatchReport()
	if runID != "" {
		report.RunID = runID
	}
	report.WeightProfile = weightProfile
	report.ConfigDigest = digest
	report.Analyses = analyses
	for _, a := range analyses {
		a.RunID = report.RunID
	}
	report.Ranked = Rank(analyses, topN)
	return report
}
