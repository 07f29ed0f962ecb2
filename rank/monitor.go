package rank

import "github.com/verdantis/plantid/core"

// RankMonitor provides hooks to observe the gating chain.
// Implement this interface to track intermediate steps while re-ranking.
type RankMonitor interface {
	Start(candidates int, queryTraits int)
	AfterDedup(kept []*core.CorpusRecord)
	AfterGroupFilter(kept []*core.CorpusRecord)
	GateApplied(record *core.CorpusRecord, gate string, factor float64)
	PenaltyApplied(record *core.CorpusRecord, penalty string, amount float64)
	CandidateScored(score *core.CandidateScore)
	Finish(results []*core.CandidateScore)
}

// noopMonitor is a no-op implementation of RankMonitor
type noopMonitor struct{}

var _ RankMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ int, _ int)                                   {}
func (n *noopMonitor) AfterDedup(_ []*core.CorpusRecord)                    {}
func (n *noopMonitor) AfterGroupFilter(_ []*core.CorpusRecord)              {}
func (n *noopMonitor) GateApplied(_ *core.CorpusRecord, _ string, _ float64) {}
func (n *noopMonitor) PenaltyApplied(_ *core.CorpusRecord, _ string, _ float64) {
}
func (n *noopMonitor) CandidateScored(_ *core.CandidateScore) {}
func (n *noopMonitor) Finish(_ []*core.CandidateScore)        {}
