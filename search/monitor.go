package search

import (
	"github.com/poiesic/tmbridge/core"
)

// CascadeMonitor provides hooks to observe the retrieval cascade.
// Implement this interface to trace which tiers ran and why the cascade stopped.
type CascadeMonitor interface {
	Start(t core.Terminology, query string)
	TierStarted(tier core.Source)
	TierFinished(tier core.Source, candidates int, acceptable bool)
	TierFailed(tier core.Source, err error)
	Finish(result *core.RankedCandidates)
}

// noopMonitor is a no-op implementation of CascadeMonitor
type noopMonitor struct{}

var _ CascadeMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Terminology, _ string)        {}
func (n *noopMonitor) TierStarted(_ core.Source)                 {}
func (n *noopMonitor) TierFinished(_ core.Source, _ int, _ bool) {}
func (n *noopMonitor) TierFailed(_ core.Source, _ error)         {}
func (n *noopMonitor) Finish(_ *core.RankedCandidates)           {}
