package answer

import "github.com/poiesic/meetkb/vectorindex"

// Monitor provides hooks to observe answering.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(question string)
	AfterRetrieval(matches []vectorindex.Match)
	BeforeGeneration(prompt string)
	Finish(result Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                       {}
func (n *noopMonitor) AfterRetrieval(_ []vectorindex.Match) {}
func (n *noopMonitor) BeforeGeneration(_ string)            {}
func (n *noopMonitor) Finish(_ Result)                      {}
