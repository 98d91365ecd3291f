package issue

import (
	"sort"
	"sync"
)

// Collector accumulates findings from every validator stage. Add is safe for
// concurrent use so pack validation can fan out across workers; Issues always
// returns the same deterministic order regardless of insertion order.
type Collector struct {
	mu     sync.Mutex
	issues []Issue
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add records one or more issues.
func (c *Collector) Add(issues ...Issue) {
	if len(issues) == 0 {
		return
	}
	c.mu.Lock()
	c.issues = append(c.issues, issues...)
	c.mu.Unlock()
}

// Len returns the number of issues collected so far.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.issues)
}

// Issues returns a sorted copy of everything collected.
func (c *Collector) Issues() []Issue {
	c.mu.Lock()
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)
	c.mu.Unlock()

	Sort(out)
	return out
}

// Sort orders issues in place by the canonical composite key.
func Sort(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return Less(issues[i], issues[j])
	})
}
