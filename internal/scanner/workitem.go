package scanner

// WorkItem is one queued candidate.
type WorkItem struct {
	Index     int    // position in the wordlist, used for reporting order
	Candidate string // value substituted for the placeholder
}

// newQueue returns a closed channel holding one item per candidate. Workers
// drain it with plain receives, so each candidate is popped exactly once.
func newQueue(candidates []string) <-chan WorkItem {
	q := make(chan WorkItem, len(candidates))
	for i, c := range candidates {
		q <- WorkItem{Index: i, Candidate: c}
	}
	close(q)
	return q
}
