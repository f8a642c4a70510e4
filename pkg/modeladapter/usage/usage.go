// Package usage counts the tokens spent answering asks.
package usage

import (
	"sort"
	"sync"
)

// TokenCount holds input and output token counts.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Plus returns the element-wise sum of tc and o.
func (tc TokenCount) Plus(o TokenCount) TokenCount {
	return TokenCount{
		InputTokens:  tc.InputTokens + o.InputTokens,
		OutputTokens: tc.OutputTokens + o.OutputTokens,
	}
}

// Tracker holds the counts a provider adapter reported for its latest stream.
type Tracker struct {
	mu   sync.Mutex
	last TokenCount
	seen bool
}

// Add records the counts of a finished stream.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = tc
	t.seen = true
}

// Last returns the latest entry. The bool is false when nothing was reported.
func (t *Tracker) Last() (TokenCount, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last, t.seen
}

// Ledger totals usage per model over a session. It is safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	asks   int
	models map[string]TokenCount
}

// Record adds one answered ask for model.
func (l *Ledger) Record(model string, tc TokenCount) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.models == nil {
		l.models = make(map[string]TokenCount)
	}
	l.models[model] = l.models[model].Plus(tc)
	l.asks++
}

// Asks returns how many asks were recorded.
func (l *Ledger) Asks() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.asks
}

// Model returns the total recorded for model.
func (l *Ledger) Model(model string) TokenCount {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.models[model]
}

// Models lists the models with recorded usage, sorted.
func (l *Ledger) Models() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.models))
	for m := range l.models {
		names = append(names, m)
	}
	sort.Strings(names)

	return names
}

// Total returns the sum over all models.
func (l *Ledger) Total() TokenCount {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total TokenCount
	for _, tc := range l.models {
		total = total.Plus(tc)
	}

	return total
}
