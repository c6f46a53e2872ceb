package queue

import "sync"

// Pending is the FIFO of raw signal texts awaiting classification. Each text
// appears at most once; pushing past capacity drops the oldest entries.
type Pending struct {
	mu    sync.Mutex
	texts []string
	max   int
}

func NewPending(max int) *Pending {
	return &Pending{max: max}
}

// Push appends text unless it is already queued. Returns false on a
// duplicate.
func (p *Pending) Push(text string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range p.texts {
		if t == text {
			return false
		}
	}
	p.texts = append(p.texts, text)
	if len(p.texts) > p.max {
		p.texts = p.texts[len(p.texts)-p.max:]
	}
	return true
}

// Peek returns the head without removing it.
func (p *Pending) Peek() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.texts) == 0 {
		return "", false
	}
	return p.texts[0], true
}

// Remove deletes the first occurrence of text.
func (p *Pending) Remove(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, t := range p.texts {
		if t == text {
			p.texts = append(p.texts[:i], p.texts[i+1:]...)
			return
		}
	}
}

func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.texts)
}

// Snapshot returns a copy of the queued texts in processing order.
func (p *Pending) Snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.texts...)
}
