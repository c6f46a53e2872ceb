package queue

import (
	"fmt"
	"testing"
)

func TestPendingPushAndPeek(t *testing.T) {
	p := NewPending(30)

	if !p.Push("first") {
		t.Fatal("Expected push to succeed on empty queue")
	}
	if !p.Push("second") {
		t.Fatal("Expected push of distinct text to succeed")
	}

	head, ok := p.Peek()
	if !ok || head != "first" {
		t.Errorf("Expected head 'first', got %q ok=%v", head, ok)
	}
	if p.Len() != 2 {
		t.Errorf("Expected length 2, got %d", p.Len())
	}
}

func TestPendingRejectsExactDuplicate(t *testing.T) {
	p := NewPending(30)

	p.Push("same headline")
	if p.Push("same headline") {
		t.Error("Expected duplicate push to be rejected")
	}
	if p.Len() != 1 {
		t.Errorf("Expected length 1 after duplicate push, got %d", p.Len())
	}
}

func TestPendingCapDropsOldest(t *testing.T) {
	p := NewPending(30)

	for i := 0; i < 35; i++ {
		p.Push(fmt.Sprintf("headline %d", i))
	}

	if p.Len() != 30 {
		t.Fatalf("Expected queue capped at 30, got %d", p.Len())
	}
	head, _ := p.Peek()
	if head != "headline 5" {
		t.Errorf("Expected oldest entries dropped, head is %q", head)
	}
}

func TestPendingRemove(t *testing.T) {
	p := NewPending(30)
	p.Push("a")
	p.Push("b")
	p.Push("c")

	p.Remove("b")

	snap := p.Snapshot()
	if len(snap) != 2 || snap[0] != "a" || snap[1] != "c" {
		t.Errorf("Expected [a c] after removal, got %v", snap)
	}

	// Removing a missing text is a no-op
	p.Remove("not there")
	if p.Len() != 2 {
		t.Errorf("Expected length unchanged, got %d", p.Len())
	}
}

func TestPendingPeekEmpty(t *testing.T) {
	p := NewPending(30)
	if _, ok := p.Peek(); ok {
		t.Error("Expected peek on empty queue to report not ok")
	}
}
