// Package session holds the optional process-global SessionState: a hint
// carried across turns so a conversation's task id and correlator survive
// between otherwise-independent requests. It is not required for the
// correctness of a single turn.
package session

import "sync/atomic"

// snapshot is the immutable value swapped atomically on each write —
// mirrors the teacher's atomic.Pointer[T]-backed usage cache, single-writer-
// per-update.
type snapshot struct {
	conversationID string
	baselineTaskID string
}

// State is a thread-safe holder with single-writer-per-field semantics;
// reads are a snapshot, never blocking a concurrent writer.
type State struct {
	current atomic.Pointer[snapshot]
}

// New returns an empty SessionState.
func New() *State {
	s := &State{}
	s.current.Store(&snapshot{})
	return s
}

// ConversationID returns the last-known conversation correlator, or "" if unset.
func (s *State) ConversationID() string {
	if s == nil {
		return ""
	}
	return s.current.Load().conversationID
}

// BaselineTaskID returns the last-known task id to reuse as a baseline, or
// "" if unset (the caller should mint a fresh UUID in that case).
func (s *State) BaselineTaskID() string {
	if s == nil {
		return ""
	}
	return s.current.Load().baselineTaskID
}

// Update records the ids carried by an upstream `init` event; the chat
// handler calls it as those events pass through. Last-writer-wins is
// acceptable — the field is strictly a hint, not a consistency boundary.
func (s *State) Update(conversationID, baselineTaskID string) {
	if s == nil {
		return
	}
	prev := s.current.Load()
	next := &snapshot{conversationID: prev.conversationID, baselineTaskID: prev.baselineTaskID}
	if conversationID != "" {
		next.conversationID = conversationID
	}
	if baselineTaskID != "" {
		next.baselineTaskID = baselineTaskID
	}
	s.current.Store(next)
}
