package services

import (
	"fmt"
	"sync"
	"time"

	"taxonomy/domain/core/aggregates"
)

// Mode selects whether a session writes through to the persistence service
type Mode string

const (
	ModeMemory Mode = "memory"
	ModeRemote Mode = "remote"
)

// ParseMode converts a request value to a Mode. Empty means memory.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeMemory:
		return ModeMemory, nil
	case ModeRemote:
		return ModeRemote, nil
	default:
		return "", fmt.Errorf("unknown session mode %q", s)
	}
}

// Session owns the current tree of one taxonomy. Readers take the current
// tree without blocking writers for long; writers swap whole trees.
type Session struct {
	id   string
	mode Mode

	mu          sync.Mutex
	tree        *aggregates.Tree
	warnings    []string
	maxWarnings int
	createdAt   time.Time
	lastAccess  time.Time
}

// NewSession wraps a freshly loaded tree
func NewSession(id string, mode Mode, tree *aggregates.Tree, maxWarnings int) *Session {
	now := time.Now()
	return &Session{
		id:          id,
		mode:        mode,
		tree:        tree,
		maxWarnings: maxWarnings,
		createdAt:   now,
		lastAccess:  now,
	}
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Mode returns the session's persistence mode
func (s *Session) Mode() Mode { return s.mode }

// CreatedAt returns when the session was opened
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Current returns the tree as of now
func (s *Session) Current() *aggregates.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()
	return s.tree
}

// Commit applies mutate to the tree current at commit time and installs the
// result. changed is false when mutate handed back the tree it was given.
// mutate must be a pure tree operation; remote work belongs before or after
// the commit, never inside it.
func (s *Session) Commit(mutate func(current *aggregates.Tree) (*aggregates.Tree, error)) (tree *aggregates.Tree, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()

	next, err := mutate(s.tree)
	if err != nil {
		return s.tree, false, err
	}
	changed = next != s.tree
	s.tree = next
	return next, changed, nil
}

// Replace installs a tree loaded from elsewhere
func (s *Session) Replace(tree *aggregates.Tree) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()
	s.tree = tree
}

// AddWarnings appends to the session's warning log, keeping the newest
func (s *Session) AddWarnings(warnings ...string) {
	if len(warnings) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.warnings = append(s.warnings, warnings...)
	if s.maxWarnings > 0 && len(s.warnings) > s.maxWarnings {
		s.warnings = append([]string(nil), s.warnings[len(s.warnings)-s.maxWarnings:]...)
	}
}

// Warnings returns a copy of the warning log
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

// IdleSince returns the last time the session was read or written
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}
