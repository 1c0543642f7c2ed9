package diff

import (
	"fmt"
	"strings"

	"github.com/everstacklabs/chutes-plugin/internal/catalog"
)

// ChangeSet is the difference between two model listings.
type ChangeSet struct {
	Added           []catalog.Model
	Updated         []ModelUpdate
	Removed         []catalog.Model
	PossibleRenames []RenamePair
	Unchanged       int
}

// ModelUpdate is a model present in both listings whose fields changed.
type ModelUpdate struct {
	ID      string
	Model   catalog.Model
	Changes []FieldChange
}

// FieldChange records one changed field.
type FieldChange struct {
	Field    string
	OldValue any
	NewValue any
}

func (fc FieldChange) String() string {
	return fmt.Sprintf("%s: %v -> %v", fc.Field, fc.OldValue, fc.NewValue)
}

func (mu ModelUpdate) String() string {
	changes := make([]string, len(mu.Changes))
	for i, c := range mu.Changes {
		changes[i] = c.String()
	}
	return fmt.Sprintf("%s (%s)", mu.ID, strings.Join(changes, "; "))
}

// RenamePair is a removed model that likely reappeared under a new ID.
type RenamePair struct {
	OldID  string
	NewID  string
	Reason string
}

func (rp RenamePair) String() string {
	return fmt.Sprintf("%s -> %s (%s)", rp.OldID, rp.NewID, rp.Reason)
}

// HasChanges reports whether the listings differ.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.Added) > 0 || len(cs.Updated) > 0 || len(cs.Removed) > 0
}

// Summary renders the counts on one line, e.g. "2 added, 1 removed, 1
// possibly renamed".
func (cs *ChangeSet) Summary() string {
	if !cs.HasChanges() {
		return "no changes"
	}
	var parts []string
	if n := len(cs.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("%d added", n))
	}
	if n := len(cs.Updated); n > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", n))
	}
	if n := len(cs.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", n))
	}
	if n := len(cs.PossibleRenames); n > 0 {
		parts = append(parts, fmt.Sprintf("%d possibly renamed", n))
	}
	return strings.Join(parts, ", ")
}
