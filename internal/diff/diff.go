package diff

import (
	"math"
	"sort"

	"github.com/everstacklabs/chutes-plugin/internal/catalog"
)

// Compute compares a previous model listing with the current one.
// Added and Updated follow the order of current, Removed the order of
// previous.
func Compute(previous, current []catalog.Model) *ChangeSet {
	cs := &ChangeSet{}

	before := make(map[string]catalog.Model, len(previous))
	for _, m := range previous {
		before[m.ID] = m
	}
	seen := make(map[string]bool, len(current))

	for _, m := range current {
		seen[m.ID] = true
		old, exists := before[m.ID]
		if !exists {
			cs.Added = append(cs.Added, m)
			continue
		}

		changes := computeFieldChanges(old, m)
		if len(changes) > 0 {
			cs.Updated = append(cs.Updated, ModelUpdate{ID: m.ID, Model: m, Changes: changes})
		} else {
			cs.Unchanged++
		}
	}

	for _, m := range previous {
		if !seen[m.ID] {
			cs.Removed = append(cs.Removed, m)
		}
	}

	cs.PossibleRenames = detectRenames(cs.Added, cs.Removed)
	return cs
}

func computeFieldChanges(existing, current catalog.Model) []FieldChange {
	var changes []FieldChange

	if existing.Pricing.Prompt != current.Pricing.Prompt {
		changes = append(changes, FieldChange{Field: "pricing.prompt", OldValue: existing.Pricing.Prompt, NewValue: current.Pricing.Prompt})
	}
	if existing.Pricing.Completion != current.Pricing.Completion {
		changes = append(changes, FieldChange{Field: "pricing.completion", OldValue: existing.Pricing.Completion, NewValue: current.Pricing.Completion})
	}

	oldCtx := catalog.NewDisplayInfo("", existing).ContextLength
	newCtx := catalog.NewDisplayInfo("", current).ContextLength
	if oldCtx != newCtx {
		changes = append(changes, FieldChange{Field: "context_length", OldValue: oldCtx, NewValue: newCtx})
	}

	if existing.Quantization != current.Quantization {
		changes = append(changes, FieldChange{Field: "quantization", OldValue: existing.Quantization, NewValue: current.Quantization})
	}
	if existing.ConfidentialCompute != current.ConfidentialCompute {
		changes = append(changes, FieldChange{Field: "confidential_compute", OldValue: existing.ConfidentialCompute, NewValue: current.ConfidentialCompute})
	}

	// Feature and modality lists are compared as sets.
	if !equalStringSlices(existing.SupportedFeatures, current.SupportedFeatures) {
		changes = append(changes, FieldChange{Field: "supported_features", OldValue: existing.SupportedFeatures, NewValue: current.SupportedFeatures})
	}
	if !equalStringSlices(existing.InputModalities, current.InputModalities) {
		changes = append(changes, FieldChange{Field: "input_modalities", OldValue: existing.InputModalities, NewValue: current.InputModalities})
	}
	if !equalStringSlices(existing.OutputModalities, current.OutputModalities) {
		changes = append(changes, FieldChange{Field: "output_modalities", OldValue: existing.OutputModalities, NewValue: current.OutputModalities})
	}

	return changes
}

// equalStringSlices compares two string slices for equality (order-independent).
func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := make([]string, len(a))
	copy(sa, a)
	sort.Strings(sa)
	sb := make([]string, len(b))
	copy(sb, b)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// detectRenames pairs removed and added models that share an owner and a
// root and have similar pricing.
func detectRenames(added, removed []catalog.Model) []RenamePair {
	var renames []RenamePair

	for _, newM := range added {
		for _, oldM := range removed {
			if newM.Root == "" || newM.Root != oldM.Root || newM.OwnedBy != oldM.OwnedBy {
				continue
			}

			// Prompt price within 20%
			if oldM.Pricing.Prompt > 0 {
				ratio := newM.Pricing.Prompt / oldM.Pricing.Prompt
				if math.Abs(ratio-1.0) > 0.2 {
					continue
				}
			}

			renames = append(renames, RenamePair{
				OldID:  oldM.ID,
				NewID:  newM.ID,
				Reason: "same owner and root, similar pricing",
			})
		}
	}

	return renames
}
