package registry

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/everstacklabs/chutes-plugin/internal/catalog"
)

// DefaultPrefix namespaces display IDs when no prefix is configured.
const DefaultPrefix = "chutes"

const separator = "/"

// Registry indexes models by native ID and keeps a parallel display index
// keyed by "<prefix>/<nativeID>". Both indices preserve insertion order.
//
// Registry is not safe for concurrent use.
type Registry struct {
	prefix  string
	models  *orderedmap.OrderedMap[string, catalog.Model]
	display *orderedmap.OrderedMap[string, catalog.DisplayInfo]
	// displayIDs remembers the display ID each native entry was stored under,
	// which differs from DisplayID(id) after a prefix change.
	displayIDs map[string]string
}

// Option configures a Registry.
type Option func(*Registry)

// WithPrefix sets the display namespace.
func WithPrefix(prefix string) Option {
	return func(r *Registry) { r.prefix = prefix }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(r)
	}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.models = orderedmap.New[string, catalog.Model]()
	r.display = orderedmap.New[string, catalog.DisplayInfo]()
	r.displayIDs = make(map[string]string)
}

// SetPrefix changes the namespace for later registrations and ID
// conversions. Existing display entries keep their old IDs until
// RebuildDisplayIndex is called or the models are registered again.
func (r *Registry) SetPrefix(prefix string) {
	r.prefix = prefix
}

// Prefix returns the current display namespace.
func (r *Registry) Prefix() string { return r.prefix }

// Register adds m, replacing any model with the same ID along with its
// display entry. A different model already stored under m's display ID is
// removed, so each display entry belongs to exactly one native entry. When
// m's display ID changed, its display entry keeps m's position.
func (r *Registry) Register(m catalog.Model) {
	info := r.ToDisplayInfo(m)
	if cur, ok := r.display.Get(info.ID); ok && cur.OriginalID != m.ID {
		r.models.Delete(cur.OriginalID)
		delete(r.displayIDs, cur.OriginalID)
		r.display.Delete(info.ID)
	}

	old, existed := r.displayIDs[m.ID]
	r.models.Set(m.ID, m)
	r.displayIDs[m.ID] = info.ID
	if existed && old != info.ID {
		r.reorderDisplay(m.ID, info)
		return
	}
	r.display.Set(info.ID, info)
}

// reorderDisplay rebuilds the display index in native order, storing info
// for id and carrying every other entry over unchanged.
func (r *Registry) reorderDisplay(id string, info catalog.DisplayInfo) {
	display := orderedmap.New[string, catalog.DisplayInfo]()
	for pair := r.models.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == id {
			display.Set(info.ID, info)
			continue
		}
		key := r.displayIDs[pair.Key]
		if d, ok := r.display.Get(key); ok {
			display.Set(key, d)
		}
	}
	r.display = display
}

// RegisterAll registers models in order. It is not atomic.
func (r *Registry) RegisterAll(models []catalog.Model) {
	for _, m := range models {
		r.Register(m)
	}
}

// Unregister removes the model and its display entry, reporting whether it existed.
func (r *Registry) Unregister(id string) bool {
	if _, ok := r.models.Delete(id); !ok {
		return false
	}
	key := r.displayIDs[id]
	if d, ok := r.display.Get(key); ok && d.OriginalID == id {
		r.display.Delete(key)
	}
	delete(r.displayIDs, id)
	return true
}

// Clear removes every model.
func (r *Registry) Clear() {
	r.reset()
}

// RebuildDisplayIndex recomputes every display entry under the current prefix.
func (r *Registry) RebuildDisplayIndex() {
	r.display = orderedmap.New[string, catalog.DisplayInfo]()
	r.displayIDs = make(map[string]string, r.models.Len())
	for pair := r.models.Oldest(); pair != nil; pair = pair.Next() {
		info := r.ToDisplayInfo(pair.Value)
		r.display.Set(info.ID, info)
		r.displayIDs[pair.Key] = info.ID
	}
}

// Get looks a model up by native ID.
func (r *Registry) Get(id string) (catalog.Model, bool) {
	return r.models.Get(id)
}

// DisplayInfo looks a display entry up by display ID.
func (r *Registry) DisplayInfo(displayID string) (catalog.DisplayInfo, bool) {
	return r.display.Get(displayID)
}

// DisplayID returns the display ID for a native ID under the current prefix.
func (r *Registry) DisplayID(id string) string {
	return r.prefix + separator + id
}

// OriginalID strips the current prefix from displayID. It reports false when
// displayID is outside the namespace; it does not check registration.
func (r *Registry) OriginalID(displayID string) (string, bool) {
	return strings.CutPrefix(displayID, r.prefix+separator)
}

// IsChutesModel reports whether id lives in the registry's namespace.
func (r *Registry) IsChutesModel(id string) bool {
	return strings.HasPrefix(id, r.prefix+separator)
}

// ToDisplayInfo projects m under the current prefix.
func (r *Registry) ToDisplayInfo(m catalog.Model) catalog.DisplayInfo {
	return catalog.NewDisplayInfo(r.DisplayID(m.ID), m)
}

// All returns registered models in insertion order.
func (r *Registry) All() []catalog.Model {
	out := make([]catalog.Model, 0, r.models.Len())
	for pair := r.models.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// AllDisplayInfo returns display entries in the same order as All.
func (r *Registry) AllDisplayInfo() []catalog.DisplayInfo {
	out := make([]catalog.DisplayInfo, 0, r.display.Len())
	for pair := r.display.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Size returns the number of registered models.
func (r *Registry) Size() int { return r.models.Len() }

// Filter returns the models for which keep returns true.
func (r *Registry) Filter(keep func(catalog.Model) bool) []catalog.Model {
	var out []catalog.Model
	for _, m := range r.All() {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// FindByFeature returns models listing feature in supported_features.
func (r *Registry) FindByFeature(feature string) []catalog.Model {
	return r.Filter(func(m catalog.Model) bool { return m.HasFeature(feature) })
}

// FindByOwner returns models whose owned_by equals owner.
func (r *Registry) FindByOwner(owner string) []catalog.Model {
	return r.Filter(func(m catalog.Model) bool { return m.OwnedBy == owner })
}
