/*
Package registry maps synthetic objects to the native objects they have been
projected to, and back.

A Registry holds one entry per synthetic ID: the native handle the object has
been materialized as, and a reference to the synthetic object itself. Native
handles are indexed as well, so that native events can be resolved to the
synthetic object they originate from.

Registries are owned by a single renderer, which is the only writer. Lookups
may be done from any goroutine, e.g. to resolve native events as they are
captured. No operation panics; looking up an unknown ID or handle is a normal
outcome and reported by a boolean.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>
*/
package registry

import (
	"sort"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/sdom/synth"
)

// tracer traces with key 'sdom.registry'.
func tracer() tracing.Trace {
	return tracing.Select("sdom.registry")
}

// Entry is a registry entry for a synthetic object.
type Entry[N comparable, S any] struct {
	ID        synth.ID
	Native    N // native handle
	Synthetic S // synthetic object
	seq       uint64
}

// Registry is a bidirectional map between synthetic IDs and native handles.
// The zero value is not usable, clients create registries with New.
type Registry[N comparable, S any] struct {
	mu       sync.RWMutex
	name     string // for tracing
	byID     map[synth.ID]*Entry[N, S]
	byNative map[N]synth.ID
	seq      uint64
}

// New creates an empty registry. name is used for tracing only.
func New[N comparable, S any](name string) *Registry[N, S] {
	return &Registry[N, S]{
		name:     name,
		byID:     make(map[synth.ID]*Entry[N, S]),
		byNative: make(map[N]synth.ID),
	}
}

// Register creates an entry for id, replacing an existing one.
func (r *Registry[N, S]) Register(id synth.ID, native N, synthetic S) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byID[id]; ok {
		if r.byNative[old.Native] == id {
			delete(r.byNative, old.Native)
		}
	}
	r.seq++
	r.byID[id] = &Entry[N, S]{ID: id, Native: native, Synthetic: synthetic, seq: r.seq}
	r.byNative[native] = id
}

// Lookup finds the entry for a synthetic ID.
func (r *Registry[N, S]) Lookup(id synth.ID) (Entry[N, S], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(id)
}

func (r *Registry[N, S]) lookup(id synth.ID) (Entry[N, S], bool) {
	if e, ok := r.byID[id]; ok {
		return *e, true
	}
	return Entry[N, S]{}, false
}

// Resolve finds the entry for a native handle.
func (r *Registry[N, S]) Resolve(native N) (Entry[N, S], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNative[native]
	if !ok {
		return Entry[N, S]{}, false
	}
	return r.lookup(id)
}

// Contains returns true if id has an entry.
func (r *Registry[N, S]) Contains(id synth.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// Unregister clears the entry for id. It returns false if there was none.
func (r *Registry[N, S]) Unregister(id synth.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	if r.byNative[e.Native] == id {
		delete(r.byNative, e.Native)
	}
	return true
}

// UnregisterTree clears the entries for root and for every descendant of
// root, as reported by children. It returns the number of cleared entries.
func (r *Registry[N, S]) UnregisterTree(root synth.ID, children func(synth.ID) []synth.ID) int {
	cnt := 0
	if r.Unregister(root) {
		cnt++
	}
	if children == nil {
		return cnt
	}
	for _, ch := range children(root) {
		cnt += r.UnregisterTree(ch, children)
	}
	return cnt
}

// Clear removes all entries.
func (r *Registry[N, S]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracer().Debugf("clearing %d entries of registry %s", len(r.byID), r.name)
	clear(r.byID)
	clear(r.byNative)
}

// Len returns the number of entries.
func (r *Registry[N, S]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Each calls fn for every entry, in registration order. Re-registering an ID
// moves it to the end. fn must not modify the registry.
func (r *Registry[N, S]) Each(fn func(Entry[N, S])) {
	r.mu.RLock()
	entries := make([]*Entry[N, S], 0, len(r.byID))
	for _, e := range r.byID {
		entries = append(entries, e)
	}
	r.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})
	for _, e := range entries {
		fn(*e)
	}
}
