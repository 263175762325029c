package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/sdom/synth"
	"github.com/stretchr/testify/assert"
)

type handle struct{ name string }

func TestRegisterLookupResolve(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.registry")
	defer teardown()
	//
	r := New[*handle, string]("test")
	h1, h2 := &handle{"h1"}, &handle{"h2"}
	r.Register("a", h1, "A")
	r.Register("b", h2, "B")
	e, ok := r.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, h1, e.Native)
	assert.Equal(t, "A", e.Synthetic)
	e, ok = r.Resolve(h2)
	assert.True(t, ok)
	assert.Equal(t, synth.ID("b"), e.ID)
	_, ok = r.Resolve(&handle{"h3"})
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())
}

func TestReRegisterReplacesReverseEntry(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.registry")
	defer teardown()
	//
	r := New[*handle, int]("test")
	old, nu := &handle{"old"}, &handle{"new"}
	r.Register("a", old, 1)
	r.Register("a", nu, 2)
	_, ok := r.Resolve(old)
	assert.False(t, ok, "stale native handle must not resolve")
	e, ok := r.Resolve(nu)
	assert.True(t, ok)
	assert.Equal(t, 2, e.Synthetic)
	assert.Equal(t, 1, r.Len())
}

func TestUnregisterTree(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.registry")
	defer teardown()
	//
	r := New[*handle, int]("test")
	tree := map[synth.ID][]synth.ID{
		"root": {"x", "y"},
		"x":    {"x1"},
	}
	for _, id := range []synth.ID{"root", "x", "y", "x1", "other"} {
		r.Register(id, &handle{string(id)}, 0)
	}
	n := r.UnregisterTree("root", func(id synth.ID) []synth.ID { return tree[id] })
	assert.Equal(t, 4, n)
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Contains("other"))
	assert.False(t, r.Unregister("x1"), "unregistering twice must not fail")
	_, ok := r.Lookup("x1")
	assert.False(t, ok)
}

func TestEachInRegistrationOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.registry")
	defer teardown()
	//
	r := New[string, int]("test")
	for i, id := range []synth.ID{"c", "a", "b"} {
		r.Register(id, "n"+string(id), i)
	}
	r.Register("c", "nc", 9)
	var order []synth.ID
	r.Each(func(e Entry[string, int]) { order = append(order, e.ID) })
	assert.Equal(t, []synth.ID{"a", "b", "c"}, order)
	r.Clear()
	assert.Equal(t, 0, r.Len())
	_, ok := r.Resolve("na")
	assert.False(t, ok)
}

func TestResolveWhileRegistering(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "sdom.registry")
	defer teardown()
	//
	r := New[*handle, string]("test")
	handles := make([]*handle, 100)
	for i := range handles {
		handles[i] = &handle{fmt.Sprintf("h%d", i)}
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, h := range handles {
			if e, ok := r.Resolve(h); ok {
				assert.Equal(t, h, e.Native)
			}
		}
	}()
	for i, h := range handles {
		r.Register(synth.ID(h.name), h, fmt.Sprint(i))
	}
	wg.Wait()
	assert.Equal(t, len(handles), r.Len())
}
