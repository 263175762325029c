package synth

import (
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/google/uuid"
)

// ID identifies synthetic nodes, stylesheets, rules and declarations.
// IDs are stable for the lifetime of an object and never re-used by a
// document.
type ID string

// IDGenerator produces unique identifiers.
type IDGenerator func() ID

// UUIDs returns a generator producing time-sortable UUID v7 identifiers.
func UUIDs() IDGenerator {
	return func() ID {
		return ID(uuid.Must(uuid.NewV7()).String())
	}
}

// SequentialIDs returns a generator producing identifiers prefix1, prefix2, …
// It is mainly useful for tests and debugging output.
func SequentialIDs(prefix string) IDGenerator {
	var n atomic.Uint64
	return func() ID {
		return ID(prefix + strconv.FormatUint(n.Add(1), 10))
	}
}

// --- Weak index ------------------------------------------------------------

// index maps IDs to objects without keeping them alive. Entries of collected
// objects are removed by a cleanup function, which may run on another
// goroutine; hence the mutex.
type index[T any] struct {
	mu sync.Mutex
	m  map[ID]weak.Pointer[T]
}

func newIndex[T any]() *index[T] {
	return &index[T]{m: make(map[ID]weak.Pointer[T])}
}

func (ix *index[T]) put(id ID, p *T) {
	ix.mu.Lock()
	ix.m[id] = weak.Make(p)
	ix.mu.Unlock()
	runtime.AddCleanup(p, ix.forget, id)
}

func (ix *index[T]) get(id ID) *T {
	if id == "" {
		return nil
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	wp, ok := ix.m[id]
	if !ok {
		return nil
	}
	return wp.Value()
}

func (ix *index[T]) forget(id ID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if wp, ok := ix.m[id]; ok && wp.Value() == nil {
		delete(ix.m, id)
	}
}
