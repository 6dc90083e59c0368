// Package store keeps the automata loaded into the afdd daemon, addressable
// by ID or by name, and expires the ones left idle longer than their TTL.
package store

import (
	"container/heap"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/lc/afd/internal/automaton"
)

// Entry is a loaded automaton and its catalogue metadata.
type Entry struct {
	ID        string
	Name      string
	Automaton *automaton.Automaton
	LoadedAt  time.Time
	LastUsed  time.Time
	TTL       time.Duration // 0 keeps the entry until unloaded
	Expires   time.Time     // LastUsed + TTL, zero when TTL is 0
}

// Pinned reports whether the entry never expires.
func (e *Entry) Pinned() bool { return e.TTL <= 0 }

var _ Store = (*MemoryStore)(nil)

// Store is the catalogue of loaded automata.
type Store interface {
	// Upsert inserts e, replacing any entry with the same name. The replaced
	// entry is returned, or nil.
	Upsert(e *Entry) (replaced *Entry)
	// Get resolves an ID or a name and returns a copy of the entry.
	Get(ref string) (Entry, bool)
	// Touch records use of id at ts and pushes its expiry back.
	Touch(id string, ts time.Time) bool
	// Remove deletes by ID.
	Remove(id string) (*Entry, bool)
	// NextExpiry returns the soonest expiry time, or ok=false if none.
	NextExpiry() (time.Time, bool)
	// ExpireNow removes and returns every entry expiring at or before now.
	ExpireNow(now time.Time) []*Entry
	// Snapshot returns a copy of the catalogue ordered by name.
	Snapshot() []Entry
	// Len returns the number of entries.
	Len() int
}

// NewStore creates an empty, thread-safe in-memory store.
func NewStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*entry),
		byName: make(map[string]*entry),
		expH:   make([]*entry, 0),
	}
}

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu     sync.RWMutex      // protects fields below
	byID   map[string]*entry // id -> entry
	byName map[string]*entry // name -> entry
	expH   expiryHeap        // min-heap keyed by .Expires, pinned entries excluded
	count  atomic.Int64
}

// Upsert inserts e; an entry already loaded under the same name is dropped
// entirely, so nothing from a previous load survives a reload.
func (s *MemoryStore) Upsert(e *Entry) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var replaced *Entry
	if cur, ok := s.byName[e.Name]; ok {
		s.removeLocked(cur)
		replaced = cur.Entry
	}

	if e.LastUsed.IsZero() {
		e.LastUsed = e.LoadedAt
	}
	e.Expires = expiry(e.LastUsed, e.TTL)

	ent := &entry{Entry: e, heapIdx: -1}
	s.byID[e.ID] = ent
	s.byName[e.Name] = ent
	if !e.Pinned() {
		heap.Push(&s.expH, ent)
	}
	s.count.Inc()
	return replaced
}

// Get resolves an ID first, then a name.
func (s *MemoryStore) Get(ref string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.byID[ref]; ok {
		return *e.Entry, true
	}
	if e, ok := s.byName[ref]; ok {
		return *e.Entry, true
	}
	return Entry{}, false
}

// Touch updates LastUsed and the expiry of id.
func (s *MemoryStore) Touch(id string, ts time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[id]
	if !ok {
		return false
	}
	cur.LastUsed = ts
	if !cur.Pinned() {
		cur.Expires = expiry(ts, cur.TTL)
		heap.Fix(&s.expH, cur.heapIdx)
	}
	return true
}

// Remove deletes by id.
func (s *MemoryStore) Remove(id string) (*Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	s.removeLocked(cur)
	return cur.Entry, true
}

func (s *MemoryStore) removeLocked(cur *entry) {
	delete(s.byID, cur.ID)
	delete(s.byName, cur.Name)
	if cur.heapIdx >= 0 {
		heap.Remove(&s.expH, cur.heapIdx)
	}
	s.count.Dec()
}

// NextExpiry returns the soonest expiry time, or ok=false if none.
func (s *MemoryStore) NextExpiry() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.expH) == 0 {
		return time.Time{}, false
	}
	return s.expH[0].Expires, true
}

// ExpireNow pops all entries whose expiry is not after now.
func (s *MemoryStore) ExpireNow(now time.Time) []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*Entry
	for s.expH.Len() > 0 && !s.expH[0].Expires.After(now) {
		e, ok := heap.Pop(&s.expH).(*entry)
		if !ok {
			continue
		}
		delete(s.byID, e.ID)
		delete(s.byName, e.Name)
		s.count.Dec()
		expired = append(expired, e.Entry)
	}
	return expired
}

// Snapshot returns value copies ordered by name.
func (s *MemoryStore) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, *e.Entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of entries.
func (s *MemoryStore) Len() int { return int(s.count.Load()) }

func expiry(from time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return from.Add(ttl)
}

type entry struct {
	*Entry
	// index inside expiryHeap, -1 when not in the heap.
	heapIdx int
}

// expiryHeap is a min-heap ordered by Entry.Expires. It is guarded by
// MemoryStore.mu and must only be used through container/heap.
type expiryHeap []*entry

var _ heap.Interface = (*expiryHeap)(nil)

func (h expiryHeap) Len() int { return len(h) }

func (h expiryHeap) Less(i, j int) bool {
	return h[i].Expires.Before(h[j].Expires)
}

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx, h[j].heapIdx = i, j
}

func (h *expiryHeap) Push(x any) {
	e, ok := x.(*entry)
	if !ok {
		return
	}
	e.heapIdx = len(*h)
	*h = append(*h, e)
}

func (h *expiryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	e.heapIdx = -1
	*h = old[:n-1]
	return e
}
