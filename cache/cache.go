// Package cache provides a bounded, per-user, multi-kind LRU cache.
//
// The cache is two-level: an outer LRU over users, and per (user, kind) an
// inner LRU over keys. Inserting a user beyond MaxUsers evicts the least
// recently used user's whole cache set; inserting a key beyond
// MaxEntriesPerKind evicts the least recently used key in that kind.
//
// The package knows nothing about embeddings or memories; values are opaque.
// All operations are O(1) amortized and serialized through a single mutex.
package cache

import (
	"container/list"
	"sync"
)

// Kind names a cache namespace within a user's cache set.
type Kind string

// Cache kinds used by the memory engine. The cache itself treats these as
// opaque namespace names; callers may introduce their own.
const (
	// KindEmbedding holds normalized embedding vectors keyed by content hash.
	KindEmbedding Kind = "embedding"

	// KindRetrieval holds full similarity result sets keyed by query hash.
	KindRetrieval Kind = "retrieval"

	// KindMemoryList holds the user's current memory list under a single key.
	KindMemoryList Kind = "memory"

	// KindVerdict holds short-lived skip/allow verdicts keyed by message hash.
	KindVerdict Kind = "verdict"
)

// MemoryListKey is the singleton key used within KindMemoryList: each user
// has at most one cached memory list.
const MemoryListKey = "all"

// Config bounds the cache.
type Config struct {
	// MaxUsers caps the number of distinct users with live cache sets.
	MaxUsers int

	// MaxEntriesPerKind caps the number of keys per (user, kind).
	MaxEntriesPerKind int
}

// DefaultConfig matches a mid-sized multi-user deployment.
var DefaultConfig = Config{
	MaxUsers:          50,
	MaxEntriesPerKind: 500,
}

type entry struct {
	key   string
	value interface{}
}

// kindCache is one inner LRU: key -> element, list front = most recent.
type kindCache struct {
	order   *list.List // of *entry
	entries map[string]*list.Element
}

func newKindCache() *kindCache {
	return &kindCache{
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// userSet is one user's cache set plus its position in the outer LRU.
type userSet struct {
	id    string
	kinds map[Kind]*kindCache
}

// Manager is the cache. The zero value is not usable; use New.
type Manager struct {
	mu    sync.Mutex
	cfg   Config
	order *list.List // of *userSet, front = most recent
	users map[string]*list.Element
}

// New creates a Manager. Non-positive limits fall back to DefaultConfig.
func New(cfg Config) *Manager {
	if cfg.MaxUsers <= 0 {
		cfg.MaxUsers = DefaultConfig.MaxUsers
	}
	if cfg.MaxEntriesPerKind <= 0 {
		cfg.MaxEntriesPerKind = DefaultConfig.MaxEntriesPerKind
	}
	return &Manager{
		cfg:   cfg,
		order: list.New(),
		users: make(map[string]*list.Element),
	}
}

// Get returns the cached value and marks both the entry and the owning user
// as most recently used. The second return is false on miss.
func (m *Manager) Get(userID string, kind Kind, key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ue, ok := m.users[userID]
	if !ok {
		return nil, false
	}
	set := ue.Value.(*userSet)
	kc, ok := set.kinds[kind]
	if !ok {
		return nil, false
	}
	el, ok := kc.entries[key]
	if !ok {
		return nil, false
	}

	kc.order.MoveToFront(el)
	m.order.MoveToFront(ue)
	return el.Value.(*entry).value, true
}

// Put inserts or overwrites a value and marks it most recently used,
// evicting the LRU user or LRU key first when a bound would be exceeded.
func (m *Manager) Put(userID string, kind Kind, key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ue, ok := m.users[userID]
	if !ok {
		if len(m.users) >= m.cfg.MaxUsers {
			m.evictOldestUser()
		}
		ue = m.order.PushFront(&userSet{id: userID, kinds: make(map[Kind]*kindCache)})
		m.users[userID] = ue
	} else {
		m.order.MoveToFront(ue)
	}
	set := ue.Value.(*userSet)

	kc, ok := set.kinds[kind]
	if !ok {
		kc = newKindCache()
		set.kinds[kind] = kc
	}

	if el, ok := kc.entries[key]; ok {
		el.Value.(*entry).value = value
		kc.order.MoveToFront(el)
		return
	}

	if kc.order.Len() >= m.cfg.MaxEntriesPerKind {
		oldest := kc.order.Back()
		if oldest != nil {
			kc.order.Remove(oldest)
			delete(kc.entries, oldest.Value.(*entry).key)
		}
	}
	kc.entries[key] = kc.order.PushFront(&entry{key: key, value: value})
}

// ClearUser removes the given kinds for a user, or every kind when none are
// named, and returns the number of entries removed. A user left with no
// kinds is removed entirely.
func (m *Manager) ClearUser(userID string, kinds ...Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	ue, ok := m.users[userID]
	if !ok {
		return 0
	}
	set := ue.Value.(*userSet)

	if len(kinds) == 0 {
		total := 0
		for _, kc := range set.kinds {
			total += kc.order.Len()
		}
		m.order.Remove(ue)
		delete(m.users, userID)
		return total
	}

	cleared := 0
	for _, kind := range kinds {
		if kc, ok := set.kinds[kind]; ok {
			cleared += kc.order.Len()
			delete(set.kinds, kind)
		}
	}
	if len(set.kinds) == 0 {
		m.order.Remove(ue)
		delete(m.users, userID)
	}
	return cleared
}

// ClearAll drops every cache set for every user.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order.Init()
	m.users = make(map[string]*list.Element)
}

// Users returns the number of distinct users with live cache sets.
func (m *Manager) Users() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// Len returns the number of keys cached under (user, kind).
func (m *Manager) Len(userID string, kind Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ue, ok := m.users[userID]
	if !ok {
		return 0
	}
	kc, ok := ue.Value.(*userSet).kinds[kind]
	if !ok {
		return 0
	}
	return kc.order.Len()
}

// evictOldestUser drops the least recently used user's entire cache set.
// Caller holds the lock.
func (m *Manager) evictOldestUser() {
	oldest := m.order.Back()
	if oldest == nil {
		return
	}
	m.order.Remove(oldest)
	delete(m.users, oldest.Value.(*userSet).id)
}
