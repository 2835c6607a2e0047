package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// memoryStore is a process-local Store with the same observable contract as
// the Redis one: optimistic transactions via a per-document version counter,
// and synchronous change fan-out to subscribers. Used by tests and local
// development.
type memoryStore struct {
	mu   sync.Mutex
	docs map[string]*memoryDoc
	subs map[string]map[string]func(Document)
}

type memoryDoc struct {
	data    Document
	version uint64
}

func NewMemoryStore() Store {
	return &memoryStore{
		docs: make(map[string]*memoryDoc),
		subs: make(map[string]map[string]func(Document)),
	}
}

func (s *memoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[memKey(collection, id)]
	if !ok {
		return nil, ErrDocNotFound
	}

	return cloneDocument(doc.data), nil
}

func (s *memoryStore) Set(ctx context.Context, collection, id string, doc Document, merge bool) error {
	return s.RunTransaction(ctx, collection, id, func(cur Document, exists bool) (Document, error) {
		if !merge || !exists {
			return doc, nil
		}

		next := make(Document, len(cur)+len(doc))
		for k, v := range cur {
			next[k] = v
		}
		for k, v := range doc {
			next[k] = v
		}

		return next, nil
	})
}

func (s *memoryStore) Update(ctx context.Context, collection, id string, fields Document) error {
	return s.RunTransaction(ctx, collection, id, func(cur Document, exists bool) (Document, error) {
		if !exists {
			return nil, ErrDocNotFound
		}

		for k, v := range fields {
			cur[k] = v
		}

		return cur, nil
	})
}

func (s *memoryStore) RunTransaction(ctx context.Context, collection, id string, fn TxFunc) error {
	key := memKey(collection, id)

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		s.mu.Lock()
		cur, exists := s.docs[key]
		var snapshot Document
		var version uint64
		if exists {
			snapshot = cloneDocument(cur.data)
			version = cur.version
		}
		s.mu.Unlock()

		next, err := fn(snapshot, exists)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		s.mu.Lock()
		cur2, exists2 := s.docs[key]
		if exists2 != exists || (exists && cur2.version != version) {
			// Conflicting write landed between read and commit; retry fn.
			s.mu.Unlock()
			continue
		}

		committed := cloneDocument(next)
		if exists2 {
			cur2.data = committed
			cur2.version++
		} else {
			s.docs[key] = &memoryDoc{data: committed, version: 1}
		}
		listeners := s.listeners(key)
		s.mu.Unlock()

		for _, cb := range listeners {
			cb(cloneDocument(committed))
		}

		return nil
	}

	return ErrTxConflict
}

func (s *memoryStore) Subscribe(ctx context.Context, collection, id string, onChange func(Document)) (Unsubscribe, error) {
	key := memKey(collection, id)
	subID := uuid.NewString()

	s.mu.Lock()
	if s.subs[key] == nil {
		s.subs[key] = make(map[string]func(Document))
	}
	s.subs[key][subID] = onChange
	var initial Document
	if doc, ok := s.docs[key]; ok {
		initial = cloneDocument(doc.data)
	}
	s.mu.Unlock()

	if initial != nil {
		onChange(initial)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[key], subID)
			s.mu.Unlock()
		})
	}, nil
}

func (s *memoryStore) listeners(key string) []func(Document) {
	out := make([]func(Document), 0, len(s.subs[key]))
	for _, cb := range s.subs[key] {
		out = append(out, cb)
	}
	return out
}

func memKey(collection, id string) string {
	return collection + ":" + id
}

// cloneDocument deep-copies through JSON so subscribers and transactions never
// alias the committed state.
func cloneDocument(doc Document) Document {
	if doc == nil {
		return nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return Document{}
	}

	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return Document{}
	}

	return out
}
