package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/saloonq/queue-service/pkg/logger"
)

// Documents live at saloonq:doc:{collection}:{id} as JSON blobs. Every write
// publishes the full document on the matching watch channel, which is what
// Subscribe listens on. Transactions ride on WATCH/MULTI: the client library
// fails the EXEC when the key changed after the read, and we retry the whole
// TxFunc, mirroring the contract of a hosted document store.
const maxTxAttempts = 10

type redisStore struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisStore(cli *redis.Client, l logger.Logger) Store {
	return &redisStore{
		cli: cli,
		l:   l,
	}
}

func (s *redisStore) Get(ctx context.Context, collection, id string) (Document, error) {
	data, err := s.cli.Get(ctx, s.docKey(collection, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrDocNotFound
		}

		s.l.Errorf(ctx, "store.redisStore.Get: %v", err)
		return nil, err
	}

	return decodeDocument(data)
}

func (s *redisStore) Set(ctx context.Context, collection, id string, doc Document, merge bool) error {
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

func (s *redisStore) Update(ctx context.Context, collection, id string, fields Document) error {
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

func (s *redisStore) RunTransaction(ctx context.Context, collection, id string, fn TxFunc) error {
	key := s.docKey(collection, id)
	channel := s.watchChannel(collection, id)

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.cli.Watch(ctx, func(tx *redis.Tx) error {
			var doc Document
			exists := true

			data, err := tx.Get(ctx, key).Bytes()
			if err == redis.Nil {
				exists = false
			} else if err != nil {
				return err
			} else {
				if doc, err = decodeDocument(data); err != nil {
					return err
				}
			}

			next, err := fn(doc, exists)
			if err != nil {
				return err
			}
			if next == nil {
				// Read-only transaction, nothing to commit.
				return nil
			}

			payload, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("failed to marshal document: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, 0)
				pipe.Publish(ctx, channel, payload)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			s.l.Debugf(ctx, "store.redisStore.RunTransaction: conflict on %s, attempt %d", key, attempt+1)
			continue
		}

		return err
	}

	s.l.Warnf(ctx, "store.redisStore.RunTransaction: %v: %s", ErrTxConflict, key)
	return ErrTxConflict
}

func (s *redisStore) Subscribe(ctx context.Context, collection, id string, onChange func(Document)) (Unsubscribe, error) {
	subID := uuid.NewString()
	channel := s.watchChannel(collection, id)

	ps := s.cli.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		s.l.Errorf(ctx, "store.redisStore.Subscribe: %v", err)
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		ch := ps.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}

				doc, err := decodeDocument([]byte(msg.Payload))
				if err != nil {
					s.l.Errorf(ctx, "store.redisStore.Subscribe: dropping malformed update on %s: %v", channel, err)
					continue
				}

				onChange(doc)

			case <-done:
				return
			}
		}
	}()

	// Deliver the current snapshot first, the way onSnapshot listeners do.
	if doc, err := s.Get(ctx, collection, id); err == nil {
		onChange(doc)
	} else if err != ErrDocNotFound {
		close(done)
		_ = ps.Close()
		return nil, err
	}

	s.l.Debugf(ctx, "store.redisStore.Subscribe: listener %s attached to %s", subID, channel)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
			s.l.Debugf(ctx, "store.redisStore.Subscribe: listener %s detached from %s", subID, channel)
		})
	}, nil
}

func (s *redisStore) docKey(collection, id string) string {
	return fmt.Sprintf("saloonq:doc:%s:%s", collection, id)
}

func (s *redisStore) watchChannel(collection, id string) string {
	return fmt.Sprintf("saloonq:watch:%s:%s", collection, id)
}

func decodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}
