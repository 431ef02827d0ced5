package keymutex

import (
	"context"
	"hash/fnv"
	"sync"
)

const shardCount = 64

// Table is a sharded collection of per-key exclusive locks.
type Table struct {
	shards [shardCount]shard
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	// ch has capacity 1; holding the token means holding the lock.
	ch   chan struct{}
	refs int
}

// New creates an empty lock table.
func New() *Table {
	t := &Table{}
	for i := range t.shards {
		t.shards[i].entries = make(map[string]*entry)
	}
	return t
}

// Acquire takes the exclusive lock for key, blocking until the lock is free
// or ctx is done. On success it returns a release function that must be
// called exactly once. If ctx is cancelled before acquisition, Acquire
// returns the context error and the lock state is unchanged.
func (t *Table) Acquire(ctx context.Context, key string) (func(), error) {
	sh := t.shard(key)

	sh.mu.Lock()
	e, ok := sh.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		sh.entries[key] = e
	}
	e.refs++
	sh.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		t.put(sh, key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-e.ch
			t.put(sh, key, e)
		})
	}
	return release, nil
}

func (t *Table) shard(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &t.shards[h.Sum32()%shardCount]
}

func (t *Table) put(sh *shard, key string, e *entry) {
	sh.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(sh.entries, key)
	}
	sh.mu.Unlock()
}
