// Package bridge decouples in-memory mutation from durable persistence.
//
// Catalog and shopping-session mutations apply to memory first and notify
// observers, then submit a Job here. A single background worker drains jobs
// in submission order, so for any one entity the store converges on the most
// recent mutation, and the workflow state written last is the value a
// restart will see.
package bridge

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dukerupert/larder/internal/store"
)

const queueSize = 256

// Job is one durable write. Exactly one of Create or Write must be set.
//
// Create inserts a record and returns the durable id the store assigned;
// Rebind mirrors that id onto the in-memory object.
//
// Write updates or deletes by id. When the store reports ErrNotFound for the
// submitted id (the in-memory id drifted from the durable one, e.g. a
// mutation raced its own creation), the worker falls back to Lookup by name,
// rebinds, and retries once. If that also fails the write is logged and
// dropped; memory stays the source of truth until the next successful write
// or reload.
type Job struct {
	Entity string
	Op     string
	ID     string
	Name   string

	Create func() (string, error)
	Write  func(id string) error
	Lookup func(name string) (string, error)
	Rebind func(durableID string)
}

// Bridge owns the persistence queue and its worker goroutine.
type Bridge struct {
	jobs   chan Job
	wg     sync.WaitGroup
	done   chan struct{}
	logger *slog.Logger

	closeOnce sync.Once
}

func New(logger *slog.Logger) *Bridge {
	b := &Bridge{
		jobs:   make(chan Job, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go b.run()
	return b
}

// Submit enqueues a job. It never blocks the caller unless the queue is
// saturated, and never reports persistence failures back.
func (b *Bridge) Submit(j Job) {
	b.wg.Add(1)
	b.jobs <- j
}

// Flush blocks until every job submitted so far has been processed.
func (b *Bridge) Flush() {
	b.wg.Wait()
}

// Close drains outstanding jobs and stops the worker. Submit must not be
// called after Close.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.jobs)
		<-b.done
	})
}

func (b *Bridge) run() {
	defer close(b.done)
	for j := range b.jobs {
		b.process(j)
		b.wg.Done()
	}
}

func (b *Bridge) process(j Job) {
	if j.Create != nil {
		durableID, err := j.Create()
		if err != nil {
			b.logger.Warn("dropping create", "entity", j.Entity, "name", j.Name, "error", err)
			return
		}
		if j.Rebind != nil {
			j.Rebind(durableID)
		}
		b.logger.Debug("persisted", "entity", j.Entity, "op", j.Op, "id", durableID)
		return
	}

	err := j.Write(j.ID)
	if err == nil {
		b.logger.Debug("persisted", "entity", j.Entity, "op", j.Op, "id", j.ID)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		b.logger.Warn("dropping write", "entity", j.Entity, "op", j.Op, "id", j.ID, "error", err)
		return
	}

	// Identity drift: recover the durable record by name, rebind, retry once.
	if j.Lookup == nil || j.Name == "" {
		b.logger.Warn("dropping write, no record for id", "entity", j.Entity, "op", j.Op, "id", j.ID)
		return
	}
	durableID, err := j.Lookup(j.Name)
	if err != nil {
		b.logger.Warn("dropping write, name lookup failed", "entity", j.Entity, "op", j.Op, "name", j.Name, "error", err)
		return
	}
	if durableID == "" {
		b.logger.Warn("dropping write, no record for id or name", "entity", j.Entity, "op", j.Op, "id", j.ID, "name", j.Name)
		return
	}
	if j.Rebind != nil {
		j.Rebind(durableID)
	}
	if err := j.Write(durableID); err != nil {
		b.logger.Warn("dropping write after rebind", "entity", j.Entity, "op", j.Op, "id", durableID, "error", err)
		return
	}
	b.logger.Debug("persisted after rebind", "entity", j.Entity, "op", j.Op, "id", durableID, "old_id", j.ID)
}
