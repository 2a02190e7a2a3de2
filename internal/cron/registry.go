package cron

import (
	"context"
	"time"
)

// Job represents a scheduled scan pass that runs inside the scan worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Entry binds a job to its cadence and per-run timeout.
type Entry struct {
	Job     Job
	Every   time.Duration
	Timeout time.Duration
}

// Registry tracks registered scan jobs and their schedules.
type Registry struct {
	entries []Entry
}

// NewRegistry builds a registry preloaded with the provided entries.
func NewRegistry(entries ...Entry) *Registry {
	registry := &Registry{}
	for _, entry := range entries {
		registry.Register(entry)
	}
	return registry
}

// Register adds an entry to the registry.
func (r *Registry) Register(entry Entry) {
	if entry.Job == nil {
		return
	}
	r.entries = append(r.entries, entry)
}

// Entries returns the registered entries in the order they were added.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}
