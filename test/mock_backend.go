package test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/luminancehdr/hdr-batch/pkg/hdrio"
	"github.com/luminancehdr/hdr-batch/pkg/scheduler"
)

// MockBackend implements scheduler.Backend for testing. Inputs listed in
// Errors fail with the mapped error; everything else succeeds.
type MockBackend struct {
	Errors map[string]error
	// Gate, when set, blocks every call until it is closed.
	Gate chan struct{}

	mu    sync.Mutex
	calls []scheduler.WorkItem
}

func NewMockBackend() *MockBackend {
	return &MockBackend{Errors: map[string]error{}}
}

// FailOn makes every item whose input base name is name fail.
func (m *MockBackend) FailOn(name string, err error) *MockBackend {
	if err == nil {
		err = errors.New("cannot decode " + name)
	}
	m.Errors[name] = err
	return m
}

// Apply records the call and returns the configured result.
func (m *MockBackend) Apply(ctx context.Context, item scheduler.WorkItem) (scheduler.Output, error) {
	m.mu.Lock()
	m.calls = append(m.calls, item)
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	if err, ok := m.Errors[filepath.Base(item.InputPath)]; ok {
		return scheduler.Output{}, err
	}
	return scheduler.Output{Path: filepath.Join(item.OutputDir, filepath.Base(item.InputPath))}, nil
}

func (m *MockBackend) Calls() []scheduler.WorkItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]scheduler.WorkItem, len(m.calls))
	copy(out, m.calls)
	return out
}

// Factory returns a services.BackendFactory compatible function that always
// yields m.
func (m *MockBackend) Factory() func(hdrio.Format, int) scheduler.Backend {
	return func(hdrio.Format, int) scheduler.Backend { return m }
}

// Ensure MockBackend implements scheduler.Backend.
var _ scheduler.Backend = (*MockBackend)(nil)
