package ocr

import (
	"context"
	"errors"
	"sync"
)

// fakeEngine returns canned results per profile name.
type fakeEngine struct {
	mu         sync.Mutex
	results    map[string]RecognitionResult
	errs       map[string]error
	panics     map[string]bool
	current    Profile
	configured []string
	closed     int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		results: map[string]RecognitionResult{},
		errs:    map[string]error{},
		panics:  map[string]bool{},
	}
}

func (f *fakeEngine) Configure(p Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = p
	f.configured = append(f.configured, p.Name)
	return nil
}

func (f *fakeEngine) Recognize(ctx context.Context, _ []byte) (RecognitionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return RecognitionResult{}, err
	}
	name := f.current.Name
	if f.panics[name] {
		panic("engine crashed on " + name)
	}
	if err := f.errs[name]; err != nil {
		return RecognitionResult{}, err
	}
	return f.results[name], nil
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeEngine) factory() EngineFactory {
	return func() (Engine, error) { return f, nil }
}

var errEngine = errors.New("engine failure")
