// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/codeprism/codeprism/pkg/parser"
)

// ProcessingError records one file's failure.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors collects failures across workers.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends one failure. Safe for concurrent use.
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors reports whether anything failed.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is applied to NumCPU for the worker count. 2x
// suits the mixed I/O and CGO workload of parse-heavy runs.
const DefaultWorkerMultiplier = 2

// Workers resolves a configured worker count, defaulting to 2x NumCPU.
func Workers(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// ProgressFunc is called after each file finishes, success or not.
type ProgressFunc func()

// MapFiles runs fn over files in parallel, each call receiving a dedicated
// parser: tree-sitter parsers cannot be shared between goroutines. Results
// arrive in arbitrary order. The second return value is nil when every file
// succeeded.
func MapFiles[T any](ctx context.Context, files []string, maxWorkers int, fn func(*parser.Parser, string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	results := make([]T, 0, len(files))
	errs := &ProcessingErrors{}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(Workers(maxWorkers)).WithContext(ctx)
	for _, path := range files {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return ctx.Err()
			default:
			}

			psr := parser.New()
			defer psr.Close()

			result, err := fn(psr, path)
			if onProgress != nil {
				onProgress()
			}
			if err != nil {
				errs.Add(path, err)
				// Individual file failures don't stop the pool.
				return nil
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait() // context errors already captured per file

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}

// ForEachFile is MapFiles for work that needs no parser.
func ForEachFile[T any](ctx context.Context, files []string, maxWorkers int, fn func(string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	results := make([]T, 0, len(files))
	errs := &ProcessingErrors{}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(Workers(maxWorkers)).WithContext(ctx)
	for _, path := range files {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return ctx.Err()
			default:
			}

			result, err := fn(path)
			if onProgress != nil {
				onProgress()
			}
			if err != nil {
				errs.Add(path, err)
				return nil
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait()

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
