// Package loader decodes glTF assets into scene graph nodes off the render thread.
package loader

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/matcha-viewer/internal/engine/scenegraph"
	"github.com/Faultbox/matcha-viewer/internal/logger"
)

// DecodeFunc turns an asset path into a node hierarchy.
type DecodeFunc func(path string) (*scenegraph.Node, error)

// Loader decodes assets in background goroutines. Results are queued and the
// callbacks run only inside Dispatch, so they execute on the render loop.
type Loader struct {
	decode DecodeFunc

	mu       sync.Mutex
	pending  []func()
	inFlight int
	wg       sync.WaitGroup
}

// New creates a loader for glTF/GLB files.
func New() *Loader {
	return NewWithDecoder(LoadFile)
}

// NewWithDecoder creates a loader with a custom decode step.
func NewWithDecoder(decode DecodeFunc) *Loader {
	return &Loader{decode: decode}
}

func log() *zap.Logger {
	return logger.Named("loader")
}

// Load starts decoding path and returns immediately. Exactly one of onLoad
// or onError is later invoked from Dispatch. Either callback may be nil.
func (l *Loader) Load(path string, onLoad func(*scenegraph.Node), onError func(error)) {
	l.mu.Lock()
	l.inFlight++
	l.mu.Unlock()
	l.wg.Add(1)

	go func() {
		defer l.wg.Done()

		start := time.Now()
		root, err := l.safeDecode(path)

		var done func()
		if err != nil {
			err = fmt.Errorf("load %s: %w", path, err)
			done = func() {
				if onError != nil {
					onError(err)
				}
			}
		} else {
			log().Debug("asset decoded",
				zap.String("path", path),
				zap.Duration("elapsed", time.Since(start)))
			done = func() {
				if onLoad != nil {
					onLoad(root)
				}
			}
		}

		l.mu.Lock()
		l.pending = append(l.pending, done)
		l.inFlight--
		l.mu.Unlock()
	}()
}

// safeDecode converts a decoder panic on malformed input into an error.
func (l *Loader) safeDecode(path string) (root *scenegraph.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return l.decode(path)
}

// Dispatch runs the callbacks of every finished load, in completion order,
// and returns how many ran. Call it once per frame from the render loop.
func (l *Loader) Dispatch() int {
	l.mu.Lock()
	ready := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, fn := range ready {
		fn()
	}
	return len(ready)
}

// Pending reports loads that are still decoding or waiting for Dispatch.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight + len(l.pending)
}

// Wait blocks until every started load has finished decoding.
// Callbacks still need a Dispatch to run.
func (l *Loader) Wait() {
	l.wg.Wait()
}
