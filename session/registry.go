// Package session tracks raw kernel connections and per-notebook kernel
// sessions. A Registry owns at most one RawConnection and a map from notebook
// identity to a pending-or-resolved session future; it provides idempotent
// connect, session creation through a pluggable factory, lookup, and
// best-effort bulk disposal.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nbforge/kernelbridge/errors"
	"github.com/nbforge/kernelbridge/kernel"
	"github.com/nbforge/kernelbridge/telemetry"
)

// ConnectionMetadata describes how a notebook session's kernel should be
// reached.
type ConnectionMetadata struct {
	ID          string
	KernelName  string
	LocalLaunch bool
}

// Factory constructs the actual kernel session for a notebook. The registry
// defines the lifecycle policy; the construction mechanics are supplied by
// the embedding application.
type Factory interface {
	CreateSession(ctx context.Context, notebook kernel.Notebook, resource string, meta ConnectionMetadata, disableUI bool) (kernel.Session, error)
}

// Config holds the registry's collaborators. Factory is required; a nil
// factory is a wiring defect, not a runtime condition, and is rejected at
// construction.
type Config struct {
	Factory Factory
	Emitter telemetry.Emitter
	Logger  *zap.SugaredLogger
}

// Registry tracks the raw connection singleton and per-notebook session
// futures. All mutation goes through its own methods.
type Registry struct {
	mu       sync.Mutex
	raw      *RawConnection
	sessions map[string]*Future

	factory Factory
	emitter telemetry.Emitter
	logger  *zap.SugaredLogger
}

// NewRegistry creates a session registry.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Factory == nil {
		return nil, errors.AssertionFailedf("session registry requires a session factory")
	}
	emitter := cfg.Emitter
	if emitter == nil {
		emitter = telemetry.NopEmitter{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Registry{
		sessions: make(map[string]*Future),
		factory:  cfg.Factory,
		emitter:  emitter,
		logger:   logger,
	}, nil
}

// Connect returns the raw connection, creating the singleton lazily unless
// getOnly is set. With getOnly, a nil return means no connection exists yet;
// none is created. Repeated calls return the same instance.
func (r *Registry) Connect(getOnly bool) *RawConnection {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.raw == nil {
		if getOnly {
			return nil
		}
		r.raw = newRawConnection()
		r.logger.Debugw("raw kernel connection created", "id", r.raw.ID)
	}
	return r.raw
}

// CreateNotebookSession constructs a kernel session for the notebook through
// the factory and registers the resulting future under the notebook's
// identity. Creation is instrumented start/success/failure.
func (r *Registry) CreateNotebookSession(ctx context.Context, notebook kernel.Notebook, resource string, meta ConnectionMetadata, disableUI bool) *Future {
	future := NewFuture()
	r.RegisterSession(notebook, future)

	go func() {
		start := time.Now()
		r.emitter.SessionCreationStarted(meta.KernelName)

		sess, err := r.factory.CreateSession(ctx, notebook, resource, meta, disableUI)
		if err != nil {
			r.emitter.SessionCreationFailed(meta.KernelName, err, time.Since(start))
			future.Reject(errors.Wrap(err, "failed to create notebook session"))
			return
		}
		r.emitter.SessionCreated(meta.KernelName, time.Since(start))
		future.Resolve(sess)
	}()

	return future
}

// GetSession returns the tracked session future for the notebook, or nil.
// Pure lookup, no side effects.
func (r *Registry) GetSession(notebook kernel.Notebook) *Future {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[notebook.Key()]
}

// RegisterSession installs the future under the notebook's identity and
// evicts the entry once the resolved session is disposed or the future is
// rejected. Last writer wins for a given key; in-flight entries are not
// merged, so callers must avoid duplicate creation.
func (r *Registry) RegisterSession(notebook kernel.Notebook, future *Future) {
	key := notebook.Key()

	r.mu.Lock()
	r.sessions[key] = future
	r.mu.Unlock()

	go r.watchSession(key, future)
}

// watchSession waits for the future's session to be disposed (or for the
// future to be rejected) and then removes the map entry.
func (r *Registry) watchSession(key string, future *Future) {
	<-future.Done()
	sess, err := future.Await(context.Background())
	if err != nil {
		r.logger.Debugw("notebook session creation failed", "notebook", key, "error", err)
		r.evict(key, future)
		return
	}

	<-sess.Disposed()
	r.evict(key, future)
}

// evict removes the entry only while the map still holds this exact future.
// A newer registration under the same key must not be removed by a stale
// watcher.
func (r *Registry) evict(key string, future *Future) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[key] == future {
		delete(r.sessions, key)
		r.logger.Debugw("notebook session evicted", "notebook", key)
	}
}

// DisposeAll awaits every tracked session future and disposes the resolved
// sessions. Individual resolution failures do not abort disposal of the
// others. The raw connection, if any, is invalidated.
func (r *Registry) DisposeAll(ctx context.Context) error {
	r.mu.Lock()
	futures := make([]*Future, 0, len(r.sessions))
	for _, f := range r.sessions {
		futures = append(futures, f)
	}
	raw := r.raw
	r.mu.Unlock()

	var errs error
	for _, f := range futures {
		sess, err := f.Await(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return errors.CombineErrors(errs, ctx.Err())
			}
			r.logger.Debugw("skipping disposal of unresolved session", "error", err)
			continue
		}
		if err := sess.Dispose(ctx); err != nil {
			r.logger.Warnw("session disposal failed", "error", err)
			errs = errors.CombineErrors(errs, err)
		}
	}

	if raw != nil {
		raw.notifyDisconnect()
	}
	return errs
}

// DisposedError returns the user-facing error explaining that the raw
// connection is no longer usable.
func (r *Registry) DisposedError() error {
	return errors.WithHint(
		errors.Wrap(errors.ErrRawConnectionBroken, "local kernel connection was shut down"),
		"Restart the kernel connection to continue working with this notebook.",
	)
}
