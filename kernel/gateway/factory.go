package gateway

import (
	"context"

	"github.com/nbforge/kernelbridge/kernel"
	"github.com/nbforge/kernelbridge/session"
)

// SessionFactory creates gateway-backed sessions for the session registry.
type SessionFactory struct {
	cfg Config
}

var _ session.Factory = (*SessionFactory)(nil)

// NewSessionFactory creates a factory dialing sessions against the
// configured gateway.
func NewSessionFactory(cfg Config) *SessionFactory {
	return &SessionFactory{cfg: cfg}
}

// CreateSession dials the kernel channel identified by the connection
// metadata.
func (f *SessionFactory) CreateSession(ctx context.Context, notebook kernel.Notebook, resource string, meta session.ConnectionMetadata, disableUI bool) (kernel.Session, error) {
	cfg := f.cfg
	cfg.KernelID = meta.ID
	return Dial(ctx, cfg)
}
