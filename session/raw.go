package session

import (
	"sync"

	"github.com/google/uuid"
)

// ConnectionTypeRaw tags connections to locally launched, non-networked
// kernel backends.
const ConnectionTypeRaw = "raw"

// RawConnection represents the "connected to a local kernel backend" state.
// There is at most one per registry; it is created lazily and never recreated
// while one exists.
type RawConnection struct {
	ID          string
	DisplayName string
	LocalLaunch bool

	mu           sync.Mutex
	valid        bool
	disconnected chan struct{}
}

func newRawConnection() *RawConnection {
	return &RawConnection{
		ID:           uuid.NewString(),
		DisplayName:  "",
		LocalLaunch:  true,
		valid:        true,
		disconnected: make(chan struct{}),
	}
}

// Type returns the fixed connection type tag.
func (c *RawConnection) Type() string {
	return ConnectionTypeRaw
}

// Valid reports whether the connection is still usable.
func (c *RawConnection) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}

// Disconnected is closed when the connection is torn down.
func (c *RawConnection) Disconnected() <-chan struct{} {
	return c.disconnected
}

// notifyDisconnect invalidates the connection and fires the disconnect
// channel. Safe to call more than once.
func (c *RawConnection) notifyDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return
	}
	c.valid = false
	close(c.disconnected)
}
