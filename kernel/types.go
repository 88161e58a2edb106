// Package kernel defines the contracts between kernelbridge and the compute
// kernels it talks to: documents, notebooks, sessions, and the completion
// reply wire shape. Implementations live elsewhere (kernel/gateway provides a
// WebSocket-backed session); consumers depend only on these interfaces.
package kernel

import (
	"context"
	"strings"
)

// SessionStatus reflects the kernel execution state as last reported.
type SessionStatus string

const (
	StatusIdle     SessionStatus = "idle"
	StatusBusy     SessionStatus = "busy"
	StatusStarting SessionStatus = "starting"
	StatusDead     SessionStatus = "dead"
	StatusUnknown  SessionStatus = "unknown"
)

// Document identifies an editor document with a text snapshot.
type Document struct {
	// URI is the editor's identity for the document
	URI string
	// NotebookCell is true when the document is a cell of an open notebook
	NotebookCell bool
	// Text is the document content at request time
	Text string
}

// Notebook identifies an open notebook document.
type Notebook struct {
	URI string
}

// Key returns the canonical map key for the notebook identity.
func (n Notebook) Key() string {
	return strings.ToLower(n.URI)
}

// CompleteReply is the normalized result of a kernel completion call.
//
// Matches is always non-nil (possibly empty). Metadata is the raw JSON of the
// kernel's metadata mapping and may be nil or malformed; consumers must
// validate before trusting its contents.
type CompleteReply struct {
	Status      string
	Matches     []string
	CursorStart int
	CursorEnd   int
	Metadata    []byte
}

// EmptyCompleteReply returns the empty-result sentinel: no matches, a {0,0}
// cursor span, and no metadata.
func EmptyCompleteReply() *CompleteReply {
	return &CompleteReply{
		Status:  "ok",
		Matches: []string{},
	}
}

// Session is a live kernel session capable of answering introspection requests.
type Session interface {
	// Status reports the most recently observed kernel state
	Status() SessionStatus

	// RequestComplete asks the kernel for completions of code at cursorPos.
	// Implementations return the empty reply, not an error, for protocol-shape
	// mismatches; errors are reserved for transport failures.
	RequestComplete(ctx context.Context, code string, cursorPos int) (*CompleteReply, error)

	// Disposed is closed when the session has been torn down
	Disposed() <-chan struct{}

	// Dispose tears the session down. Safe to call more than once.
	Dispose(ctx context.Context) error
}

// Kernel is a handle to a compute kernel. Session may return nil when the
// kernel has not started or has shut down.
type Kernel interface {
	Session() Session
}

// Provider resolves the kernel owning a notebook, or nil when none exists.
type Provider interface {
	KernelFor(notebook Notebook) Kernel
}

// NotebookResolver resolves the notebook owning a cell document, or nil when
// the document belongs to no open notebook.
type NotebookResolver interface {
	NotebookFor(documentURI string) *Notebook
}
