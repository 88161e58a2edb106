// Package completion turns kernel completion replies into ranked editor
// completion items. It reconciles the kernel's asynchronous, possibly-slow
// responses with the editor's synchronous expectation of a completion list:
// requests are raced against a timeout, replies are normalized across the
// legacy and experimental match schemas, and every failure mode degrades to
// an empty list rather than an error.
package completion

import (
	"context"
	"time"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/zap"

	"github.com/nbforge/kernelbridge/config"
	"github.com/nbforge/kernelbridge/kernel"
)

// Span is a [Start, End) byte-offset replacement range in document text.
type Span struct {
	Start int
	End   int
}

// Item is one ranked completion candidate.
//
// Range is nil when the kernel did not report a replacement span; the editor
// then replaces the current word token. The adapter deliberately never
// synthesizes a span, since it has no lexical knowledge of word boundaries in
// the kernel's language. Kind is zero when the kernel reported no type tag.
type Item struct {
	Label    string
	Range    *Span
	Kind     protocol.CompletionItemKind
	SortText string
}

// Config holds the adapter's collaborators.
type Config struct {
	Resolver kernel.NotebookResolver
	Kernels  kernel.Provider
	// Timeout bounds the kernel completion call. Zero means use the
	// configured default (with the test environment override applied).
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

// Adapter provides completion items for notebook cell documents.
type Adapter struct {
	resolver kernel.NotebookResolver
	kernels  kernel.Provider
	timeout  time.Duration
	logger   *zap.SugaredLogger
}

// NewAdapter creates a completion adapter from its collaborators.
func NewAdapter(cfg Config) *Adapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Adapter{
		resolver: cfg.Resolver,
		kernels:  cfg.Kernels,
		timeout:  timeout,
		logger:   logger,
	}
}

// defaultTimeout resolves the completion timeout from configuration,
// honoring the test environment override.
func defaultTimeout() time.Duration {
	cfg, err := config.Load()
	if err != nil {
		return config.CompletionConfig{TimeoutMS: 2000}.Timeout()
	}
	return cfg.Completion.Timeout()
}

// ProvideCompletions returns ranked completion items for the document at the
// given cursor offset. Non-notebook-cell documents, missing notebooks,
// missing kernels, timeouts, and cancellation all yield an empty list; this
// method never fails.
func (a *Adapter) ProvideCompletions(ctx context.Context, doc kernel.Document, cursor int) []Item {
	if !doc.NotebookCell {
		return nil
	}

	notebook := a.resolver.NotebookFor(doc.URI)
	if notebook == nil {
		a.logger.Debugw("no notebook for document, skipping completions", "uri", doc.URI)
		return nil
	}

	k := a.kernels.KernelFor(*notebook)
	if k == nil {
		a.logger.Debugw("no kernel for notebook, skipping completions", "notebook", notebook.URI)
		return nil
	}
	session := k.Session()
	if session == nil {
		a.logger.Debugw("kernel has no active session, skipping completions", "notebook", notebook.URI)
		return nil
	}

	reply := a.raceCompletion(ctx, session, doc.Text, cursor)
	if reply == nil {
		return nil
	}

	return a.buildItems(reply)
}

// raceCompletion races the kernel completion call against the timeout and
// the caller's cancellation. A timeout yields the empty-result sentinel; a
// fired cancellation yields nil so the cancellation itself determines the
// outcome rather than a late timer.
func (a *Adapter) raceCompletion(ctx context.Context, session kernel.Session, code string, cursor int) *kernel.CompleteReply {
	replies := make(chan *kernel.CompleteReply, 1)
	go func() {
		replies <- a.requestComplete(ctx, session, code, cursor)
	}()

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case reply := <-replies:
		return reply
	case <-ctx.Done():
		return nil
	case <-timer.C:
		// The timer and the cancellation can fire in the same instant;
		// a fired cancellation always wins.
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		a.logger.Debugw("kernel completion timed out", "timeout", a.timeout)
		return kernel.EmptyCompleteReply()
	}
}

// requestComplete issues the completion RPC, short-circuiting when the kernel
// is busy and degrading transport failures to the empty reply. Cancellation
// resolves as "no result", never as an error.
func (a *Adapter) requestComplete(ctx context.Context, session kernel.Session, code string, cursor int) *kernel.CompleteReply {
	if session.Status() == kernel.StatusBusy {
		a.logger.Debugw("kernel busy, skipping completion request")
		return kernel.EmptyCompleteReply()
	}

	reply, err := session.RequestComplete(ctx, code, cursor)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		a.logger.Debugw("kernel completion request failed", "error", err)
		return kernel.EmptyCompleteReply()
	}
	if reply == nil || reply.Matches == nil {
		return kernel.EmptyCompleteReply()
	}
	return reply
}

// buildItems normalizes a kernel reply into ranked items. The experimental
// match schema is used when it validates in full; otherwise every item comes
// from the legacy match list.
func (a *Adapter) buildItems(reply *kernel.CompleteReply) []Item {
	if matches, ok := parseExperimentalMatches(reply.Metadata, len(reply.Matches)); ok {
		items := make([]Item, 0, len(matches))
		for i, m := range matches {
			items = append(items, Item{
				Label:    m.Text,
				Range:    &Span{Start: m.Start, End: m.End},
				Kind:     KindForType(m.Type),
				SortText: GenerateSortKey(i),
			})
		}
		return items
	}

	items := make([]Item, 0, len(reply.Matches))
	for i, label := range reply.Matches {
		items = append(items, Item{
			Label:    label,
			SortText: GenerateSortKey(i),
		})
	}
	return items
}
