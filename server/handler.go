// Package server exposes the completion adapter to browser-embedded notebook
// editors as an LSP server over WebSocket. It maintains a bounded cache of
// open cell documents and answers textDocument/completion from the kernel.
package server

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/zap"

	"github.com/nbforge/kernelbridge/completion"
	"github.com/nbforge/kernelbridge/kernel"
)

const (
	// defaultMaxDocuments limits document cache size to prevent memory
	// exhaustion from clients that never close documents
	defaultMaxDocuments = 100

	serverName = "kernelbridge Language Server"
)

// documentEntry represents a cached document in the LRU cache
type documentEntry struct {
	uri     string
	content string
}

// Handler implements LSP protocol handlers backed by the completion adapter.
type Handler struct {
	adapter      *completion.Adapter
	logger       *zap.SugaredLogger
	maxDocuments int

	mu        sync.RWMutex
	documents map[string]*list.Element // URI -> list element (LRU cache)
	lruList   *list.List
}

// NewHandler creates an LSP handler wrapping the completion adapter.
func NewHandler(adapter *completion.Adapter, maxDocuments int, logger *zap.SugaredLogger) *Handler {
	if maxDocuments <= 0 {
		maxDocuments = defaultMaxDocuments
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{
		adapter:      adapter,
		logger:       logger,
		maxDocuments: maxDocuments,
		documents:    make(map[string]*list.Element),
		lruList:      list.New(),
	}
}

// Initialize handles the LSP initialize request
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	h.logger.Infow("LSP client initializing", "client", params.ClientInfo)

	capabilities := protocol.ServerCapabilities{
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{".", "%"},
		},
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: boolPtr(true),
			Change:    textDocSyncPtr(protocol.TextDocumentSyncKindFull),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: stringPtr("1.0.0"),
		},
	}, nil
}

// Initialized is called after the client receives InitializeResult
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	h.logger.Infow("LSP client initialized")
	return nil
}

// Shutdown handles the LSP shutdown request
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	h.logger.Infow("LSP client shutting down")
	return nil
}

// TextDocumentDidOpen handles document open notifications
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uri := string(params.TextDocument.URI)

	if elem, exists := h.documents[uri]; exists {
		h.lruList.MoveToFront(elem)
		entry := elem.Value.(*documentEntry)
		entry.content = params.TextDocument.Text
		return nil
	}

	// Enforce document cache bounds - evict LRU if needed
	if len(h.documents) >= h.maxDocuments {
		oldest := h.lruList.Back()
		if oldest != nil {
			evicted := oldest.Value.(*documentEntry)
			h.lruList.Remove(oldest)
			delete(h.documents, evicted.uri)
			h.logger.Infow("document cache limit reached, evicted oldest",
				"evicted_uri", evicted.uri, "cache_size", len(h.documents))
		}
	}

	elem := h.lruList.PushFront(&documentEntry{uri: uri, content: params.TextDocument.Text})
	h.documents[uri] = elem

	h.logger.Debugw("document opened", "uri", uri, "length", len(params.TextDocument.Text))
	return nil
}

// TextDocumentDidChange handles document change notifications (full sync)
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uri := string(params.TextDocument.URI)

	for _, change := range params.ContentChanges {
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			if elem, exists := h.documents[uri]; exists {
				h.lruList.MoveToFront(elem)
				elem.Value.(*documentEntry).content = textChange.Text
			} else {
				elem := h.lruList.PushFront(&documentEntry{uri: uri, content: textChange.Text})
				h.documents[uri] = elem
			}
		}
	}
	return nil
}

// TextDocumentDidClose handles document close notifications
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	uri := string(params.TextDocument.URI)
	if elem, exists := h.documents[uri]; exists {
		h.lruList.Remove(elem)
		delete(h.documents, uri)
	}
	return nil
}

// TextDocumentCompletion answers completion requests from the kernel.
func (h *Handler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorw("panic in completion handler", "panic", r, "uri", params.TextDocument.URI)
			result = []protocol.CompletionItem{}
			err = nil
		}
	}()

	uri := string(params.TextDocument.URI)

	h.mu.RLock()
	elem, exists := h.documents[uri]
	var text string
	if exists {
		text = elem.Value.(*documentEntry).content
	}
	h.mu.RUnlock()
	if !exists {
		h.logger.Debugw("completion for unopened document", "uri", uri)
		return []protocol.CompletionItem{}, nil
	}

	cursor := positionToOffset(text, params.Position)

	doc := kernel.Document{
		URI:          uri,
		NotebookCell: isNotebookCellURI(uri),
		Text:         text,
	}

	items := h.adapter.ProvideCompletions(context.Background(), doc, cursor)
	return toLSPItems(text, items), nil
}

// toLSPItems converts adapter items to LSP completion items, translating
// byte-offset spans into LSP positions.
func toLSPItems(text string, items []completion.Item) []protocol.CompletionItem {
	out := make([]protocol.CompletionItem, len(items))
	for i, item := range items {
		lspItem := protocol.CompletionItem{
			Label:    item.Label,
			SortText: stringPtr(item.SortText),
		}
		if item.Kind != 0 {
			kind := item.Kind
			lspItem.Kind = &kind
		}
		if item.Range != nil {
			lspItem.TextEdit = protocol.TextEdit{
				Range: protocol.Range{
					Start: offsetToPosition(text, item.Range.Start),
					End:   offsetToPosition(text, item.Range.End),
				},
				NewText: item.Label,
			}
		}
		out[i] = lspItem
	}
	return out
}

// isNotebookCellURI reports whether the URI identifies a notebook cell.
func isNotebookCellURI(uri string) bool {
	return strings.HasPrefix(uri, "vscode-notebook-cell:") || strings.Contains(uri, ".ipynb#")
}

// positionToOffset converts an LSP position to a byte offset in text.
func positionToOffset(text string, pos protocol.Position) int {
	offset := 0
	line := uint32(0)
	for line < pos.Line {
		idx := strings.IndexByte(text[offset:], '\n')
		if idx < 0 {
			return len(text)
		}
		offset += idx + 1
		line++
	}
	offset += int(pos.Character)
	if offset > len(text) {
		return len(text)
	}
	return offset
}

// offsetToPosition converts a byte offset in text to an LSP position.
func offsetToPosition(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	prefix := text[:offset]
	line := strings.Count(prefix, "\n")
	lastNL := strings.LastIndexByte(prefix, '\n')
	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(offset - lastNL - 1),
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func stringPtr(s string) *string {
	return &s
}

func textDocSyncPtr(kind protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &kind
}
