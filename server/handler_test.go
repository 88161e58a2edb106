package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/nbforge/kernelbridge/completion"
	"github.com/nbforge/kernelbridge/kernel"
)

// nullResolver never resolves a notebook, so the adapter yields no items.
type nullResolver struct{}

func (nullResolver) NotebookFor(string) *kernel.Notebook { return nil }

type nullProvider struct{}

func (nullProvider) KernelFor(kernel.Notebook) kernel.Kernel { return nil }

func newTestHandler(t *testing.T, maxDocuments int) *Handler {
	t.Helper()

	adapter := completion.NewAdapter(completion.Config{
		Resolver: nullResolver{},
		Kernels:  nullProvider{},
	})
	return NewHandler(adapter, maxDocuments, nil)
}

func openDocument(t *testing.T, h *Handler, uri, text string) {
	t.Helper()
	err := h.TextDocumentDidOpen(nil, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:  protocol.DocumentUri(uri),
			Text: text,
		},
	})
	require.NoError(t, err)
}

func TestInitialize_AdvertisesCompletion(t *testing.T) {
	h := newTestHandler(t, 0)

	result, err := h.Initialize(nil, &protocol.InitializeParams{})
	require.NoError(t, err)

	initResult, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, initResult.Capabilities.CompletionProvider)
	assert.Equal(t, []string{".", "%"}, initResult.Capabilities.CompletionProvider.TriggerCharacters)
	require.NotNil(t, initResult.ServerInfo)
	assert.Equal(t, serverName, initResult.ServerInfo.Name)
}

func TestDocumentCache_OpenChangeClose(t *testing.T) {
	h := newTestHandler(t, 10)
	uri := "file:///nb.ipynb#cell0"

	openDocument(t, h, uri, "import os")
	assert.Len(t, h.documents, 1)

	err := h.TextDocumentDidChange(nil, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(uri)},
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEventWhole{Text: "import sys"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "import sys", h.documents[uri].Value.(*documentEntry).content)

	err = h.TextDocumentDidClose(nil, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(uri)},
	})
	require.NoError(t, err)
	assert.Empty(t, h.documents)
}

func TestDocumentCache_EvictsLeastRecentlyUsed(t *testing.T) {
	h := newTestHandler(t, 2)

	openDocument(t, h, "file:///a.ipynb#0", "a")
	openDocument(t, h, "file:///b.ipynb#0", "b")

	// Touch a so b becomes the eviction candidate
	openDocument(t, h, "file:///a.ipynb#0", "a2")

	openDocument(t, h, "file:///c.ipynb#0", "c")

	assert.Len(t, h.documents, 2)
	assert.Contains(t, h.documents, "file:///a.ipynb#0")
	assert.Contains(t, h.documents, "file:///c.ipynb#0")
	assert.NotContains(t, h.documents, "file:///b.ipynb#0")
}

func TestTextDocumentCompletion_UnopenedDocument(t *testing.T) {
	h := newTestHandler(t, 10)

	result, err := h.TextDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///unknown.ipynb#0"},
			Position:     protocol.Position{Line: 0, Character: 0},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestTextDocumentCompletion_NoKernelYieldsEmpty(t *testing.T) {
	h := newTestHandler(t, 10)
	uri := "file:///nb.ipynb#cell0"
	openDocument(t, h, uri, "os.envi")

	result, err := h.TextDocumentCompletion(nil, &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(uri)},
			Position:     protocol.Position{Line: 0, Character: 7},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestToLSPItems(t *testing.T) {
	text := "x.ab"
	items := []completion.Item{
		{Label: "abcd", Range: &completion.Span{Start: 2, End: 4}, Kind: protocol.CompletionItemKindReference, SortText: "AA"},
		{Label: "os.environ", SortText: "AB"},
	}

	out := toLSPItems(text, items)
	require.Len(t, out, 2)

	first := out[0]
	assert.Equal(t, "abcd", first.Label)
	require.NotNil(t, first.Kind)
	assert.Equal(t, protocol.CompletionItemKindReference, *first.Kind)
	require.NotNil(t, first.SortText)
	assert.Equal(t, "AA", *first.SortText)
	edit, ok := first.TextEdit.(protocol.TextEdit)
	require.True(t, ok)
	assert.Equal(t, protocol.Position{Line: 0, Character: 2}, edit.Range.Start)
	assert.Equal(t, protocol.Position{Line: 0, Character: 4}, edit.Range.End)
	assert.Equal(t, "abcd", edit.NewText)

	second := out[1]
	assert.Equal(t, "os.environ", second.Label)
	assert.Nil(t, second.Kind)
	assert.Nil(t, second.TextEdit)
}

func TestIsNotebookCellURI(t *testing.T) {
	tests := []struct {
		uri      string
		expected bool
	}{
		{"vscode-notebook-cell:/work/nb.ipynb#ch0000001", true},
		{"file:///work/nb.ipynb#cell2", true},
		{"file:///work/script.py", false},
		{"file:///work/nb.ipynb", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, isNotebookCellURI(tt.uri), "uri %q", tt.uri)
	}
}

func TestPositionOffsetConversion(t *testing.T) {
	text := "import os\nos.envi\n"

	tests := []struct {
		pos    protocol.Position
		offset int
	}{
		{protocol.Position{Line: 0, Character: 0}, 0},
		{protocol.Position{Line: 0, Character: 6}, 6},
		{protocol.Position{Line: 1, Character: 0}, 10},
		{protocol.Position{Line: 1, Character: 7}, 17},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.offset, positionToOffset(text, tt.pos), "position %+v", tt.pos)
		assert.Equal(t, tt.pos, offsetToPosition(text, tt.offset), "offset %d", tt.offset)
	}
}

func TestPositionToOffset_Clamps(t *testing.T) {
	text := "abc"
	assert.Equal(t, 3, positionToOffset(text, protocol.Position{Line: 5, Character: 0}))
	assert.Equal(t, 3, positionToOffset(text, protocol.Position{Line: 0, Character: 99}))
	assert.Equal(t, protocol.Position{Line: 0, Character: 3}, offsetToPosition(text, 99))
}
