package completion

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// kernelKinds maps kernel-reported completion type tags onto LSP completion
// item kinds. Tags come from the experimental match schema and are
// kernel-defined; anything unrecognized falls back to Field so the editor
// still renders an icon.
var kernelKinds = map[string]protocol.CompletionItemKind{
	"keyword":   protocol.CompletionItemKindKeyword,
	"function":  protocol.CompletionItemKindFunction,
	"method":    protocol.CompletionItemKindMethod,
	"class":     protocol.CompletionItemKindClass,
	"instance":  protocol.CompletionItemKindReference,
	"module":    protocol.CompletionItemKindModule,
	"property":  protocol.CompletionItemKindProperty,
	"param":     protocol.CompletionItemKindVariable,
	"statement": protocol.CompletionItemKindVariable,
	"path":      protocol.CompletionItemKindFile,
	"magic":     protocol.CompletionItemKindSnippet,
	"value":     protocol.CompletionItemKindValue,
}

// KindForType returns the LSP kind for a kernel completion type tag.
func KindForType(tag string) protocol.CompletionItemKind {
	if kind, ok := kernelKinds[tag]; ok {
		return kind
	}
	return protocol.CompletionItemKindField
}

// KindName returns a human-readable name for a completion item kind.
func KindName(kind protocol.CompletionItemKind) string {
	switch kind {
	case protocol.CompletionItemKindText:
		return "Text"
	case protocol.CompletionItemKindMethod:
		return "Method"
	case protocol.CompletionItemKindFunction:
		return "Function"
	case protocol.CompletionItemKindField:
		return "Field"
	case protocol.CompletionItemKindVariable:
		return "Variable"
	case protocol.CompletionItemKindClass:
		return "Class"
	case protocol.CompletionItemKindModule:
		return "Module"
	case protocol.CompletionItemKindProperty:
		return "Property"
	case protocol.CompletionItemKindValue:
		return "Value"
	case protocol.CompletionItemKindKeyword:
		return "Keyword"
	case protocol.CompletionItemKindSnippet:
		return "Snippet"
	case protocol.CompletionItemKindFile:
		return "File"
	case protocol.CompletionItemKindReference:
		return "Reference"
	default:
		return "Unknown"
	}
}
