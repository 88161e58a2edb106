package kernel

import "strings"

// CellResolver resolves a cell document's owning notebook from the cell URI
// alone. Notebook cell URIs carry the notebook path plus a cell fragment;
// anything else resolves to no notebook.
type CellResolver struct{}

var _ NotebookResolver = CellResolver{}

// NotebookFor strips the cell fragment from a notebook cell URI.
func (CellResolver) NotebookFor(documentURI string) *Notebook {
	const marker = ".ipynb#"

	uri := strings.TrimPrefix(documentURI, "vscode-notebook-cell:")
	if i := strings.Index(uri, marker); i >= 0 {
		return &Notebook{URI: uri[:i+len(".ipynb")]}
	}
	return nil
}
