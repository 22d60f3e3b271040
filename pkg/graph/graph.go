package graph

import (
	"bytes"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/matzehuels/flowguide/pkg/errors"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// ReadGraphFile reads and validates a graph document from a JSON file.
// A missing file yields [errors.ErrCodeFileNotFound]; an unreadable,
// unparseable or structurally invalid document yields [errors.ErrCodeInvalidGraph].
func ReadGraphFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Graph{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "graph file %s not found", path)
		}
		return Graph{}, errors.Wrap(errors.ErrCodeInvalidGraph, err, "open %s", path)
	}
	defer f.Close()
	return ReadGraph(f)
}

// ReadGraph decodes and validates a graph document from r.
func ReadGraph(r io.Reader) (Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return Graph{}, errors.Wrap(errors.ErrCodeInvalidGraph, err, "decode graph")
	}
	if err := g.Validate(); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// UnmarshalGraph decodes and validates a graph document held in memory.
func UnmarshalGraph(data []byte) (Graph, error) {
	return ReadGraph(bytes.NewReader(data))
}

// MarshalGraph encodes a graph as indented JSON.
func MarshalGraph(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes a graph as indented JSON to w.
func WriteGraph(g Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode graph")
	}
	return nil
}
