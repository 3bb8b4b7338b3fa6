package source

import (
	"encoding/json"
	"io"
	"os"

	"github.com/vango-dev/elemtree/internal/errors"
)

// Document is a decoded tree description.
type Document struct {
	Roots []Node `json:"roots"`
}

// Node is one element of a tree description.
type Node struct {
	Kind     string          `json:"kind"`
	Props    json.RawMessage `json:"props,omitempty"`
	Children []Node          `json:"children,omitempty"`
}

// Count returns the number of nodes in the document.
func (d *Document) Count() int {
	n := 0
	for i := range d.Roots {
		n += d.Roots[i].count()
	}
	return n
}

func (n *Node) count() int {
	c := 1
	for i := range n.Children {
		c += n.Children[i].count()
	}
	return c
}

// Decode reads a Document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.New("E221").Wrap(err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	for i := range d.Roots {
		if err := d.Roots[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) validate() error {
	if n.Kind == "" {
		return errors.New("E221").WithDetail(`Every node needs a non-empty "kind".`)
	}
	for i := range n.Children {
		if err := n.Children[i].validate(); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile reads a Document from a local file.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E220").WithDetail("No file at " + path).Wrap(err)
		}
		return nil, errors.New("E220").Wrap(err)
	}
	defer f.Close()
	return Decode(f)
}
