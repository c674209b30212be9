package host

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/store"
	"github.com/wippyai/wasm-bridge/wire"
)

// Node is the payload of Node values: a selection and the document URL
// relative links resolve against.
type Node struct {
	Selection *goquery.Selection
	Base      *url.URL
}

// HTML is the "html" module. Documents and selections are Node values; text
// results are String values and absent attributes are Null.
type HTML struct{}

func (HTML) Namespace() string { return "html" }

func (HTML) Parse(data wire.Lent) (*store.Value, error) {
	return parseDocument(data, "")
}

// ParseWithURI parses data and remembers uri for AbsURL.
func (HTML) ParseWithURI(data wire.Lent, uri wire.LentStr) (*store.Value, error) {
	return parseDocument(data, strings.Clone(string(uri)))
}

func parseDocument(data []byte, uri string) (*store.Value, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindEncoding, err, "parse html")
	}
	n := &Node{Selection: doc.Selection}
	if uri != "" {
		base, err := url.Parse(uri)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "document uri")
		}
		doc.Url = base
		n.Base = base
	}
	return store.NewNode(n), nil
}

// Select finds the descendants of h matching a CSS selector. An invalid
// selector is the failure sentinel; no match is an empty selection.
func (HTML) Select(s *store.Store, h wire.Ref, selector wire.LentStr) (*store.Value, error) {
	n, err := nodeOf(s, h)
	if err != nil {
		return nil, err
	}
	m, err := cascadia.Compile(strings.Clone(string(selector)))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "css selector")
	}
	return n.derive(n.Selection.FindMatcher(m)), nil
}

// Attr reads an attribute of the first node in the selection.
func (HTML) Attr(s *store.Store, h wire.Ref, name wire.LentStr) (*store.Value, error) {
	n, err := nodeOf(s, h)
	if err != nil {
		return nil, err
	}
	val, ok := n.Selection.Attr(string(name))
	if !ok {
		return nil, nil
	}
	return store.NewString(val), nil
}

// Text returns the combined text of the selection.
func (HTML) Text(s *store.Store, h wire.Ref) (*store.Value, error) {
	n, err := nodeOf(s, h)
	if err != nil {
		return nil, err
	}
	return store.NewString(n.Selection.Text()), nil
}

// HTML renders the first node of the selection including its own tag.
func (HTML) HTML(s *store.Store, h wire.Ref) (*store.Value, error) {
	n, err := nodeOf(s, h)
	if err != nil {
		return nil, err
	}
	out, err := goquery.OuterHtml(n.Selection)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindEncoding, err, "render html")
	}
	return store.NewString(out), nil
}

func (HTML) First(s *store.Store, h wire.Ref) (*store.Value, error) {
	n, err := nodeOf(s, h)
	if err != nil {
		return nil, err
	}
	return n.derive(n.Selection.First()), nil
}

func (HTML) Last(s *store.Store, h wire.Ref) (*store.Value, error) {
	n, err := nodeOf(s, h)
	if err != nil {
		return nil, err
	}
	return n.derive(n.Selection.Last()), nil
}

// Array splits the selection into an Array of single-node selections.
func (HTML) Array(s *store.Store, h wire.Ref) (*store.Value, error) {
	n, err := nodeOf(s, h)
	if err != nil {
		return nil, err
	}
	arr := store.NewArray()
	for _, sel := range n.Selection.EachIter() {
		arr.Append(n.derive(sel))
	}
	return arr, nil
}

// AbsURL reads an attribute and resolves it against the document URL.
func (HTML) AbsURL(s *store.Store, h wire.Ref, attr wire.LentStr) (*store.Value, error) {
	n, err := nodeOf(s, h)
	if err != nil {
		return nil, err
	}
	val, ok := n.Selection.Attr(string(attr))
	if !ok {
		return nil, nil
	}
	u, err := url.Parse(strings.TrimSpace(val))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidData, err, "attribute url")
	}
	if n.Base != nil {
		u = n.Base.ResolveReference(u)
	}
	return store.NewString(u.String()), nil
}

func (n *Node) derive(sel *goquery.Selection) *store.Value {
	return store.NewNode(&Node{Selection: sel, Base: n.Base})
}

func nodeOf(s *store.Store, h wire.Ref) (*Node, error) {
	if h == wire.NullRef {
		return nil, errors.NullValue("html")
	}
	v, ok := s.Get(h)
	if !ok {
		return nil, deadHandle(h)
	}
	n, ok := v.Payload().(*Node)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseHost, wire.KindNode.String(), v.Kind().String())
	}
	return n, nil
}
