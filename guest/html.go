//go:build wasip1

package guest

import (
	"iter"

	"github.com/wippyai/wasm-bridge/handle"
)

// Selection is a set of HTML nodes held by the host.
type Selection struct {
	h *handle.Handle
}

// ParseHTML parses a document. With a non-empty uri, AbsURL resolves
// against it.
func ParseHTML(doc []byte, uri string) (*Selection, error) {
	p, n := bytesPtr(doc)
	if uri == "" {
		return selection(htmlParse(p, n))
	}
	up, un := stringPtr(uri)
	return selection(htmlParseWithURI(p, n, up, un))
}

func selection(ref int32) (*Selection, error) {
	h, err := Wrap(ref)
	if err != nil {
		return nil, err
	}
	if _, err := h.AsNode(); err != nil {
		h.Release()
		return nil, err
	}
	return &Selection{h: h}, nil
}

func (s *Selection) ref() int32 { return int32(s.h.Ref()) }

// Release drops the selection. Selections derived from it stay valid.
func (s *Selection) Release() { s.h.Release() }

func (s *Selection) Select(css string) (*Selection, error) {
	p, n := stringPtr(css)
	return selection(htmlSelect(s.ref(), p, n))
}

func (s *Selection) First() (*Selection, error) { return selection(htmlFirst(s.ref())) }

func (s *Selection) Last() (*Selection, error) { return selection(htmlLast(s.ref())) }

// Attr reads an attribute of the first node.
func (s *Selection) Attr(name string) (string, bool) {
	p, n := stringPtr(name)
	ref := htmlAttr(s.ref(), p, n)
	if ref == 0 {
		return "", false
	}
	v, err := text(ref)
	return v, err == nil
}

// AbsURL reads an attribute and resolves it against the document URI.
func (s *Selection) AbsURL(attr string) (string, bool) {
	p, n := stringPtr(attr)
	ref := htmlAbsURL(s.ref(), p, n)
	if ref == 0 {
		return "", false
	}
	v, err := text(ref)
	return v, err == nil
}

func (s *Selection) Text() (string, error) { return text(htmlText(s.ref())) }

func (s *Selection) HTML() (string, error) { return text(htmlHTML(s.ref())) }

// Each yields every node of the selection as its own Selection, released
// after the loop body returns.
func (s *Selection) Each() iter.Seq2[int, *Selection] {
	return func(yield func(int, *Selection) bool) {
		arr, err := Wrap(htmlArray(s.ref()))
		if err != nil {
			return
		}
		a, err := arr.AsArray()
		if err != nil {
			arr.Release()
			return
		}
		defer a.Release()
		for i, h := range a.All() {
			node := &Selection{h: h}
			ok := yield(i, node)
			node.Release()
			if !ok {
				return
			}
		}
	}
}
