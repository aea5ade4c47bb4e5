package template

import "strings"

// Header is a single name/value pair. The name keeps its original case.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list compared case-insensitively by name.
type Headers []Header

// Index returns the position of the first header named name, or -1.
func (h Headers) Index(name string) int {
	for i, hdr := range h {
		if strings.EqualFold(hdr.Name, name) {
			return i
		}
	}
	return -1
}

// Get returns the value of the first header named name.
func (h Headers) Get(name string) (string, bool) {
	if i := h.Index(name); i >= 0 {
		return h[i].Value, true
	}
	return "", false
}

// Has reports whether a header named name is present.
func (h Headers) Has(name string) bool { return h.Index(name) >= 0 }

// Clone returns an independent copy.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	out := make(Headers, len(h))
	copy(out, h)
	return out
}
