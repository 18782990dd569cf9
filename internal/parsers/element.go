// Package parsers turns compendium XML elements into structured records.
// Parsers never perform I/O and never fail on a well-formed element; only a
// missing name is an error.
package parsers

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/KirkDiggler/rpg-compendium/internal/errors"
)

// Element is a generic XML node: a tag with attributes, text, and children
type Element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []Element  `xml:",any"`
}

// Tag returns the element's local name
func (e *Element) Tag() string {
	return e.XMLName.Local
}

// Text returns the element's own text, trimmed
func (e *Element) Text() string {
	return strings.TrimSpace(e.Content)
}

// Attr returns an attribute value
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child returns the first child with the given tag
func (e *Element) Child(tag string) (*Element, bool) {
	for i := range e.Children {
		if e.Children[i].XMLName.Local == tag {
			return &e.Children[i], true
		}
	}
	return nil, false
}

// ChildrenNamed returns every child with the given tag, in document order
func (e *Element) ChildrenNamed(tag string) []*Element {
	var out []*Element
	for i := range e.Children {
		if e.Children[i].XMLName.Local == tag {
			out = append(out, &e.Children[i])
		}
	}
	return out
}

// Field returns the trimmed text of the first child with the given tag.
// ok is false when the tag is absent.
func (e *Element) Field(tag string) (string, bool) {
	if tag == "" {
		return "", false
	}
	child, ok := e.Child(tag)
	if !ok {
		return "", false
	}
	return child.Text(), true
}

// Fields returns the text of every child with the given tag
func (e *Element) Fields(tag string) []string {
	var out []string
	for _, child := range e.ChildrenNamed(tag) {
		out = append(out, child.Text())
	}
	return out
}

// ReadElements streams an XML document and returns every element whose tag
// is one of tags, in document order. Matching elements are not searched for
// nested matches.
func ReadElements(r io.Reader, tags ...string) ([]Element, error) {
	wanted := make(map[string]bool, len(tags))
	for _, t := range tags {
		wanted[t] = true
	}

	dec := xml.NewDecoder(r)
	// compendium exports use HTML entities such as &nbsp; in prose
	dec.Entity = xml.HTMLEntity

	var elements []Element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return elements, nil
		}
		if err != nil {
			return elements, errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to read compendium xml")
		}

		start, ok := tok.(xml.StartElement)
		if !ok || !wanted[start.Name.Local] {
			continue
		}

		var el Element
		if err := dec.DecodeElement(&el, &start); err != nil {
			return elements, errors.WrapWithCodef(err, errors.CodeInvalidArgument,
				"failed to decode <%s> element %d", start.Name.Local, len(elements)+1)
		}
		elements = append(elements, el)
	}
}

// ParseElement decodes a single XML fragment such as "<spell>...</spell>"
func ParseElement(fragment string) (*Element, error) {
	var el Element
	dec := xml.NewDecoder(strings.NewReader(fragment))
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(&el); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to decode xml fragment")
	}
	return &el, nil
}
