// Package hypermedia builds Mason documents: resource state plus the
// controls a client may follow from it.
package hypermedia

import (
	"encoding/json"
	"maps"
	"strings"
)

const (
	// MediaType is served for every resource and error document.
	MediaType = "application/vnd.mason+json"
	// Namespace prefixes the gateway's own link relations.
	Namespace = "crypto"
	// LinkRelationsPath is the namespace URI advertised in @namespaces.
	LinkRelationsPath = "/link-relations/"
)

// Control is one hypermedia control. Method is empty for plain GET links.
type Control struct {
	Href           string  `json:"href"`
	IsHrefTemplate bool    `json:"isHrefTemplate,omitempty"`
	Method         string  `json:"method,omitempty"`
	Encoding       string  `json:"encoding,omitempty"`
	Title          string  `json:"title,omitempty"`
	Schema         *Schema `json:"schema,omitempty"`
}

// Edge names a control by its link relation.
type Edge struct {
	Rel     string
	Control Control
}

// ErrorInfo is the Mason @error block.
type ErrorInfo struct {
	Message  string   `json:"@message"`
	Messages []string `json:"@messages,omitempty"`
	Status   int      `json:"@httpStatusCode,omitempty"`
}

// Document is an immutable Mason document. Builders return new values and
// never modify the receiver.
type Document struct {
	data     map[string]any
	controls map[string]Control
	items    []Document
	hasItems bool
	err      *ErrorInfo
}

// New returns a document holding a copy of data.
func New(data map[string]any) Document {
	return Document{data: maps.Clone(data)}
}

// With returns a copy of d with the given edges attached.
func (d Document) With(edges ...Edge) Document {
	out := d
	out.controls = make(map[string]Control, len(d.controls)+len(edges))
	maps.Copy(out.controls, d.controls)
	for _, e := range edges {
		out.controls[e.Rel] = e.Control
	}
	return out
}

// WithItems returns a copy of d listing items. An empty call still renders
// an empty items array.
func (d Document) WithItems(items ...Document) Document {
	out := d
	out.items = append([]Document(nil), items...)
	out.hasItems = true
	return out
}

// Data returns a copy of the document's fields.
func (d Document) Data() map[string]any { return maps.Clone(d.data) }

// Control looks up the control attached under rel.
func (d Document) Control(rel string) (Control, bool) {
	c, ok := d.controls[rel]
	return c, ok
}

// Rels returns the attached link relations.
func (d Document) Rels() []string {
	rels := make([]string, 0, len(d.controls))
	for rel := range d.controls {
		rels = append(rels, rel)
	}
	return rels
}

// Items returns a copy of the listed items.
func (d Document) Items() []Document { return append([]Document(nil), d.items...) }

// Error returns the @error block, if any.
func (d Document) Error() *ErrorInfo { return d.err }

// MarshalJSON renders Mason: data fields inlined next to @controls,
// @namespaces, @error and items.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.data)+4)
	maps.Copy(out, d.data)
	if len(d.controls) > 0 {
		out["@controls"] = d.controls
		for rel := range d.controls {
			if strings.HasPrefix(rel, Namespace+":") {
				out["@namespaces"] = map[string]any{
					Namespace: map[string]string{"name": LinkRelationsPath},
				}
				break
			}
		}
	}
	if d.hasItems {
		items := d.items
		if items == nil {
			items = []Document{}
		}
		out["items"] = items
	}
	if d.err != nil {
		out["@error"] = d.err
	}
	return json.Marshal(out)
}

// ErrorDocument describes a failed request on resourceURL.
func ErrorDocument(status int, title, message, resourceURL string) Document {
	d := New(map[string]any{"resource_url": resourceURL})
	info := &ErrorInfo{Message: title, Status: status}
	if message != "" {
		info.Messages = []string{message}
	}
	d.err = info
	return d
}
