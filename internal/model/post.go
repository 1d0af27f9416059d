package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

var errEmptyPayload = errors.New("model: empty payload")

// Field errors reported by Post accessors.
var (
	ErrFieldMissing = errors.New("field is missing")
	ErrNotRendered  = errors.New("field is not a rendered object")
)

// Post is one element of a successful posts listing. Only the fields the
// viewer consumes are kept, and they stay raw: any well-formed body decodes,
// and a field of the wrong shape is only an error when something reads it.
type Post struct {
	ID       json.RawMessage `json:"id,omitempty"`
	GUID     json.RawMessage `json:"guid,omitempty"`
	Title    json.RawMessage `json:"title,omitempty"`
	Modified json.RawMessage `json:"modified,omitempty"`
}

// Link returns guid.rendered.
func (p Post) Link() (string, error) {
	return rendered(p.GUID)
}

// TitleMarkup returns title.rendered.
func (p Post) TitleMarkup() (string, error) {
	return rendered(p.Title)
}

func rendered(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return "", ErrFieldMissing
	}
	if raw[0] != '{' {
		return "", ErrNotRendered
	}
	var wrapper struct {
		Rendered json.RawMessage `json:"rendered"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return "", err
	}
	if isNull(wrapper.Rendered) {
		return "", ErrNotRendered
	}
	return Text(wrapper.Rendered), nil
}

// APIError is the object WordPress returns instead of a listing when the
// request is logically invalid (unknown site, bad per_page, ...). HTTP may
// still have succeeded. Code is a string on wp/v2 routes and a number on
// some WordPress.com endpoints, so the fields stay raw; read them with Text.
type APIError struct {
	Code    json.RawMessage `json:"code,omitempty"`
	Message json.RawMessage `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Text returns a JSON value as display text: strings unquoted, null as the
// empty string, anything else as its JSON text.
func Text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// Payload is the parsed body of a posts request. Exactly one of Posts or
// Error is populated for array and object bodies respectively; both stay nil
// for a JSON null or scalar.
type Payload struct {
	Posts []Post
	Error *APIError
}

// UnmarshalJSON dispatches on the first significant byte of the body. It
// fails only on malformed JSON. List elements that are not objects decode
// to an empty Post.
func (p *Payload) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimLeft(b, " \t\r\n")
	if len(trimmed) == 0 {
		return errEmptyPayload
	}

	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return err
		}
		posts := make([]Post, len(elems))
		for i, elem := range elems {
			if len(elem) == 0 || elem[0] != '{' {
				continue
			}
			if err := json.Unmarshal(elem, &posts[i]); err != nil {
				return err
			}
		}
		p.Posts = posts
	case '{':
		var apiErr APIError
		if err := json.Unmarshal(trimmed, &apiErr); err != nil {
			return err
		}
		p.Error = &apiErr
	default:
		var discard any
		if err := json.Unmarshal(trimmed, &discard); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON writes the payload back in the shape it was received.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch {
	case p.Posts != nil:
		return json.Marshal(p.Posts)
	case p.Error != nil:
		return json.Marshal(p.Error)
	default:
		return []byte("null"), nil
	}
}

// LogicalFailure reports whether the payload carries a truthy nested data
// value whose status is not the number 200, and returns that status as
// display text. A status that is absent, null, or boolean shows as empty
// text; a string status such as "200" is still a failure.
func (p *Payload) LogicalFailure() (string, bool) {
	if p == nil || p.Error == nil || !truthy(p.Error.Data) {
		return "", false
	}

	data := bytes.TrimSpace(p.Error.Data)
	if data[0] != '{' {
		return "", true
	}
	var nested struct {
		Status json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return "", true
	}

	status := bytes.TrimSpace(nested.Status)
	if isNull(status) {
		return "", true
	}
	switch status[0] {
	case 't', 'f':
		return "", true
	case '"', '{', '[':
		return Text(status), true
	}
	if n, err := strconv.ParseFloat(string(status), 64); err == nil && n == 200 {
		return "", false
	}
	return string(status), true
}

// truthy follows JavaScript truthiness for a decoded JSON value.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return false
	}
	switch raw[0] {
	case '{', '[', 't':
		return true
	case 'f':
		return false
	case '"':
		return Text(raw) != ""
	}
	n, err := strconv.ParseFloat(string(raw), 64)
	return err == nil && n != 0
}

// PostList returns the posts the list renderer should receive. Error-shaped
// and empty payloads yield nil.
func (p *Payload) PostList() []Post {
	if p == nil {
		return nil
	}
	return p.Posts
}
