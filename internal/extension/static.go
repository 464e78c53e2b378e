package extension

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// StaticAttachment is an Attachment backed by a fixed value.
type StaticAttachment struct {
	types []string
	value any
	err   error
}

// NewStaticAttachment returns an attachment that declares types and loads
// value. value may be a *url.URL, a string, or anything else (which loads
// as an unexpected shape).
func NewStaticAttachment(types []string, value any) *StaticAttachment {
	return &StaticAttachment{types: types, value: value}
}

// FailingAttachment returns an attachment whose every load fails with err.
func FailingAttachment(types []string, err error) *StaticAttachment {
	return &StaticAttachment{types: types, err: err}
}

// AttachmentFromArg builds an attachment from a command-line argument:
// an absolute URL with a host declares TypeURL, anything else TypePlainText.
func AttachmentFromArg(arg string) *StaticAttachment {
	s := strings.TrimSpace(arg)
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		return NewStaticAttachment([]string{TypeURL}, u)
	}
	return NewStaticAttachment([]string{TypePlainText}, arg)
}

// TypeIdentifiers implements Attachment.
func (a *StaticAttachment) TypeIdentifiers() []string { return a.types }

// Load implements Attachment. A URL load of a string value succeeds only if
// the string parses as an absolute URL; a text load of a URL value yields
// its string form.
func (a *StaticAttachment) Load(ctx context.Context, typeID string) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	if a.err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrLoadFailed, a.err)
	}
	if !HasItemConformingTo(a.types, typeID) {
		return Payload{}, fmt.Errorf("%w: %s not declared", ErrLoadFailed, typeID)
	}
	return Coerce(typeID, a.value)
}

// Coerce narrows a dynamically typed loaded value to a Payload for typeID.
func Coerce(typeID string, value any) (Payload, error) {
	wantURL := Conforms(typeID, TypeURL)
	switch v := value.(type) {
	case *url.URL:
		if v == nil {
			break
		}
		if wantURL {
			return URLPayload(v), nil
		}
		return TextPayload(v.String()), nil
	case string:
		if !wantURL {
			return TextPayload(v), nil
		}
		if u, err := url.Parse(strings.TrimSpace(v)); err == nil && u.IsAbs() {
			return URLPayload(u), nil
		}
	case []byte:
		if !wantURL {
			return TextPayload(string(v)), nil
		}
	}
	return Payload{}, fmt.Errorf("%w: unexpected %T for %s", ErrLoadFailed, value, typeID)
}

// StaticContext is a Context over a fixed attachment list that records how
// it was finished.
type StaticContext struct {
	attachments []Attachment

	mu          sync.Mutex
	completions int
	cancelErr   error
	done        chan struct{}
	once        sync.Once
}

// NewStaticContext returns a context delivering attachments.
func NewStaticContext(attachments ...Attachment) *StaticContext {
	return &StaticContext{attachments: attachments, done: make(chan struct{})}
}

// Attachments implements Context.
func (c *StaticContext) Attachments() []Attachment { return c.attachments }

// CompleteRequest implements Context.
func (c *StaticContext) CompleteRequest() {
	c.mu.Lock()
	c.completions++
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

// CancelRequest implements Context.
func (c *StaticContext) CancelRequest(err error) {
	c.mu.Lock()
	c.cancelErr = err
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

// Done is closed once the request is completed or cancelled.
func (c *StaticContext) Done() <-chan struct{} { return c.done }

// Completions returns how many times CompleteRequest was called.
func (c *StaticContext) Completions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completions
}

// CancelErr returns the error passed to CancelRequest, or nil.
func (c *StaticContext) CancelErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelErr
}
