// Package extension models the share-extension host: the context a share
// action delivers, its attachments, and the payloads they load.
//
// The OS host is consumed only through Context and Attachment. StaticContext
// and StaticAttachment are in-process implementations used by the CLI and
// by tests.
package extension

import (
	"context"
	"errors"
	"net/url"
	"slices"
)

// Uniform type identifiers understood by the ingestion path.
const (
	TypeURL           = "public.url"
	TypeFileURL       = "public.file-url"
	TypeText          = "public.text"
	TypePlainText     = "public.plain-text"
	TypeUTF8PlainText = "public.utf8-plain-text"
	TypeUTF16Text     = "public.utf16-plain-text"
	TypeImage         = "public.image"
)

// Sentinel errors for attachment loading.
var (
	// ErrLoadFailed marks a load that errored or produced a payload of the
	// wrong shape for the requested type.
	ErrLoadFailed = errors.New("attachment load failed")
	// ErrUnsupported marks an attachment with no URL or text representation.
	ErrUnsupported = errors.New("unsupported attachment")
)

// conformsTo lists, per identifier, the identifiers it conforms to.
var conformsTo = map[string][]string{
	TypeFileURL:       {TypeURL},
	TypePlainText:     {TypeText},
	TypeUTF8PlainText: {TypePlainText, TypeText},
	TypeUTF16Text:     {TypePlainText, TypeText},
}

// Conforms reports whether identifier declared satisfies wanted, either by
// equality or through the conformance table.
func Conforms(declared, wanted string) bool {
	if declared == wanted {
		return true
	}
	return slices.Contains(conformsTo[declared], wanted)
}

// HasItemConformingTo reports whether any identifier in declared satisfies wanted.
func HasItemConformingTo(declared []string, wanted string) bool {
	for _, d := range declared {
		if Conforms(d, wanted) {
			return true
		}
	}
	return false
}

// Kind tags a Payload.
type Kind int

// Payload kinds.
const (
	KindUnsupported Kind = iota
	KindURL
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindText:
		return "text"
	default:
		return "unsupported"
	}
}

// Payload is the narrowed result of loading an attachment.
// Exactly one of URL or Text is meaningful, selected by Kind.
type Payload struct {
	Kind Kind
	URL  *url.URL
	Text string
}

// URLPayload wraps u.
func URLPayload(u *url.URL) Payload { return Payload{Kind: KindURL, URL: u} }

// TextPayload wraps s.
func TextPayload(s string) Payload { return Payload{Kind: KindText, Text: s} }

// String returns the string form stored in a SharedItem: the absolute URL
// for KindURL, the verbatim text for KindText, and "" otherwise.
func (p Payload) String() string {
	switch p.Kind {
	case KindURL:
		if p.URL == nil {
			return ""
		}
		return p.URL.String()
	case KindText:
		return p.Text
	default:
		return ""
	}
}

// Attachment is one unit of shared content.
type Attachment interface {
	// TypeIdentifiers returns the declared type identifiers, in the order
	// the provider registered them.
	TypeIdentifiers() []string
	// Load asynchronously loads the representation for typeID. It blocks
	// until the value is available, ctx ends, or loading fails.
	Load(ctx context.Context, typeID string) (Payload, error)
}

// Context is the inbound share context plus the outbound completion signal.
type Context interface {
	Attachments() []Attachment
	// CompleteRequest signals the host that the extension finished.
	CompleteRequest()
	// CancelRequest signals the host that the user cancelled.
	CancelRequest(err error)
}
