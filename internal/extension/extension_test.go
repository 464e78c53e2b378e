package extension_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/contentvault/internal/extension"
)

func mustURL(c *qt.C, s string) *url.URL {
	u, err := url.Parse(s)
	c.Assert(err, qt.IsNil)
	return u
}

func TestConforms_HappyPath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name     string
		declared string
		wanted   string
		want     bool
	}{
		{"identical", extension.TypeURL, extension.TypeURL, true},
		{"file url is a url", extension.TypeFileURL, extension.TypeURL, true},
		{"utf8 text is plain text", extension.TypeUTF8PlainText, extension.TypePlainText, true},
		{"utf16 text is plain text", extension.TypeUTF16Text, extension.TypePlainText, true},
		{"plain text is not a url", extension.TypePlainText, extension.TypeURL, false},
		{"url is not plain text", extension.TypeURL, extension.TypePlainText, false},
		{"image is neither", extension.TypeImage, extension.TypePlainText, false},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(extension.Conforms(tc.declared, tc.wanted), qt.Equals, tc.want)
		})
	}

	c.Run("any declared identifier may match", func(c *qt.C) {
		declared := []string{extension.TypeImage, extension.TypeUTF8PlainText}
		c.Assert(extension.HasItemConformingTo(declared, extension.TypePlainText), qt.IsTrue)
		c.Assert(extension.HasItemConformingTo(declared, extension.TypeURL), qt.IsFalse)
		c.Assert(extension.HasItemConformingTo(nil, extension.TypeURL), qt.IsFalse)
	})
}

func TestPayloadString_HappyPath(t *testing.T) {
	c := qt.New(t)
	c.Assert(extension.URLPayload(mustURL(c, "https://youtu.be/abc")).String(), qt.Equals, "https://youtu.be/abc")
	c.Assert(extension.TextPayload("  hi  ").String(), qt.Equals, "  hi  ")
	c.Assert(extension.Payload{}.String(), qt.Equals, "")
	c.Assert(extension.Payload{Kind: extension.KindURL}.String(), qt.Equals, "")
	c.Assert(extension.KindURL.String(), qt.Equals, "url")
	c.Assert(extension.KindText.String(), qt.Equals, "text")
	c.Assert(extension.KindUnsupported.String(), qt.Equals, "unsupported")
}

func TestCoerce_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("url value for url type", func(c *qt.C) {
		p, err := extension.Coerce(extension.TypeURL, mustURL(c, "https://x.com/a"))
		c.Assert(err, qt.IsNil)
		c.Assert(p.Kind, qt.Equals, extension.KindURL)
		c.Assert(p.String(), qt.Equals, "https://x.com/a")
	})

	c.Run("absolute url string for url type", func(c *qt.C) {
		p, err := extension.Coerce(extension.TypeURL, "https://threads.net/p")
		c.Assert(err, qt.IsNil)
		c.Assert(p.Kind, qt.Equals, extension.KindURL)
	})

	c.Run("string for text type is verbatim", func(c *qt.C) {
		p, err := extension.Coerce(extension.TypePlainText, "look https://youtu.be/x")
		c.Assert(err, qt.IsNil)
		c.Assert(p, qt.DeepEquals, extension.TextPayload("look https://youtu.be/x"))
	})

	c.Run("bytes for text type", func(c *qt.C) {
		p, err := extension.Coerce(extension.TypeUTF8PlainText, []byte("raw"))
		c.Assert(err, qt.IsNil)
		c.Assert(p.Text, qt.Equals, "raw")
	})

	c.Run("url value for text type is its string form", func(c *qt.C) {
		p, err := extension.Coerce(extension.TypePlainText, mustURL(c, "https://example.com"))
		c.Assert(err, qt.IsNil)
		c.Assert(p, qt.DeepEquals, extension.TextPayload("https://example.com"))
	})
}

func TestCoerce_FailurePath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name   string
		typeID string
		value  any
	}{
		{"relative string for url type", extension.TypeURL, "not a url"},
		{"number for text type", extension.TypePlainText, 42},
		{"nil value", extension.TypePlainText, nil},
		{"nil url", extension.TypeURL, (*url.URL)(nil)},
		{"bytes for url type", extension.TypeURL, []byte("https://x.com")},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			_, err := extension.Coerce(tc.typeID, tc.value)
			c.Assert(errors.Is(err, extension.ErrLoadFailed), qt.IsTrue)
		})
	}
}

func TestStaticAttachment_Load(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("declared type loads", func(c *qt.C) {
		a := extension.NewStaticAttachment([]string{extension.TypeURL}, mustURL(c, "https://example.com"))
		p, err := a.Load(ctx, extension.TypeURL)
		c.Assert(err, qt.IsNil)
		c.Assert(p.Kind, qt.Equals, extension.KindURL)
	})

	c.Run("undeclared type fails", func(c *qt.C) {
		a := extension.NewStaticAttachment([]string{extension.TypeImage}, "x")
		_, err := a.Load(ctx, extension.TypePlainText)
		c.Assert(errors.Is(err, extension.ErrLoadFailed), qt.IsTrue)
	})

	c.Run("failing attachment wraps cause", func(c *qt.C) {
		cause := errors.New("provider crashed")
		a := extension.FailingAttachment([]string{extension.TypeURL}, cause)
		_, err := a.Load(ctx, extension.TypeURL)
		c.Assert(errors.Is(err, extension.ErrLoadFailed), qt.IsTrue)
		c.Assert(errors.Is(err, cause), qt.IsTrue)
	})

	c.Run("cancelled context", func(c *qt.C) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		a := extension.NewStaticAttachment([]string{extension.TypePlainText}, "x")
		_, err := a.Load(cctx, extension.TypePlainText)
		c.Assert(errors.Is(err, context.Canceled), qt.IsTrue)
	})
}

func TestAttachmentFromArg_HappyPath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name      string
		arg       string
		wantTypes []string
	}{
		{"https url", "https://youtu.be/abc", []string{extension.TypeURL}},
		{"url with spaces trimmed", "  https://x.com/a  ", []string{extension.TypeURL}},
		{"plain words", "remember the milk", []string{extension.TypePlainText}},
		{"scheme without host", "mailto:someone@example.com", []string{extension.TypePlainText}},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			a := extension.AttachmentFromArg(tc.arg)
			c.Assert(a.TypeIdentifiers(), qt.DeepEquals, tc.wantTypes)
		})
	}
}

func TestStaticContext_Signals(t *testing.T) {
	c := qt.New(t)

	c.Run("complete closes done", func(c *qt.C) {
		ext := extension.NewStaticContext()
		ext.CompleteRequest()
		<-ext.Done()
		c.Assert(ext.Completions(), qt.Equals, 1)
		c.Assert(ext.CancelErr(), qt.IsNil)
	})

	c.Run("cancel records error", func(c *qt.C) {
		ext := extension.NewStaticContext()
		cause := errors.New("cancelled")
		ext.CancelRequest(cause)
		<-ext.Done()
		c.Assert(ext.CancelErr(), qt.Equals, cause)
		c.Assert(ext.Completions(), qt.Equals, 0)
	})
}
