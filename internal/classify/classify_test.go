package classify_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/contentvault/internal/classify"
	"github.com/go-ports/contentvault/internal/models"
)

func TestCategory_HappyPath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name    string
		payload string
		want    models.Category
	}{
		{"twitter.com", "https://twitter.com/x", models.CategoryTwitter},
		{"x.com", "https://x.com/y", models.CategoryTwitter},
		{"youtu.be", "https://youtu.be/abc", models.CategoryYouTube},
		{"youtube.com", "https://www.youtube.com/watch?v=abc", models.CategoryYouTube},
		{"threads.net", "https://threads.net/p", models.CategoryThreads},
		{"plain site", "https://example.com", models.CategoryWeb},
		{"empty payload", "", models.CategoryWeb},
		{"free text mentioning youtube", "watch this youtu.be/abc later", models.CategoryYouTube},
		{"threads wins over twitter", "https://threads.net/@a via twitter.com", models.CategoryThreads},
		{"twitter wins over youtube", "https://x.com/a/status/1 youtube.com", models.CategoryTwitter},
		{"substring match spans domain suffixes", "https://netflix.com/title/1", models.CategoryTwitter},
		{"matching is case sensitive", "https://YOUTUBE.COM/a", models.CategoryWeb},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(classify.Category(tc.payload), qt.Equals, tc.want)
		})
	}
}

func TestCategory_AlwaysValid(t *testing.T) {
	c := qt.New(t)
	for _, p := range []string{"", "x", "https://threads.net", "ftp://foo", "😀"} {
		c.Assert(classify.Category(p).IsValid(), qt.IsTrue, qt.Commentf("payload %q", p))
	}
}
