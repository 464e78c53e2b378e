// Package classify maps a shared payload to its content category by
// substring matching on well-known domains.
package classify

import (
	"strings"

	"github.com/go-ports/contentvault/internal/models"
)

// rule pairs a category with the substrings that select it.
type rule struct {
	category models.Category
	needles  []string
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{models.CategoryThreads, []string{"threads.net"}},
	{models.CategoryTwitter, []string{"twitter.com", "x.com"}},
	{models.CategoryYouTube, []string{"youtube.com", "youtu.be"}},
}

// Category returns the content category for payload. It never fails:
// payloads matching no rule are models.CategoryWeb.
//
// Matching is a plain, case-sensitive substring check against the whole
// payload, so free text that merely mentions a domain is classified too.
func Category(payload string) models.Category {
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(payload, n) {
				return r.category
			}
		}
	}
	return models.CategoryWeb
}
