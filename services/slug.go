package services

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

var separatorRuns = regexp.MustCompile(`[-_]+`)

// Slugify turns a display name into a lowercase, URL-safe token joined by
// single underscores. Names without any letters or digits yield "".
func Slugify(name string) string {
	s := separatorRuns.ReplaceAllString(slug.Make(name), "_")
	return strings.Trim(s, "_")
}
