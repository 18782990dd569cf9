package extract

import (
	"regexp"
	"strings"
)

var (
	slugPattern       = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashesPattern = regexp.MustCompile(`-+`)
)

// Slug creates a URL-safe natural key from a name: "Melf's Acid Arrow"
// becomes "melfs-acid-arrow".
func Slug(s string) string {
	slug := strings.ToLower(s)
	slug = strings.NewReplacer("'", "", "’", "").Replace(slug)
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = slugDashesPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
