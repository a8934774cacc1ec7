// CLAUDE:SUMMARY Rewrites url("...") references inside inline style attributes.
package rewrite

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

// styleURLRe matches the double-quoted url("...") form only. Single-quoted
// and unquoted url(...) values, @import, and multi-property edge cases pass
// through untouched — a known limitation of the inline-style rewrite, kept
// deliberately narrow.
var styleURLRe = regexp.MustCompile(`url\("(.*?)"\)`)

// rewriteStyle replaces remote url("...") references in a style attribute
// value with resolved local references. Only values starting with http://,
// https://, or // are rewritten; everything else stays byte-for-byte intact.
func (w *Walker) rewriteStyle(ctx context.Context, style string, base *url.URL) string {
	return styleURLRe.ReplaceAllStringFunc(style, func(match string) string {
		inner := styleURLRe.FindStringSubmatch(match)[1]
		if !strings.HasPrefix(inner, "http://") &&
			!strings.HasPrefix(inner, "https://") &&
			!strings.HasPrefix(inner, "//") {
			return match
		}
		return `url("` + w.resolver.Resolve(ctx, inner, base) + `")`
	})
}
