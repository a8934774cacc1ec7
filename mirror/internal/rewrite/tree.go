// CLAUDE:SUMMARY Walks the parsed document and rewrites every URL-bearing attribute through the asset resolver.
// Package rewrite mutates a parsed HTML document so that every remote
// resource reference points at the local asset store.
//
// URL-bearing locations, per element:
//   - the style attribute's url("...") values;
//   - any attribute whose name ends in "url" (single locator) or "urls"
//     (comma-separated list);
//   - src on img/script/source elements and href on link elements.
//
// The suffix-matched pass and the fixed src/href pass are independent passes
// over the same attribute set. An attribute caught by both rules is resolved
// once per rule; resolution is idempotent, so the redundancy is harmless and
// intentionally not deduplicated.
package rewrite

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// i18nScriptID marks the injected internationalization bootstrap script that
// must not survive into the mirrored page.
const i18nScriptID = "i18nWebflowScript"

// Resolver turns a remote locator into a local reference. Implemented by
// the asset store.
type Resolver interface {
	Resolve(ctx context.Context, locator string, base *url.URL) string
}

// Walker rewrites documents in place.
type Walker struct {
	resolver Resolver
	logger   *slog.Logger
}

// New creates a Walker.
func New(r Resolver, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{resolver: r, logger: logger}
}

// Rewrite removes the i18n bootstrap script, then rewrites every element's
// URL-bearing attributes in document order, depth first. The removal happens
// before the walk so the traversal never mutates the tree it is iterating.
func (w *Walker) Rewrite(ctx context.Context, doc *html.Node, base *url.URL) {
	if n := findByID(doc, i18nScriptID); n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
		w.logger.Debug("rewrite: removed i18n bootstrap script")
	}
	w.walk(ctx, doc, base)
}

func (w *Walker) walk(ctx context.Context, n *html.Node, base *url.URL) {
	if n.Type == html.ElementNode {
		w.rewriteElement(ctx, n, base)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(ctx, c, base)
	}
}

func (w *Walker) rewriteElement(ctx context.Context, n *html.Node, base *url.URL) {
	// Subresource integrity pins the remote bytes; the local copies would
	// never validate against them.
	dropAttrs(n, "integrity", "crossorigin")

	for i, a := range n.Attr {
		lower := strings.ToLower(a.Key)
		switch {
		case a.Key == "style":
			n.Attr[i].Val = w.rewriteStyle(ctx, a.Val, base)
		case strings.HasSuffix(lower, "url"):
			n.Attr[i].Val = w.resolver.Resolve(ctx, a.Val, base)
		case strings.HasSuffix(lower, "urls"):
			parts := strings.Split(a.Val, ",")
			for j, p := range parts {
				parts[j] = w.resolver.Resolve(ctx, strings.TrimSpace(p), base)
			}
			n.Attr[i].Val = strings.Join(parts, ", ")
		}
	}

	// Fixed-attribute pass, independent of the suffix rules above.
	switch n.DataAtom {
	case atom.Img, atom.Script, atom.Source:
		w.resolveAttr(ctx, n, "src", base)
	case atom.Link:
		w.resolveAttr(ctx, n, "href", base)
	}
}

func (w *Walker) resolveAttr(ctx context.Context, n *html.Node, key string, base *url.URL) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = w.resolver.Resolve(ctx, a.Val, base)
		}
	}
}

func dropAttrs(n *html.Node, keys ...string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		drop := false
		for _, k := range keys {
			if a.Key == k {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

// findByID returns the first element in document order whose id attribute
// equals id, or nil.
func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
