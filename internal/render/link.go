package render

import "strings"

// LinkKind classifies a button target by its prefix.
type LinkKind string

const (
	LinkInternal LinkKind = "internal"
	LinkExternal LinkKind = "external"
	LinkEmail    LinkKind = "email"
	LinkPhone    LinkKind = "phone"
)

// Link describes how a button URL is presented.
type Link struct {
	Kind   LinkKind
	NewTab bool
}

// ClassifyLink looks only at the prefix of url. Anything unmatched is treated
// as an internal link.
func ClassifyLink(url string) Link {
	switch {
	case strings.HasPrefix(url, "http"):
		return Link{Kind: LinkExternal, NewTab: true}
	case strings.HasPrefix(url, "mailto:"):
		return Link{Kind: LinkEmail}
	case strings.HasPrefix(url, "tel:"):
		return Link{Kind: LinkPhone}
	default:
		return Link{Kind: LinkInternal}
	}
}
