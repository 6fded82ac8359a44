// Package blocks defines the typed payloads stored in page content blocks and
// the codec that moves them to and from their JSON text form.
package blocks

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Known content types.
const (
	TypeHero    = "hero"
	TypeText    = "text"
	TypeHeading = "heading"
	TypeImage   = "image"
	TypeCard    = "card"
	TypeButton  = "button"
	TypeDivider = "divider"
)

// Types lists the known content types in the order the page builder offers them.
var Types = []string{TypeHero, TypeHeading, TypeText, TypeImage, TypeCard, TypeButton, TypeDivider}

// Payload is the decoded content of a block. ContentType is the discriminant.
type Payload interface {
	ContentType() string
}

// Text is a paragraph of Markdown text.
type Text struct {
	Text      string `json:"text,omitempty"`
	Alignment string `json:"alignment,omitempty"`
}

// Heading is a standalone heading line.
type Heading struct {
	Heading      string `json:"heading,omitempty"`
	HeadingLevel string `json:"headingLevel,omitempty"`
	Alignment    string `json:"alignment,omitempty"`
}

// Hero is the large banner at the top of a page. BackgroundImage is the
// field name older pages were saved with; ImageURL wins when both are set.
type Hero struct {
	Title           string `json:"title,omitempty"`
	Subtitle        string `json:"subtitle,omitempty"`
	ImageURL        string `json:"imageUrl,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
}

// Image is a single picture with an optional caption in Title.
type Image struct {
	ImageURL  string `json:"imageUrl,omitempty"`
	Title     string `json:"title,omitempty"`
	Alignment string `json:"alignment,omitempty"`
}

// Card is a boxed teaser with image, title and description.
type Card struct {
	CardTitle       string `json:"cardTitle,omitempty"`
	CardDescription string `json:"cardDescription,omitempty"`
	CardImage       string `json:"cardImage,omitempty"`
	Style           string `json:"style,omitempty"`
}

// Button is a call-to-action link.
type Button struct {
	ButtonText string `json:"buttonText,omitempty"`
	ButtonURL  string `json:"buttonUrl,omitempty"`
	Style      string `json:"style,omitempty"`
	Alignment  string `json:"alignment,omitempty"`
}

// Divider is a horizontal rule.
type Divider struct {
	Style string `json:"style,omitempty"`
}

// Unknown carries the fields of a content type this build does not know.
type Unknown struct {
	Type   string
	Fields map[string]any
}

func (*Text) ContentType() string    { return TypeText }
func (*Heading) ContentType() string { return TypeHeading }
func (*Hero) ContentType() string    { return TypeHero }
func (*Image) ContentType() string   { return TypeImage }
func (*Card) ContentType() string    { return TypeCard }
func (*Button) ContentType() string  { return TypeButton }
func (*Divider) ContentType() string { return TypeDivider }
func (u *Unknown) ContentType() string {
	return u.Type
}

// MarshalJSON writes the carried fields, or an empty object.
func (u *Unknown) MarshalJSON() ([]byte, error) {
	if u.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(u.Fields)
}

// BackgroundURL returns the image shown behind the hero.
func (h *Hero) BackgroundURL() string {
	if h.ImageURL != "" {
		return h.ImageURL
	}
	return h.BackgroundImage
}

// Known reports whether contentType has a schema in this package.
func Known(contentType string) bool {
	switch contentType {
	case TypeHero, TypeText, TypeHeading, TypeImage, TypeCard, TypeButton, TypeDivider:
		return true
	}
	return false
}

// Empty returns the payload with no fields set for contentType.
func Empty(contentType string) Payload {
	switch contentType {
	case TypeHero:
		return &Hero{}
	case TypeText:
		return &Text{}
	case TypeHeading:
		return &Heading{}
	case TypeImage:
		return &Image{}
	case TypeCard:
		return &Card{}
	case TypeButton:
		return &Button{}
	case TypeDivider:
		return &Divider{}
	default:
		return &Unknown{Type: contentType}
	}
}

// NewSectionKey returns a fresh UI handle of the form "<type>-<suffix>".
func NewSectionKey(contentType string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return contentType + "-" + suffix
}
