// Package render turns stored blocks into HTML fragments. Render is total:
// every block produces visible output, whatever its content.
package render

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"strings"

	"github.com/starford/taproom/internal/blocks"
	"github.com/starford/taproom/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// Kind tells how a block was rendered.
type Kind string

const (
	KindOK      Kind = "ok"
	KindUnknown Kind = "unknown"
	KindInvalid Kind = "invalid"
)

// TextPlaceholder is shown for a text block with no text.
const TextPlaceholder = "Add your text here"

// View is the rendered form of one block.
type View struct {
	SectionKey  string        `json:"sectionKey,omitempty"`
	ContentType string        `json:"contentType"`
	Kind        Kind          `json:"kind"`
	HTML        template.HTML `json:"html"`
	Notice      string        `json:"notice,omitempty"`
}

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
	),
)

// Render produces the display output for one block.
func Render(contentType string, content *string) View {
	v := View{ContentType: contentType, Kind: KindOK}

	p, err := blocks.Decode(contentType, content)
	if err != nil {
		slog.Warn("block content unreadable",
			slog.String("content_type", contentType),
			slog.String("error", err.Error()))
	}

	if u, ok := p.(*blocks.Unknown); ok {
		v.Kind = KindUnknown
		v.Notice = "Unknown content type: " + u.Type
		v.HTML = notice("unknown", v.Notice)
		return v
	}
	if err != nil {
		v.Kind = KindInvalid
		v.Notice = "Invalid content format"
		v.HTML = notice("invalid", v.Notice)
		return v
	}

	html, err := renderPayload(p)
	if err != nil {
		slog.Error("block render failed",
			slog.String("content_type", contentType),
			slog.String("error", err.Error()))
		v.Kind = KindInvalid
		v.Notice = "Invalid content format"
		v.HTML = notice("invalid", v.Notice)
		return v
	}
	v.HTML = html
	return v
}

// Page renders every block of a page in order.
func Page(items []models.ContentBlock) []View {
	views := make([]View, 0, len(items))
	for _, it := range items {
		v := Render(it.ContentType, it.Content)
		v.SectionKey = it.SectionKey
		views = append(views, v)
	}
	return views
}

func renderPayload(p blocks.Payload) (template.HTML, error) {
	switch b := p.(type) {
	case *blocks.Text:
		return renderText(b)
	case *blocks.Heading:
		return execute("heading", headingData{
			Level:     or(b.HeadingLevel, "h2"),
			Heading:   b.Heading,
			Alignment: or(b.Alignment, "left"),
		})
	case *blocks.Hero:
		return execute("hero", heroData{
			Title:      b.Title,
			Subtitle:   b.Subtitle,
			Background: b.BackgroundURL(),
			Alignment:  "center",
		})
	case *blocks.Image:
		return execute("image", b2image(b))
	case *blocks.Card:
		return execute("card", cardData{
			Title:       b.CardTitle,
			Description: b.CardDescription,
			Image:       b.CardImage,
			Style:       or(b.Style, "default"),
		})
	case *blocks.Button:
		link := ClassifyLink(b.ButtonURL)
		return execute("button", buttonData{
			Text:      or(b.ButtonText, "Button"),
			URL:       buttonHref(b.ButtonURL, link),
			Link:      link,
			Style:     or(b.Style, "default"),
			Alignment: or(b.Alignment, "left"),
		})
	case *blocks.Divider:
		return execute("divider", struct{ Style string }{or(b.Style, "default")})
	}
	return "", errors.New("render: unsupported payload")
}

// buttonHref passes phone links as trusted URLs; html/template only allows
// http, https and mailto and would turn tel: into #ZgotmplZ. Everything else
// keeps the normal URL filtering.
func buttonHref(url string, link Link) any {
	if link.Kind == LinkPhone {
		return template.URL(url)
	}
	return url
}

func renderText(b *blocks.Text) (template.HTML, error) {
	align := or(b.Alignment, "left")
	if strings.TrimSpace(b.Text) == "" {
		return execute("text", textData{Alignment: align, Placeholder: TextPlaceholder})
	}
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(b.Text), &buf); err != nil {
		return "", err
	}
	// goldmark escapes raw HTML unless WithUnsafe is set.
	return execute("text", textData{Alignment: align, Body: template.HTML(buf.String())})
}

func b2image(b *blocks.Image) imageData {
	return imageData{
		URL:       b.ImageURL,
		Title:     b.Title,
		Alignment: or(b.Alignment, "center"),
	}
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func notice(class, msg string) template.HTML {
	h, err := execute("notice", struct{ Class, Message string }{class, msg})
	if err != nil {
		return template.HTML(template.HTMLEscapeString(msg))
	}
	return h
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
