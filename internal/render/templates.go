package render

import "html/template"

type textData struct {
	Alignment   string
	Body        template.HTML
	Placeholder string
}

type headingData struct {
	Level     string
	Heading   string
	Alignment string
}

type heroData struct {
	Title      string
	Subtitle   string
	Background string
	Alignment  string
}

type imageData struct {
	URL       string
	Title     string
	Alignment string
}

type cardData struct {
	Title       string
	Description string
	Image       string
	Style       string
}

type buttonData struct {
	Text      string
	URL       any
	Link      Link
	Style     string
	Alignment string
}

var templates = template.Must(template.New("blocks").Parse(`
{{define "notice"}}<div class="block-notice block-notice-{{.Class}}">{{.Message}}</div>{{end}}

{{define "text"}}<div class="block-text align-{{.Alignment}}">{{if .Placeholder}}<p class="placeholder">{{.Placeholder}}</p>{{else}}{{.Body}}{{end}}</div>{{end}}

{{define "heading"}}<div class="block-heading align-{{.Alignment}}">{{if eq .Level "h1"}}<h1>{{.Heading}}</h1>{{else if eq .Level "h3"}}<h3>{{.Heading}}</h3>{{else if eq .Level "h4"}}<h4>{{.Heading}}</h4>{{else if eq .Level "h5"}}<h5>{{.Heading}}</h5>{{else if eq .Level "h6"}}<h6>{{.Heading}}</h6>{{else}}<h2>{{.Heading}}</h2>{{end}}</div>{{end}}

{{define "hero"}}<section class="block-hero align-{{.Alignment}}">{{if .Background}}<div class="hero-background" style="background-image: url('{{.Background}}')"></div><div class="hero-overlay"></div>{{end}}<div class="hero-content"><h1 class="hero-title"><strong>{{.Title}}</strong></h1>{{if .Subtitle}}<p class="hero-subtitle">{{.Subtitle}}</p>{{end}}</div></section>{{end}}

{{define "image"}}<figure class="block-image align-{{.Alignment}}">{{if .URL}}<img src="{{.URL}}" alt="{{.Title}}">{{else}}<div class="image-placeholder">No image selected</div>{{end}}{{if .Title}}<figcaption>{{.Title}}</figcaption>{{end}}</figure>{{end}}

{{define "card"}}<div class="block-card card-{{.Style}}">{{if .Image}}<img src="{{.Image}}" alt="{{.Title}}">{{end}}{{if .Title}}<h3>{{.Title}}</h3>{{end}}{{if .Description}}<p>{{.Description}}</p>{{end}}</div>{{end}}

{{define "button"}}<div class="block-button align-{{.Alignment}}">{{if .URL}}<a class="button button-{{.Style}} link-{{.Link.Kind}}" href="{{.URL}}"{{if .Link.NewTab}} target="_blank" rel="noopener noreferrer"{{end}}>{{.Text}}</a>{{else}}<span class="button button-{{.Style}} button-disabled" aria-disabled="true">{{.Text}}</span>{{end}}</div>{{end}}

{{define "divider"}}<hr class="block-divider divider-{{.Style}}">{{end}}
`))
