package blocks

import "testing"

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		payload Payload
		field   string
	}{
		{name: "text ok", payload: &Text{Text: "hi"}},
		{name: "text missing", payload: &Text{}, field: "text"},
		{name: "text alignment", payload: &Text{Text: "hi", Alignment: "justify"}, field: "alignment"},
		{name: "heading level", payload: &Heading{Heading: "x", HeadingLevel: "h7"}, field: "headingLevel"},
		{name: "hero missing title", payload: &Hero{}, field: "title"},
		{name: "hero bad url", payload: &Hero{Title: "x", ImageURL: "not a url"}, field: "imageUrl"},
		{name: "hero upload path", payload: &Hero{Title: "x", ImageURL: "/uploads/a.png"}},
		{name: "hero empty url", payload: &Hero{Title: "x"}},
		{name: "image ok", payload: &Image{}},
		{name: "card style", payload: &Card{Style: "loud"}, field: "style"},
		{name: "button mailto", payload: &Button{ButtonURL: "mailto:bar@example.com"}},
		{name: "button tel", payload: &Button{ButtonURL: "tel:5550100"}},
		{name: "button internal", payload: &Button{ButtonURL: "/menu"}},
		{name: "button bad", payload: &Button{ButtonURL: "javascript:alert(1)"}, field: "buttonUrl"},
		{name: "divider style", payload: &Divider{Style: "wavy"}, field: "style"},
		{name: "unknown passes", payload: &Unknown{Type: "mystery"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := FieldErrors(Validate(tc.payload))
			if tc.field == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if _, ok := errs[tc.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.field, errs)
			}
		})
	}
}
