package blocks

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Option values accepted by the schemas.
var (
	Alignments    = []string{"left", "center", "right"}
	HeadingLevels = []string{"h1", "h2", "h3", "h4", "h5", "h6"}
	BoxStyles     = []string{"default", "primary", "secondary", "accent"}
	DividerStyles = []string{"default", "thick", "dashed", "dotted"}
)

var buttonURLRe = regexp.MustCompile(`^(/|https?://|mailto:|tel:)`)

// Validate checks p against its schema. The result is advisory: it guides the
// editor and is never enforced by the store. Unknown payloads always pass.
// Errors are validation.Errors keyed by JSON field name.
func Validate(p Payload) error {
	switch v := p.(type) {
	case *Text:
		return validation.ValidateStruct(v,
			validation.Field(&v.Text, validation.Required.Error("text is required")),
			validation.Field(&v.Alignment, validation.In(anys(Alignments)...)),
		)
	case *Heading:
		return validation.ValidateStruct(v,
			validation.Field(&v.Heading, validation.Required.Error("heading is required")),
			validation.Field(&v.HeadingLevel, validation.In(anys(HeadingLevels)...)),
			validation.Field(&v.Alignment, validation.In(anys(Alignments)...)),
		)
	case *Hero:
		return validation.ValidateStruct(v,
			validation.Field(&v.Title, validation.Required.Error("title is required")),
			validation.Field(&v.ImageURL, imageURLRules(v.ImageURL)...),
			validation.Field(&v.BackgroundImage, imageURLRules(v.BackgroundImage)...),
		)
	case *Image:
		return validation.ValidateStruct(v,
			validation.Field(&v.ImageURL, imageURLRules(v.ImageURL)...),
			validation.Field(&v.Alignment, validation.In(anys(Alignments)...)),
		)
	case *Card:
		return validation.ValidateStruct(v,
			validation.Field(&v.CardImage, imageURLRules(v.CardImage)...),
			validation.Field(&v.Style, validation.In(anys(BoxStyles)...)),
		)
	case *Button:
		return validation.ValidateStruct(v,
			validation.Field(&v.ButtonURL, validation.Match(buttonURLRe).Error("must be a path, absolute URL, mailto: or tel: link")),
			validation.Field(&v.Style, validation.In(anys(BoxStyles)...)),
			validation.Field(&v.Alignment, validation.In(anys(Alignments)...)),
		)
	case *Divider:
		return validation.ValidateStruct(v,
			validation.Field(&v.Style, validation.In(anys(DividerStyles)...)),
		)
	}
	return nil
}

// FieldErrors flattens a Validate error into field -> message. A non-field
// error is reported under the empty key.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		out[""] = err.Error()
		return out
	}
	for field, ferr := range verrs {
		out[field] = ferr.Error()
	}
	return out
}

// SortedFields returns the keys of a FieldErrors map in stable order.
func SortedFields(errs map[string]string) []string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// imageURLRules accepts site-relative paths (uploads) as well as absolute URLs.
func imageURLRules(value string) []validation.Rule {
	if strings.HasPrefix(value, "/") {
		return nil
	}
	return []validation.Rule{is.URL}
}

func anys(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
