package pagebuilder

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/taproom/internal/blocks"
	"github.com/starford/taproom/internal/models"
)

// ErrUnsupported is returned when editing a block whose content type has no
// form.
var ErrUnsupported = errors.New("content type cannot be edited")

// ErrNotEditing is returned by editor operations that need an open draft.
var ErrNotEditing = errors.New("block is not being edited")

// State of a BlockEditor.
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// Updater receives the serialized content of a saved block.
type Updater interface {
	Update(sectionKey, content string) error
}

// FieldKind selects the input widget for a field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldURL      FieldKind = "url"
	FieldSelect   FieldKind = "select"
)

// Field is one input of a block form.
type Field struct {
	Name     string    `json:"name"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"kind"`
	Options  []string  `json:"options,omitempty"`
	Required bool      `json:"required,omitempty"`
	Value    string    `json:"value"`
	Error    string    `json:"error,omitempty"`
}

var forms = map[string][]Field{
	blocks.TypeHero: {
		{Name: "title", Label: "Title", Kind: FieldText, Required: true},
		{Name: "subtitle", Label: "Subtitle", Kind: FieldText},
		{Name: "imageUrl", Label: "Background image", Kind: FieldURL},
	},
	blocks.TypeText: {
		{Name: "text", Label: "Text", Kind: FieldTextarea, Required: true},
		{Name: "alignment", Label: "Alignment", Kind: FieldSelect, Options: blocks.Alignments},
	},
	blocks.TypeHeading: {
		{Name: "heading", Label: "Heading", Kind: FieldText, Required: true},
		{Name: "headingLevel", Label: "Level", Kind: FieldSelect, Options: blocks.HeadingLevels},
		{Name: "alignment", Label: "Alignment", Kind: FieldSelect, Options: blocks.Alignments},
	},
	blocks.TypeImage: {
		{Name: "imageUrl", Label: "Image", Kind: FieldURL},
		{Name: "title", Label: "Caption", Kind: FieldText},
		{Name: "alignment", Label: "Alignment", Kind: FieldSelect, Options: blocks.Alignments},
	},
	blocks.TypeCard: {
		{Name: "cardTitle", Label: "Title", Kind: FieldText},
		{Name: "cardDescription", Label: "Description", Kind: FieldTextarea},
		{Name: "cardImage", Label: "Image", Kind: FieldURL},
		{Name: "style", Label: "Style", Kind: FieldSelect, Options: blocks.BoxStyles},
	},
	blocks.TypeButton: {
		{Name: "buttonText", Label: "Label", Kind: FieldText},
		{Name: "buttonUrl", Label: "Link", Kind: FieldURL},
		{Name: "style", Label: "Style", Kind: FieldSelect, Options: blocks.BoxStyles},
		{Name: "alignment", Label: "Alignment", Kind: FieldSelect, Options: blocks.Alignments},
	},
	blocks.TypeDivider: {
		{Name: "style", Label: "Style", Kind: FieldSelect, Options: blocks.DividerStyles},
	},
}

// FormFor returns the empty form of contentType, or nil when it has none.
func FormFor(contentType string) []Field {
	f, ok := forms[contentType]
	if !ok {
		return nil
	}
	return append([]Field(nil), f...)
}

// BlockEditor is the edit state machine of one block. Edits live in a local
// draft until Save hands the serialized content to the Updater.
type BlockEditor struct {
	block  models.ContentBlock
	target Updater
	state  State
	draft  map[string]string
	extra  map[string]json.RawMessage
	errs   map[string]string
}

// NewEditor returns an editor for b in the Viewing state.
func NewEditor(b models.ContentBlock, target Updater) *BlockEditor {
	return &BlockEditor{block: b, target: target}
}

// State returns the current state.
func (e *BlockEditor) State() State { return e.state }

// Edit opens a draft copy of the block's parsed content.
func (e *BlockEditor) Edit() error {
	if _, ok := forms[e.block.ContentType]; !ok {
		return fmt.Errorf("%s: %w", e.block.ContentType, ErrUnsupported)
	}
	e.draft = fieldsOf(blocks.Parse(e.block.ContentType, e.block.Content))
	e.extra = extraKeys(e.block.ContentType, e.block.Content, e.draft)
	e.errs = nil
	e.state = Editing
	return nil
}

// Form returns the inputs with their draft values and the errors of the last
// failed Save.
func (e *BlockEditor) Form() []Field {
	form := FormFor(e.block.ContentType)
	values := e.draft
	if e.state == Viewing {
		values = fieldsOf(blocks.Parse(e.block.ContentType, e.block.Content))
	}
	for i := range form {
		form[i].Value = values[form[i].Name]
		form[i].Error = e.errs[form[i].Name]
	}
	return form
}

// SetField changes one draft value.
func (e *BlockEditor) SetField(name, value string) error {
	if e.state != Editing {
		return ErrNotEditing
	}
	for _, f := range forms[e.block.ContentType] {
		if f.Name == name {
			e.draft[name] = value
			return nil
		}
	}
	return fmt.Errorf("unknown field %q for %s", name, e.block.ContentType)
}

// Save validates the draft, serializes it and passes it to the Updater. On a
// validation error the editor stays in Editing and the errors show in Form.
func (e *BlockEditor) Save() error {
	if e.state != Editing {
		return ErrNotEditing
	}
	p, err := payloadOf(e.block.ContentType, e.draft)
	if err != nil {
		return err
	}
	if err := blocks.Validate(p); err != nil {
		e.errs = blocks.FieldErrors(err)
		return err
	}
	content := withExtra(blocks.Serialize(p), e.extra)
	if err := e.target.Update(e.block.SectionKey, content); err != nil {
		return err
	}
	e.block.Content = &content
	e.draft = nil
	e.extra = nil
	e.errs = nil
	e.state = Viewing
	return nil
}

// Cancel drops the draft. The next Edit starts again from the last saved
// content.
func (e *BlockEditor) Cancel() {
	e.draft = nil
	e.extra = nil
	e.errs = nil
	e.state = Viewing
}

// Content returns the payload as last saved through this editor.
func (e *BlockEditor) Content() blocks.Payload {
	return blocks.Parse(e.block.ContentType, e.block.Content)
}

func fieldsOf(p blocks.Payload) map[string]string {
	out := map[string]string{}
	data, err := json.Marshal(p)
	if err != nil {
		return out
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return out
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// extraKeys returns the stored top-level keys that neither the form nor the
// typed payload carries. Save writes them back unchanged.
func extraKeys(contentType string, raw *string, draft map[string]string) map[string]json.RawMessage {
	if raw == nil {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(*raw), &obj); err != nil {
		return nil
	}
	for _, f := range forms[contentType] {
		delete(obj, f.Name)
	}
	for k := range draft {
		delete(obj, k)
	}
	if len(obj) == 0 {
		return nil
	}
	return obj
}

func withExtra(content string, extra map[string]json.RawMessage) string {
	if len(extra) == 0 {
		return content
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return content
	}
	for k, v := range extra {
		if _, ok := obj[k]; !ok {
			obj[k] = v
		}
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return content
	}
	return string(data)
}

func payloadOf(contentType string, values map[string]string) (blocks.Payload, error) {
	set := make(map[string]string, len(values))
	for k, v := range values {
		if v != "" {
			set[k] = v
		}
	}
	data, err := json.Marshal(set)
	if err != nil {
		return nil, err
	}
	raw := string(data)
	return blocks.Decode(contentType, &raw)
}
