package pagebuilder

import (
	"errors"
	"testing"

	"github.com/starford/taproom/internal/blocks"
	"github.com/starford/taproom/internal/models"
)

func TestEditorSaveUpdatesDraft(t *testing.T) {
	d := NewDraft("about", []models.ContentBlock{
		{ID: 1, SectionKey: "hero-1", ContentType: "hero", Content: ptr(`{"title":"Old"}`)},
	})
	e := NewEditor(d.Blocks()[0], d)

	if e.State() != Viewing {
		t.Fatalf("state = %s", e.State())
	}
	if err := e.Edit(); err != nil {
		t.Fatal(err)
	}
	if err := e.SetField("title", "Welcome"); err != nil {
		t.Fatal(err)
	}
	if err := e.SetField("subtitle", "Cold beer"); err != nil {
		t.Fatal(err)
	}
	if err := e.Save(); err != nil {
		t.Fatal(err)
	}
	if e.State() != Viewing {
		t.Errorf("state after save = %s", e.State())
	}
	got := *d.Blocks()[0].Content
	if got != `{"title":"Welcome","subtitle":"Cold beer"}` {
		t.Errorf("draft content = %s", got)
	}
	if !d.Dirty() {
		t.Error("block save should only mark the page draft dirty")
	}
}

func TestEditorKeepsUnlistedKeys(t *testing.T) {
	d := NewDraft("about", []models.ContentBlock{
		{SectionKey: "text-1", ContentType: "text", Content: ptr(`{"text":"Hi","fontSize":14,"theme":{"dark":true}}`)},
	})
	e := NewEditor(d.Blocks()[0], d)
	if err := e.Edit(); err != nil {
		t.Fatal(err)
	}
	if err := e.SetField("text", "Bye"); err != nil {
		t.Fatal(err)
	}
	if err := e.Save(); err != nil {
		t.Fatal(err)
	}

	got := *d.Blocks()[0].Content
	if got != `{"fontSize":14,"text":"Bye","theme":{"dark":true}}` {
		t.Errorf("content = %s", got)
	}
	if txt := blocks.Parse("text", &got).(*blocks.Text).Text; txt != "Bye" {
		t.Errorf("text = %q", txt)
	}
}

func TestEditorCancelReverts(t *testing.T) {
	d := NewDraft("about", []models.ContentBlock{
		{SectionKey: "text-1", ContentType: "text", Content: ptr(`{"text":"Original"}`)},
	})
	e := NewEditor(d.Blocks()[0], d)
	if err := e.Edit(); err != nil {
		t.Fatal(err)
	}
	if err := e.SetField("text", "Changed"); err != nil {
		t.Fatal(err)
	}
	e.Cancel()

	if e.State() != Viewing {
		t.Errorf("state = %s", e.State())
	}
	if got := e.Content().(*blocks.Text).Text; got != "Original" {
		t.Errorf("content = %q", got)
	}
	if d.Dirty() {
		t.Error("cancel must not touch the draft")
	}
	if err := e.Edit(); err != nil {
		t.Fatal(err)
	}
	for _, f := range e.Form() {
		if f.Name == "text" && f.Value != "Original" {
			t.Errorf("reopened value = %q", f.Value)
		}
	}
}

func TestEditorValidationKeepsEditing(t *testing.T) {
	d := NewDraft("about", nil)
	b := d.Add("text")
	e := NewEditor(b, d)
	if err := e.Edit(); err != nil {
		t.Fatal(err)
	}
	if err := e.Save(); err == nil {
		t.Fatal("expected validation error for empty text")
	}
	if e.State() != Editing {
		t.Errorf("state = %s, want editing", e.State())
	}
	var msg string
	for _, f := range e.Form() {
		if f.Name == "text" {
			msg = f.Error
		}
	}
	if msg == "" {
		t.Error("form should carry the field error")
	}
}

func TestEditorNullContentStartsEmpty(t *testing.T) {
	e := NewEditor(models.ContentBlock{SectionKey: "divider-1", ContentType: "divider"}, NewDraft("x", nil))
	if err := e.Edit(); err != nil {
		t.Fatal(err)
	}
	form := e.Form()
	if len(form) != 1 || form[0].Value != "" {
		t.Errorf("form = %+v", form)
	}
}

func TestEditorUnsupportedType(t *testing.T) {
	e := NewEditor(models.ContentBlock{SectionKey: "m", ContentType: "mystery"}, NewDraft("x", nil))
	if err := e.Edit(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
	if err := e.SetField("x", "y"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("err = %v, want ErrNotEditing", err)
	}
}
