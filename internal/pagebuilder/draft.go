// Package pagebuilder holds the in-memory editing model for one page: a
// Draft of ordered blocks mutated locally and committed as a whole, and a
// BlockEditor for the fields of a single block.
package pagebuilder

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/blocks"
	"github.com/starford/taproom/internal/models"
)

// ErrSaveInFlight is returned when Save is called while a save for the same
// draft has not finished.
var ErrSaveInFlight = errors.New("a save is already in progress")

// Committer persists the full block list of a page and returns the stored
// state.
type Committer interface {
	SavePageContent(ctx context.Context, pageSlug string, blocks []models.BlockInput) ([]models.ContentBlock, error)
}

// Draft is the editable block list of a page. Mutations only touch memory;
// Save is the single durable checkpoint.
type Draft struct {
	mu      sync.Mutex
	slug    string
	blocks  []models.ContentBlock
	dirty   bool
	saving  bool
	rev     int
	lastErr error
}

// NewDraft starts a draft from the persisted blocks of slug.
func NewDraft(slug string, persisted []models.ContentBlock) *Draft {
	d := &Draft{slug: slug}
	d.blocks = cloneBlocks(persisted)
	return d
}

// Slug returns the page the draft belongs to.
func (d *Draft) Slug() string { return d.slug }

// Blocks returns a copy of the current block list.
func (d *Draft) Blocks() []models.ContentBlock {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cloneBlocks(d.blocks)
}

// Dirty reports whether there are edits not yet saved.
func (d *Draft) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// Err returns the error of the last failed save, if any.
func (d *Draft) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// Add appends an empty block of contentType and returns it. The block has
// id 0 until the page is saved.
func (d *Draft) Add(contentType string) models.ContentBlock {
	d.mu.Lock()
	defer d.mu.Unlock()

	content := blocks.Serialize(blocks.Empty(contentType))
	b := models.ContentBlock{
		PageSlug:     d.slug,
		SectionKey:   blocks.NewSectionKey(contentType),
		ContentType:  contentType,
		Content:      &content,
		DisplayOrder: len(d.blocks),
	}
	d.blocks = append(d.blocks, b)
	d.touch()
	return b
}

// Update replaces the content of every block with sectionKey.
func (d *Draft) Update(sectionKey, content string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	found := false
	for i := range d.blocks {
		if d.blocks[i].SectionKey == sectionKey {
			c := content
			d.blocks[i].Content = &c
			found = true
		}
	}
	if !found {
		return fmt.Errorf("block %q: %w", sectionKey, apperr.ErrNotFound)
	}
	d.touch()
	return nil
}

// Delete removes every block with sectionKey.
func (d *Draft) Delete(sectionKey string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	kept := d.blocks[:0:0]
	for _, b := range d.blocks {
		if b.SectionKey != sectionKey {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(d.blocks) {
		return fmt.Errorf("block %q: %w", sectionKey, apperr.ErrNotFound)
	}
	d.blocks = kept
	d.touch()
	return nil
}

// Move places the first block with sectionKey at index to.
func (d *Draft) Move(sectionKey string, to int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	from := -1
	for i, b := range d.blocks {
		if b.SectionKey == sectionKey {
			from = i
			break
		}
	}
	if from < 0 {
		return fmt.Errorf("block %q: %w", sectionKey, apperr.ErrNotFound)
	}
	if to < 0 || to >= len(d.blocks) {
		return apperr.Invalid("position", "must be between 0 and %d", len(d.blocks)-1)
	}
	if from == to {
		return nil
	}
	b := d.blocks[from]
	d.blocks = slices.Insert(slices.Delete(d.blocks, from, from+1), to, b)
	d.touch()
	return nil
}

// Save commits the whole list through c. On success the draft adopts the
// stored blocks and is clean; on failure the edits stay and the draft stays
// dirty.
func (d *Draft) Save(ctx context.Context, c Committer) error {
	d.mu.Lock()
	if d.saving {
		d.mu.Unlock()
		return ErrSaveInFlight
	}
	d.saving = true
	rev := d.rev
	in := inputs(d.blocks)
	d.mu.Unlock()

	stored, err := c.SavePageContent(ctx, d.slug, in)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.saving = false
	if err != nil {
		d.lastErr = err
		return err
	}
	d.lastErr = nil
	if d.rev != rev {
		// Edited while saving: keep the newer local list.
		return nil
	}
	d.blocks = cloneBlocks(stored)
	d.dirty = false
	return nil
}

func (d *Draft) touch() {
	d.dirty = true
	d.rev++
}

func inputs(list []models.ContentBlock) []models.BlockInput {
	out := make([]models.BlockInput, 0, len(list))
	for _, b := range list {
		out = append(out, b.Input())
	}
	return out
}

func cloneBlocks(list []models.ContentBlock) []models.ContentBlock {
	out := make([]models.ContentBlock, len(list))
	copy(out, list)
	for i := range out {
		if out[i].Content != nil {
			c := *out[i].Content
			out[i].Content = &c
		}
	}
	return out
}
