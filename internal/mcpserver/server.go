// Package mcpserver provides an MCP (Model Context Protocol) server
// that lets an agent build Taproom pages via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/blocks"
	"github.com/starford/taproom/internal/contentservice"
	"github.com/starford/taproom/internal/media"
	"github.com/starford/taproom/internal/models"
	"github.com/starford/taproom/internal/pagebuilder"
)

// Server wraps the MCP server with the page builder tools.
type Server struct {
	mcp     *server.MCPServer
	content *contentservice.Service
	images  *media.Service
	actor   *auth.Actor

	mu     sync.Mutex
	drafts map[string]*pagebuilder.Draft
}

// New creates a new MCP server with all page builder tools registered.
// images may be nil, in which case upload_image is not offered.
func New(content *contentservice.Service, images *media.Service) *Server {
	s := &Server{
		content: content,
		images:  images,
		actor:   auth.LocalAdmin,
		drafts:  map[string]*pagebuilder.Draft{},
	}

	s.mcp = server.NewMCPServer(
		"Taproom",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all pages of the site, published or not."),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("get_page_content",
		mcp.WithDescription("Return the saved content blocks of a page in display order."),
		mcp.WithString("pageSlug", mcp.Required(), mcp.Description("Page slug (e.g. home, about)")),
	), s.getPageContent)

	s.mcp.AddTool(mcp.NewTool("render_page",
		mcp.WithDescription("Render the saved blocks of a page to HTML for preview."),
		mcp.WithString("pageSlug", mcp.Required(), mcp.Description("Page slug")),
	), s.renderPage)

	s.mcp.AddTool(mcp.NewTool("get_block_contract",
		mcp.WithDescription("Returns the block types, their fields and the draft workflow. "+
			"Call this before editing a page."),
	), s.getBlockContract)

	s.mcp.AddTool(mcp.NewTool("draft_open",
		mcp.WithDescription("Load the saved blocks of a page into an editing draft."),
		mcp.WithString("pageSlug", mcp.Required(), mcp.Description("Page slug")),
	), s.draftOpen)

	s.mcp.AddTool(mcp.NewTool("draft_add_block",
		mcp.WithDescription("Append a new empty block to the draft, optionally at a position."),
		mcp.WithString("pageSlug", mcp.Required(), mcp.Description("Page slug")),
		mcp.WithString("contentType", mcp.Required(), mcp.Description("One of: "+strings.Join(blocks.Types, ", "))),
		mcp.WithNumber("position", mcp.Description("Zero-based index to place the block at (optional, default last)")),
	), s.draftAddBlock)

	s.mcp.AddTool(mcp.NewTool("draft_set_field",
		mcp.WithDescription("Set fields of a draft block. Values are validated against the block's schema; "+
			"on error nothing is changed."),
		mcp.WithString("pageSlug", mcp.Required(), mcp.Description("Page slug")),
		mcp.WithString("sectionKey", mcp.Required(), mcp.Description("Section key of the block")),
		mcp.WithString("fields", mcp.Required(), mcp.Description(`JSON object of field name to string value, e.g. {"title":"Happy hour"}`)),
	), s.draftSetField)

	s.mcp.AddTool(mcp.NewTool("draft_remove_block",
		mcp.WithDescription("Remove a block from the draft."),
		mcp.WithString("pageSlug", mcp.Required(), mcp.Description("Page slug")),
		mcp.WithString("sectionKey", mcp.Required(), mcp.Description("Section key of the block")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.draftRemoveBlock)

	s.mcp.AddTool(mcp.NewTool("draft_move_block",
		mcp.WithDescription("Move a draft block to a new zero-based position."),
		mcp.WithString("pageSlug", mcp.Required(), mcp.Description("Page slug")),
		mcp.WithString("sectionKey", mcp.Required(), mcp.Description("Section key of the block")),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("New zero-based index")),
	), s.draftMoveBlock)

	s.mcp.AddTool(mcp.NewTool("draft_show",
		mcp.WithDescription("Show the draft blocks, whether they differ from the saved page, and the last save error."),
		mcp.WithString("pageSlug", mcp.Required(), mcp.Description("Page slug")),
	), s.draftShow)

	s.mcp.AddTool(mcp.NewTool("draft_save",
		mcp.WithDescription("Replace the saved page with the draft in one step. On failure the draft keeps its edits."),
		mcp.WithString("pageSlug", mcp.Required(), mcp.Description("Page slug")),
	), s.draftSave)

	s.mcp.AddTool(mcp.NewTool("draft_discard",
		mcp.WithDescription("Drop the draft and its unsaved edits."),
		mcp.WithString("pageSlug", mcp.Required(), mcp.Description("Page slug")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.draftDiscard)

	if images != nil {
		s.mcp.AddTool(mcp.NewTool("upload_image",
			mcp.WithDescription("Upload an image from an http(s) URL or a base64 data: URI. "+
				"Returns the url to use in imageUrl, cardImage and similar fields."),
			mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:image/...;base64,... URI")),
			mcp.WithString("filename", mcp.Description("Optional original file name; its extension selects the image type")),
		), s.uploadImage)
	}

	s.mcp.AddResource(
		mcp.NewResource("taproom://block-contract", "Block Contract",
			mcp.WithResourceDescription("Content block types and their fields."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBlockContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type draftView struct {
	PageSlug  string                `json:"pageSlug"`
	Dirty     bool                  `json:"dirty"`
	LastError string                `json:"lastError,omitempty"`
	Blocks    []models.ContentBlock `json:"blocks"`
}

func viewOf(d *pagebuilder.Draft) draftView {
	v := draftView{PageSlug: d.Slug(), Dirty: d.Dirty(), Blocks: d.Blocks()}
	if err := d.Err(); err != nil {
		v.LastError = err.Error()
	}
	return v
}

func (s *Server) listPages(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.content.Pages(ctx, s.actor)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(pages)
}

func (s *Server) getPageContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("pageSlug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.content.List(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) renderPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("pageSlug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	views, err := s.content.Render(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	for _, v := range views {
		b.WriteString(string(v.HTML))
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) getBlockContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BlockContract), nil
}

func (s *Server) readBlockContractResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "taproom://block-contract",
			MIMEType: "text/markdown",
			Text:     BlockContract,
		},
	}, nil
}

func (s *Server) draftOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("pageSlug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.mu.Lock()
	existing := s.drafts[slug]
	s.mu.Unlock()
	if existing != nil && existing.Dirty() {
		return mcp.NewToolResultError(fmt.Sprintf("draft for %s has unsaved changes; save or discard it first", slug)), nil
	}

	d, err := s.content.OpenDraft(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.mu.Lock()
	s.drafts[slug] = d
	s.mu.Unlock()
	return jsonResult(viewOf(d))
}

func (s *Server) draftAddBlock(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, res := s.requireDraft(req)
	if res != nil {
		return res, nil
	}
	ct, err := req.RequireString("contentType")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !blocks.Known(ct) {
		return mcp.NewToolResultError(fmt.Sprintf("unknown content type %q (use one of: %s)", ct, strings.Join(blocks.Types, ", "))), nil
	}

	b := d.Add(ct)
	if pos, ok := req.GetArguments()["position"].(float64); ok {
		if err := d.Move(b.SectionKey, int(pos)); err != nil {
			_ = d.Delete(b.SectionKey)
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return jsonResult(b)
}

func (s *Server) draftSetField(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, res := s.requireDraft(req)
	if res != nil {
		return res, nil
	}
	key, err := req.RequireString("sectionKey")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fields must be a JSON object of strings: %v", err)), nil
	}

	b, ok := findBlock(d, key)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no block %q in draft of %s", key, d.Slug())), nil
	}
	ed := pagebuilder.NewEditor(b, d)
	if err := ed.Edit(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := ed.SetField(name, fields[name]); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if err := ed.Save(); err != nil {
		return mcp.NewToolResultError(formErrors(ed.Form(), err)), nil
	}

	b, _ = findBlock(d, key)
	return jsonResult(b)
}

func (s *Server) draftRemoveBlock(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, res := s.requireDraft(req)
	if res != nil {
		return res, nil
	}
	key, err := req.RequireString("sectionKey")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := d.Delete(key); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(viewOf(d))
}

func (s *Server) draftMoveBlock(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, res := s.requireDraft(req)
	if res != nil {
		return res, nil
	}
	key, err := req.RequireString("sectionKey")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pos, ok := req.GetArguments()["position"].(float64)
	if !ok {
		return mcp.NewToolResultError("position is required"), nil
	}
	if err := d.Move(key, int(pos)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(viewOf(d))
}

func (s *Server) draftShow(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, res := s.requireDraft(req)
	if res != nil {
		return res, nil
	}
	return jsonResult(viewOf(d))
}

func (s *Server) draftSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, res := s.requireDraft(req)
	if res != nil {
		return res, nil
	}
	if err := d.Save(ctx, s.content.Committer(s.actor)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed, draft kept: %v", err)), nil
	}
	return jsonResult(viewOf(d))
}

func (s *Server) draftDiscard(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("pageSlug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.mu.Lock()
	_, ok := s.drafts[slug]
	delete(s.drafts, slug)
	s.mu.Unlock()
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no open draft for %s", slug)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("discarded: %s", slug)), nil
}

// requireDraft returns the open draft named by the pageSlug argument, or a
// tool error result.
func (s *Server) requireDraft(req mcp.CallToolRequest) (*pagebuilder.Draft, *mcp.CallToolResult) {
	slug, err := req.RequireString("pageSlug")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	s.mu.Lock()
	d := s.drafts[slug]
	s.mu.Unlock()
	if d == nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("no open draft for %s; call draft_open first", slug))
	}
	return d, nil
}

func findBlock(d *pagebuilder.Draft, key string) (models.ContentBlock, bool) {
	for _, b := range d.Blocks() {
		if b.SectionKey == key {
			return b, true
		}
	}
	return models.ContentBlock{}, false
}

// formErrors lists the per-field errors of a failed editor save.
func formErrors(form []pagebuilder.Field, err error) string {
	var msgs []string
	for _, f := range form {
		if f.Error != "" {
			msgs = append(msgs, f.Name+": "+f.Error)
		}
	}
	if len(msgs) == 0 {
		if errors.Is(err, blocks.ErrInvalidContent) {
			return "fields do not match the block schema"
		}
		return err.Error()
	}
	return "invalid fields: " + strings.Join(msgs, "; ")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func boolPtr(v bool) *bool { return &v }
