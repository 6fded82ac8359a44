package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/contentservice"
	"github.com/starford/taproom/internal/media"
	"github.com/starford/taproom/internal/models"
	"github.com/starford/taproom/internal/testutil"
)

func testServer(t *testing.T) (*Server, *contentservice.Service) {
	t.Helper()
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	lib, err := media.NewLibrary(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	content := contentservice.New(db, contentservice.WithLogger(logger))
	images := media.NewService(lib, db, nil, logger)
	return New(content, images), content
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_pages":         srv.listPages,
		"get_page_content":   srv.getPageContent,
		"render_page":        srv.renderPage,
		"get_block_contract": srv.getBlockContract,
		"draft_open":         srv.draftOpen,
		"draft_add_block":    srv.draftAddBlock,
		"draft_set_field":    srv.draftSetField,
		"draft_remove_block": srv.draftRemoveBlock,
		"draft_move_block":   srv.draftMoveBlock,
		"draft_show":         srv.draftShow,
		"draft_save":         srv.draftSave,
		"draft_discard":      srv.draftDiscard,
		"upload_image":       srv.uploadImage,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decode[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool failed: %s", resultText(r))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	return v
}

func TestDraftWorkflow(t *testing.T) {
	srv, _ := testServer(t)

	decode[draftView](t, callTool(t, srv, "draft_open", map[string]any{"pageSlug": "home"}))

	hero := decode[models.ContentBlock](t, callTool(t, srv, "draft_add_block", map[string]any{
		"pageSlug": "home", "contentType": "hero",
	}))
	if !strings.HasPrefix(hero.SectionKey, "hero-") {
		t.Errorf("sectionKey = %q", hero.SectionKey)
	}

	set := decode[models.ContentBlock](t, callTool(t, srv, "draft_set_field", map[string]any{
		"pageSlug": "home", "sectionKey": hero.SectionKey, "fields": `{"title":"Welcome"}`,
	}))
	if set.Content == nil || *set.Content != `{"title":"Welcome"}` {
		t.Errorf("content = %v", set.Content)
	}

	text := decode[models.ContentBlock](t, callTool(t, srv, "draft_add_block", map[string]any{
		"pageSlug": "home", "contentType": "text", "position": float64(0),
	}))

	// Nothing is stored until draft_save.
	saved := decode[[]models.ContentBlock](t, callTool(t, srv, "get_page_content", map[string]any{"pageSlug": "home"}))
	if len(saved) != 0 {
		t.Fatalf("stored before save: %+v", saved)
	}

	shown := decode[draftView](t, callTool(t, srv, "draft_show", map[string]any{"pageSlug": "home"}))
	if !shown.Dirty || len(shown.Blocks) != 2 || shown.Blocks[0].SectionKey != text.SectionKey {
		t.Fatalf("draft = %+v", shown)
	}

	after := decode[draftView](t, callTool(t, srv, "draft_save", map[string]any{"pageSlug": "home"}))
	if after.Dirty {
		t.Error("draft still dirty after save")
	}

	saved = decode[[]models.ContentBlock](t, callTool(t, srv, "get_page_content", map[string]any{"pageSlug": "home"}))
	if len(saved) != 2 || saved[0].ContentType != "text" || saved[1].SectionKey != hero.SectionKey {
		t.Fatalf("saved = %+v", saved)
	}
	if saved[1].ID == 0 {
		t.Error("saved block has no id")
	}
}

func TestDraftRequiresOpen(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "draft_add_block", map[string]any{"pageSlug": "home", "contentType": "text"})
	if !r.IsError || !strings.Contains(resultText(r), "draft_open") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestDraftOpenRefusesDirty(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "draft_open", map[string]any{"pageSlug": "home"})
	callTool(t, srv, "draft_add_block", map[string]any{"pageSlug": "home", "contentType": "divider"})

	r := callTool(t, srv, "draft_open", map[string]any{"pageSlug": "home"})
	if !r.IsError {
		t.Fatal("expected error reopening a dirty draft")
	}

	r = callTool(t, srv, "draft_discard", map[string]any{"pageSlug": "home"})
	if r.IsError {
		t.Fatalf("discard: %s", resultText(r))
	}
	v := decode[draftView](t, callTool(t, srv, "draft_open", map[string]any{"pageSlug": "home"}))
	if v.Dirty || len(v.Blocks) != 0 {
		t.Errorf("reopened draft = %+v", v)
	}
}

func TestDraftSetFieldValidation(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "draft_open", map[string]any{"pageSlug": "home"})
	b := decode[models.ContentBlock](t, callTool(t, srv, "draft_add_block", map[string]any{
		"pageSlug": "home", "contentType": "heading",
	}))

	r := callTool(t, srv, "draft_set_field", map[string]any{
		"pageSlug": "home", "sectionKey": b.SectionKey, "fields": `{"heading":"Menu","headingLevel":"h9"}`,
	})
	if !r.IsError || !strings.Contains(resultText(r), "headingLevel") {
		t.Fatalf("result = %q", resultText(r))
	}

	// The rejected edit leaves the block as it was.
	v := decode[draftView](t, callTool(t, srv, "draft_show", map[string]any{"pageSlug": "home"}))
	if *v.Blocks[0].Content != "{}" {
		t.Errorf("content = %s", *v.Blocks[0].Content)
	}

	r = callTool(t, srv, "draft_set_field", map[string]any{
		"pageSlug": "home", "sectionKey": b.SectionKey, "fields": `{"colour":"red"}`,
	})
	if !r.IsError {
		t.Error("expected error for unknown field")
	}
}

func TestDraftAddUnknownType(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "draft_open", map[string]any{"pageSlug": "home"})
	r := callTool(t, srv, "draft_add_block", map[string]any{"pageSlug": "home", "contentType": "carousel"})
	if !r.IsError {
		t.Error("expected error for unknown content type")
	}
}

func TestDraftMoveAndRemove(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "draft_open", map[string]any{"pageSlug": "about"})
	a := decode[models.ContentBlock](t, callTool(t, srv, "draft_add_block", map[string]any{"pageSlug": "about", "contentType": "text"}))
	b := decode[models.ContentBlock](t, callTool(t, srv, "draft_add_block", map[string]any{"pageSlug": "about", "contentType": "divider"}))

	v := decode[draftView](t, callTool(t, srv, "draft_move_block", map[string]any{
		"pageSlug": "about", "sectionKey": b.SectionKey, "position": float64(0),
	}))
	if v.Blocks[0].SectionKey != b.SectionKey || v.Blocks[1].SectionKey != a.SectionKey {
		t.Fatalf("order = %+v", v.Blocks)
	}

	r := callTool(t, srv, "draft_move_block", map[string]any{
		"pageSlug": "about", "sectionKey": a.SectionKey, "position": float64(5),
	})
	if !r.IsError {
		t.Error("expected error for out of range position")
	}

	v = decode[draftView](t, callTool(t, srv, "draft_remove_block", map[string]any{
		"pageSlug": "about", "sectionKey": b.SectionKey,
	}))
	if len(v.Blocks) != 1 || v.Blocks[0].SectionKey != a.SectionKey {
		t.Errorf("blocks = %+v", v.Blocks)
	}
}

func TestRenderPage(t *testing.T) {
	srv, content := testServer(t)
	hero := `{"title":"Happy hour"}`
	if _, err := content.Save(context.Background(), auth.LocalAdmin, "home", []models.BlockInput{
		{SectionKey: "hero-1", ContentType: "hero", Content: &hero},
		{SectionKey: "x-1", ContentType: "carousel", Content: testutil.Ptr("{}")},
	}); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "render_page", map[string]any{"pageSlug": "home"})
	text := resultText(r)
	if r.IsError || !strings.Contains(text, "Happy hour") || !strings.Contains(text, "Unknown content type: carousel") {
		t.Errorf("render = %q", text)
	}
}

func TestGetBlockContract(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_block_contract", nil))
	for _, want := range []string{"hero", "draft_save", "upload_image"} {
		if !strings.Contains(text, want) {
			t.Errorf("contract missing %q", want)
		}
	}
}

func TestUploadImageDataURI(t *testing.T) {
	srv, _ := testServer(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	res := decode[uploadResult](t, callTool(t, srv, "upload_image", map[string]any{"url": uri}))
	if !strings.HasPrefix(res.URL, "/uploads/") || !strings.HasSuffix(res.Filename, ".png") {
		t.Errorf("upload = %+v", res)
	}
	if res.Size != int64(len(png)) {
		t.Errorf("size = %d", res.Size)
	}
}

func TestUploadImageRejects(t *testing.T) {
	srv, _ := testServer(t)
	for _, url := range []string{
		"ftp://example.com/a.png",
		"http://127.0.0.1/a.png",
		"data:text/plain;base64,aGVsbG8=",
	} {
		if r := callTool(t, srv, "upload_image", map[string]any{"url": url}); !r.IsError {
			t.Errorf("%s: expected error", url)
		}
	}
}
