package media

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/auth"
	"github.com/starford/taproom/internal/testutil"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PublishSiteEvent(kind, subject string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+subject)
}

func (r *recorder) has(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			return true
		}
	}
	return false
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	lib, err := NewLibrary(t.TempDir(), "/uploads/")
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	return NewService(lib, testutil.TestDB(t), rec, quietLogger()), rec
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestLibraryPath(t *testing.T) {
	lib, err := NewLibrary(t.TempDir(), "uploads")
	if err != nil {
		t.Fatal(err)
	}
	for _, bad := range []string{"", "../x.png", "a/b.png", ".hidden.png", ".."} {
		if _, err := lib.Path(bad); err == nil {
			t.Errorf("Path(%q) should fail", bad)
		}
	}
	if _, err := lib.Path("ok.png"); err != nil {
		t.Errorf("Path(ok.png): %v", err)
	}
	if got := lib.URL("a.png"); got != "/uploads/a.png" {
		t.Errorf("URL = %q", got)
	}
}

func TestLibraryWriteListDelete(t *testing.T) {
	dir := t.TempDir()
	lib, _ := NewLibrary(dir, "/uploads")

	if err := lib.Write("b.png", pngBytes); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	files, err := lib.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name != "b.png" || files[0].Size != int64(len(pngBytes)) {
		t.Errorf("files = %+v", files)
	}
	if err := lib.Delete("b.png"); err != nil {
		t.Fatal(err)
	}
	if files, _ := lib.List(); len(files) != 0 {
		t.Errorf("files after delete = %+v", files)
	}
}

func TestCheckContent(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		ext  string
		ok   bool
	}{
		{"png", pngBytes, ".png", true},
		{"png upper ext", pngBytes, ".PNG", true},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), ".gif", true},
		{"jpeg as jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF"), ".jpeg", true},
		{"svg", []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`), ".svg", true},
		{"svg without tag", []byte("<html></html>"), ".svg", false},
		{"png named gif", pngBytes, ".gif", false},
		{"pdf", []byte("%PDF-1.4"), ".pdf", false},
		{"empty", nil, ".png", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckContent(tc.data, tc.ext)
			if (err == nil) != tc.ok {
				t.Errorf("CheckContent = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}

func TestDecodeDataURI(t *testing.T) {
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	data, ext, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if ext != ".png" || string(data) != string(pngBytes) {
		t.Errorf("ext = %q, %d bytes", ext, len(data))
	}
	if _, _, err := DecodeDataURI("data:text/plain;base64,aGk="); err == nil {
		t.Error("text/plain should be rejected")
	}
	if _, _, err := DecodeDataURI("https://example.com/a.png"); err == nil {
		t.Error("non data URI should be rejected")
	}
}

func TestUploadListDelete(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, nil, "a.png", pngBytes); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("anonymous upload err = %v", err)
	}
	if _, err := svc.Upload(ctx, auth.LocalAdmin, "a.exe", pngBytes); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad extension err = %v", err)
	}

	im, err := svc.Upload(ctx, auth.LocalAdmin, "Bar Photo.PNG", pngBytes)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(im.Filename, ".png") || im.URL != "/uploads/"+im.Filename {
		t.Errorf("image = %+v", im)
	}
	if _, err := os.Stat(filepath.Join(svc.Library().Root(), im.Filename)); err != nil {
		t.Errorf("file not written: %v", err)
	}
	if !rec.has("image.added:" + im.Filename) {
		t.Errorf("events = %v", rec.events)
	}

	list, err := svc.List(ctx, auth.LocalAdmin)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %+v, %v", list, err)
	}

	if err := svc.Delete(ctx, auth.LocalAdmin, "../etc/passwd"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("traversal delete err = %v", err)
	}
	if err := svc.Delete(ctx, auth.LocalAdmin, im.Filename); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(svc.Library().Root(), im.Filename)); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
	if err := svc.Delete(ctx, auth.LocalAdmin, im.Filename); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestSync(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := svc.Library().Root()

	_ = os.WriteFile(filepath.Join(root, "one.png"), pngBytes, 0o644)
	_ = os.WriteFile(filepath.Join(root, "two.png"), pngBytes, 0o644)
	if err := svc.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	list, _ := svc.List(ctx, auth.LocalAdmin)
	if len(list) != 2 {
		t.Fatalf("after first sync = %d images", len(list))
	}

	_ = os.Remove(filepath.Join(root, "one.png"))
	if err := svc.Sync(ctx); err != nil {
		t.Fatal(err)
	}
	list, _ = svc.List(ctx, auth.LocalAdmin)
	if len(list) != 1 || list[0].Filename != "two.png" {
		t.Errorf("after second sync = %+v", list)
	}
}

func TestWatcherRecordsAndForgets(t *testing.T) {
	svc, rec := newTestService(t)
	root := svc.Library().Root()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Watch(ctx)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "dropped.png"), pngBytes, 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("image.added:dropped.png")
	}, "expected image.added for dropped.png")

	_ = os.Remove(filepath.Join(root, "dropped.png"))
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("image.removed:dropped.png")
	}, "expected image.removed for dropped.png")

	_ = os.WriteFile(filepath.Join(root, "ignored.txt"), []byte("x"), 0o644)
	time.Sleep(200 * time.Millisecond)
	if rec.has("image.added:ignored.txt") {
		t.Error("non-image file should be ignored")
	}
}
