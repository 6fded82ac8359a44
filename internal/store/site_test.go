package store

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/taproom/internal/apperr"
	"github.com/starford/taproom/internal/models"
)

func TestPagesLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	about := &models.Page{Slug: "about", Title: "About us", Published: true}
	if err := db.CreatePage(ctx, about); err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if err := db.CreatePage(ctx, &models.Page{Slug: "draft", Title: "Draft"}); err != nil {
		t.Fatal(err)
	}
	if err := db.CreatePage(ctx, &models.Page{Slug: "about", Title: "Again"}); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate slug err = %v", err)
	}

	public, _ := db.ListPages(ctx, false)
	all, _ := db.ListPages(ctx, true)
	if len(public) != 1 || len(all) != 2 {
		t.Errorf("public = %d, all = %d", len(public), len(all))
	}

	about.Title = "About"
	if err := db.UpdatePage(ctx, about); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetPage(ctx, "about")
	if err != nil || got.Title != "About" || !got.Published {
		t.Fatalf("GetPage = %+v, %v", got, err)
	}

	if _, err := db.ReplacePage(ctx, "about", []models.BlockInput{block("h", "hero", `{}`)}); err != nil {
		t.Fatal(err)
	}
	if err := db.DeletePage(ctx, "about"); err != nil {
		t.Fatal(err)
	}
	blocks, _ := db.ListByPage(ctx, "about")
	if len(blocks) != 0 {
		t.Errorf("content survived page delete: %d", len(blocks))
	}
	if _, err := db.GetPage(ctx, "about"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetPage after delete err = %v", err)
	}
	if err := db.DeletePage(ctx, "about"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestStaffAndMenu(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	sam := &models.StaffMember{Name: "Sam", Position: "Bartender", Active: true, DisplayOrder: 2}
	kim := &models.StaffMember{Name: "Kim", Position: "Owner", Active: true, DisplayOrder: 1}
	gone := &models.StaffMember{Name: "Lee", Active: false}
	for _, m := range []*models.StaffMember{sam, kim, gone} {
		if err := db.CreateStaff(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	active, _ := db.ListStaff(ctx, false)
	if len(active) != 2 || active[0].Name != "Kim" {
		t.Errorf("active staff = %+v", active)
	}
	sam.Position = "Head bartender"
	if err := db.UpdateStaff(ctx, sam); err != nil {
		t.Fatal(err)
	}
	got, _ := db.GetStaff(ctx, sam.ID)
	if got.Position != "Head bartender" {
		t.Errorf("position = %q", got.Position)
	}
	if err := db.DeleteStaff(ctx, gone.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetStaff(ctx, gone.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted staff err = %v", err)
	}

	ipa := &models.MenuItem{Name: "IPA", Category: "beer", Price: 650, Available: true}
	stout := &models.MenuItem{Name: "Stout", Category: "beer", Price: 700, Available: false}
	for _, it := range []*models.MenuItem{ipa, stout} {
		if err := db.CreateMenuItem(ctx, it); err != nil {
			t.Fatal(err)
		}
	}
	menu, _ := db.ListMenu(ctx, false)
	if len(menu) != 1 || menu[0].Price != 650 {
		t.Errorf("menu = %+v", menu)
	}
	stout.Available = true
	if err := db.UpdateMenuItem(ctx, stout); err != nil {
		t.Fatal(err)
	}
	menu, _ = db.ListMenu(ctx, false)
	if len(menu) != 2 {
		t.Errorf("menu after update = %d", len(menu))
	}
	if err := db.DeleteMenuItem(ctx, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("delete missing err = %v", err)
	}
}

func TestSettings(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.PutSettings(ctx, map[string]string{"siteName": "The Taproom", "phone": "555"}); err != nil {
		t.Fatal(err)
	}
	if err := db.PutSettings(ctx, map[string]string{"phone": "556"}); err != nil {
		t.Fatal(err)
	}
	got, err := db.Settings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got["siteName"] != "The Taproom" || got["phone"] != "556" {
		t.Errorf("settings = %v", got)
	}
}

func TestImages(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	im := &models.Image{Filename: "a.png", URL: "/uploads/a.png", Size: 10}
	if err := db.UpsertImage(ctx, im); err != nil {
		t.Fatal(err)
	}
	if im.ID == 0 {
		t.Error("id not set")
	}
	im.Size = 20
	if err := db.UpsertImage(ctx, im); err != nil {
		t.Fatal(err)
	}
	sizes, _ := db.ImageSizes(ctx)
	if sizes["a.png"] != 20 || len(sizes) != 1 {
		t.Errorf("sizes = %v", sizes)
	}
	one, err := db.ImageByFilename(ctx, "a.png")
	if err != nil || one.Size != 20 {
		t.Errorf("ImageByFilename = %+v, %v", one, err)
	}
	list, _ := db.ListImages(ctx)
	if len(list) != 1 || list[0].URL != "/uploads/a.png" {
		t.Errorf("list = %+v", list)
	}
	if err := db.DeleteImage(ctx, "a.png"); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteImage(ctx, "a.png"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if _, err := db.ImageByFilename(ctx, "a.png"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted image err = %v", err)
	}
}

func TestUsers(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	u := &models.User{Email: "boss@example.com", Name: "Boss", Role: "admin", PasswordHash: "x"}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateUser(ctx, &models.User{Email: "boss@example.com", Role: "viewer", PasswordHash: "y"}); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate email err = %v", err)
	}
	got, err := db.UserByEmail(ctx, "boss@example.com")
	if err != nil || got.ID != u.ID || got.PasswordHash != "x" {
		t.Fatalf("UserByEmail = %+v, %v", got, err)
	}
	if _, err := db.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing user err = %v", err)
	}
	list, _ := db.ListUsers(ctx)
	if len(list) != 1 {
		t.Errorf("users = %d", len(list))
	}
	if err := db.DeleteUser(ctx, u.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := db.UserByID(ctx, u.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted user err = %v", err)
	}
}
