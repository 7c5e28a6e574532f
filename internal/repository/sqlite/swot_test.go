package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/model"
)

func TestGetOrCreateSWOT_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")

	first, err := db.GetOrCreateSWOT(ctx, idea.ID)
	if err != nil {
		t.Fatalf("GetOrCreateSWOT() error = %v", err)
	}
	second, err := db.GetOrCreateSWOT(ctx, idea.ID)
	if err != nil {
		t.Fatalf("GetOrCreateSWOT() second call error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second call created a new SWOT (%s != %s)", second.ID, first.ID)
	}
}

func TestReplaceSWOTItems(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")
	swot, _ := db.GetOrCreateSWOT(ctx, idea.ID)

	db.CreateSWOTItem(ctx, &model.SWOTItem{SWOTID: swot.ID, Category: model.SWOTStrength, Content: "manual"})

	err := db.ReplaceSWOTItems(ctx, swot.ID, []*model.SWOTItem{
		{Category: model.SWOTStrength, Content: "brand"},
		{Category: model.SWOTThreat, Content: "competition"},
	})
	if err != nil {
		t.Fatalf("ReplaceSWOTItems() error = %v", err)
	}

	items, err := db.ListSWOTItems(ctx, swot.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("ListSWOTItems() returned %d items, want 2", len(items))
	}
	if items[0].Content != "brand" || items[1].Category != model.SWOTThreat {
		t.Errorf("items = %+v", items)
	}
}

func TestSWOTItemUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")
	swot, _ := db.GetOrCreateSWOT(ctx, idea.ID)

	item := &model.SWOTItem{SWOTID: swot.ID, Category: model.SWOTWeakness, Content: "small team"}
	if err := db.CreateSWOTItem(ctx, item); err != nil {
		t.Fatal(err)
	}

	item.Category = model.SWOTStrength
	if err := db.UpdateSWOTItem(ctx, item); err != nil {
		t.Fatalf("UpdateSWOTItem() error = %v", err)
	}
	got, _ := db.GetSWOTItem(ctx, item.ID)
	if got.Category != model.SWOTStrength {
		t.Errorf("Category = %q, want strength", got.Category)
	}

	if err := db.DeleteSWOTItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteSWOTItem() error = %v", err)
	}
	if _, err := db.GetSWOTItem(ctx, item.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSWOTItem() after delete error = %v, want ErrNotFound", err)
	}
}

func TestLatestSWOTAnalysis(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")
	swot, _ := db.GetOrCreateSWOT(ctx, idea.ID)

	if _, err := db.LatestSWOTAnalysis(ctx, swot.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("LatestSWOTAnalysis() on empty error = %v, want ErrNotFound", err)
	}

	db.CreateSWOTAnalysis(ctx, &model.SWOTAnalysis{SWOTID: swot.ID, Content: "first"})
	db.CreateSWOTAnalysis(ctx, &model.SWOTAnalysis{SWOTID: swot.ID, Content: "second"})

	got, err := db.LatestSWOTAnalysis(ctx, swot.ID)
	if err != nil {
		t.Fatalf("LatestSWOTAnalysis() error = %v", err)
	}
	if got.Content != "second" {
		t.Errorf("LatestSWOTAnalysis() = %q, want second", got.Content)
	}
}
