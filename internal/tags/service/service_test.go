package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"journeyon_backend/internal/tags/repository"
	"journeyon_backend/platform/apperr"
	"journeyon_backend/platform/logger"
)

type fakeTagRepo struct {
	created  []repository.CreateParams
	upserted []repository.UpsertItem
	nextID   int64
}

func (f *fakeTagRepo) Create(_ context.Context, params repository.CreateParams) (repository.Tag, error) {
	f.created = append(f.created, params)
	f.nextID++
	return repository.Tag{ID: f.nextID, UserID: params.UserID, Tag: params.Tag, Weight: params.Weight}, nil
}

func (f *fakeTagRepo) List(_ context.Context, userID int64, _ repository.ListFilter) ([]repository.Tag, error) {
	return []repository.Tag{{ID: 1, UserID: userID, Tag: "food"}}, nil
}

func (f *fakeTagRepo) Update(_ context.Context, tagID, userID int64, params repository.UpdateParams) (repository.Tag, error) {
	tag := repository.Tag{ID: tagID, UserID: userID, Tag: "updated"}
	if params.Tag != nil {
		tag.Tag = *params.Tag
	}
	return tag, nil
}

func (f *fakeTagRepo) Delete(context.Context, int64, int64) error { return nil }

func (f *fakeTagRepo) BulkUpsert(_ context.Context, userID int64, items []repository.UpsertItem) ([]repository.Tag, error) {
	f.upserted = append(f.upserted, items...)
	tags := make([]repository.Tag, 0, len(items))
	for i, item := range items {
		tags = append(tags, repository.Tag{ID: int64(i + 1), UserID: userID, Tag: item.Tag})
	}
	return tags, nil
}

func newTestService() (*Service, *fakeTagRepo) {
	repo := &fakeTagRepo{}
	return New(repo, logger.New("test")), repo
}

func isBadRequest(err error) bool {
	var appErr *apperr.Error
	return errors.As(err, &appErr) && appErr.Kind == apperr.KindBadRequest
}

func TestCreateRejectsInvalidTagName(t *testing.T) {
	svc, repo := newTestService()

	cases := []struct {
		name string
		tag  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"too long", strings.Repeat("x", 65)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), repository.CreateParams{UserID: 3, Tag: tc.tag})
			if !isBadRequest(err) {
				t.Fatalf("expected bad request, got %v", err)
			}
		})
	}
	if len(repo.created) != 0 {
		t.Fatalf("repo should not be called on invalid input")
	}
}

func TestCreateStoresTag(t *testing.T) {
	svc, repo := newTestService()
	weight := 0.8

	tag, err := svc.Create(context.Background(), repository.CreateParams{
		UserID: 3, Tag: "onsen", Weight: &weight,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tag.Tag != "onsen" || len(repo.created) != 1 {
		t.Fatalf("unexpected create result: %+v", tag)
	}
}

func TestListRejectsOutOfRangeLimit(t *testing.T) {
	svc, _ := newTestService()

	for _, limit := range []int{-1, 201} {
		_, err := svc.List(context.Background(), 3, repository.ListFilter{Limit: limit})
		if !isBadRequest(err) {
			t.Fatalf("limit %d: expected bad request, got %v", limit, err)
		}
	}
	if _, err := svc.List(context.Background(), 3, repository.ListFilter{Limit: 50}); err != nil {
		t.Fatalf("valid limit should pass: %v", err)
	}
}

func TestBulkUpsertSkipsUnnamedItems(t *testing.T) {
	svc, repo := newTestService()
	weight := 1.0

	tags, err := svc.BulkUpsert(context.Background(), 3, []repository.UpsertItem{
		{Tag: "food", Weight: &weight},
		{Tag: ""},
		{Tag: "   "},
		{Tag: "hiking"},
	})
	if err != nil {
		t.Fatalf("bulk upsert: %v", err)
	}
	if len(tags) != 2 || len(repo.upserted) != 2 {
		t.Fatalf("expected 2 upserted tags, got %d (repo saw %d)", len(tags), len(repo.upserted))
	}
	if repo.upserted[0].Tag != "food" || repo.upserted[1].Tag != "hiking" {
		t.Fatalf("unexpected upsert items: %+v", repo.upserted)
	}
}

func TestBulkUpsertAllInvalidReturnsEmpty(t *testing.T) {
	svc, repo := newTestService()

	tags, err := svc.BulkUpsert(context.Background(), 3, []repository.UpsertItem{{Tag: ""}})
	if err != nil {
		t.Fatalf("bulk upsert: %v", err)
	}
	if len(tags) != 0 || len(repo.upserted) != 0 {
		t.Fatal("expected no repo call and an empty result")
	}
}
