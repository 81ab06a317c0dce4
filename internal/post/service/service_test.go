package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/inkpost/internal/account/domain"
	"github.com/smallbiznis/inkpost/internal/clock"
	"github.com/smallbiznis/inkpost/internal/observability/metrics"
	"github.com/smallbiznis/inkpost/internal/post/domain"
	"github.com/smallbiznis/inkpost/internal/post/repository"
	"github.com/smallbiznis/inkpost/pkg/db"
	"go.uber.org/zap"
)

const (
	authorA = snowflake.ID(1001)
	authorB = snowflake.ID(1002)
)

type fakeAccounts struct {
	accountdomain.Service
	known map[snowflake.ID]bool
}

func (f *fakeAccounts) GetByID(ctx context.Context, id snowflake.ID) (*accountdomain.Account, error) {
	if !f.known[id] {
		return nil, accountdomain.ErrNotFound
	}
	return &accountdomain.Account{ID: id, IsActive: true}, nil
}

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.Post{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2024, 8, 1, 8, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:       dbConn,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Accounts: &fakeAccounts{known: map[snowflake.ID]bool{authorA: true, authorB: true}},
		Clock:    clk,
		Metrics:  metrics.NewNoop(),
	})
	return svc, clk
}

func createPost(t *testing.T, svc domain.Service, author snowflake.ID, title, status string) *domain.Post {
	t.Helper()
	post, err := svc.Create(context.Background(), author, domain.CreatePostRequest{
		Title:  title,
		Body:   "body of " + title,
		Status: status,
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func ptr[T any](v T) *T { return &v }

func TestCreateDefaultsAndSlug(t *testing.T) {
	svc, clk := newTestService(t)

	post := createPost(t, svc, authorA, "Hello, World Again!", "")
	if post.Status != domain.StatusDraft {
		t.Fatalf("expected draft by default, got %s", post.Status)
	}
	if post.Slug != "hello-world-again" {
		t.Fatalf("unexpected slug %q", post.Slug)
	}
	if !post.Publish.Equal(clk.Now()) {
		t.Fatalf("expected publish to default to now, got %v", post.Publish)
	}
	if post.AuthorID != authorA {
		t.Fatalf("expected author %d, got %d", authorA, post.AuthorID)
	}
}

func TestCreateRejectsForeignAuthor(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), authorA, domain.CreatePostRequest{
		AuthorID: authorB.String(),
		Title:    "Mine",
		Body:     "text",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		name string
		req  domain.CreatePostRequest
		want error
	}{
		{"missing title", domain.CreatePostRequest{Body: "x"}, domain.ErrInvalidTitle},
		{"long title", domain.CreatePostRequest{Title: strings.Repeat("t", 101), Body: "x"}, domain.ErrInvalidTitle},
		{"missing body", domain.CreatePostRequest{Title: "t"}, domain.ErrInvalidBody},
		{"bad status", domain.CreatePostRequest{Title: "t", Body: "x", Status: "XX"}, domain.ErrInvalidStatus},
		{"bad slug", domain.CreatePostRequest{Title: "t", Body: "x", Slug: "Not A Slug"}, domain.ErrInvalidSlug},
		{"bad author", domain.CreatePostRequest{Title: "t", Body: "x", AuthorID: "abc"}, domain.ErrInvalidAuthor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), authorA, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestListPublishedOnlyReturnsPublishedNewestFirst(t *testing.T) {
	svc, clk := newTestService(t)

	createPost(t, svc, authorA, "Draft", "DF")
	older := createPost(t, svc, authorA, "Older", "PB")
	clk.Advance(time.Hour)
	newer := createPost(t, svc, authorB, "Newer", "published")

	posts, err := svc.ListPublished(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 published posts, got %d", len(posts))
	}
	if posts[0].ID != newer.ID || posts[1].ID != older.ID {
		t.Fatalf("unexpected order: %v, %v", posts[0].Title, posts[1].Title)
	}
}

func TestGetHidesDrafts(t *testing.T) {
	svc, _ := newTestService(t)
	draft := createPost(t, svc, authorA, "Draft", "DF")
	published := createPost(t, svc, authorA, "Live", "PB")

	if _, err := svc.Get(context.Background(), draft.ID.String()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for draft, got %v", err)
	}
	got, err := svc.Get(context.Background(), published.ID.String())
	if err != nil || got.ID != published.ID {
		t.Fatalf("unexpected get result %v, %v", got, err)
	}
	if _, err := svc.Get(context.Background(), "not-a-number"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestUpdateByAuthor(t *testing.T) {
	svc, clk := newTestService(t)
	post := createPost(t, svc, authorA, "Live", "PB")
	clk.Advance(time.Minute)

	updated, err := svc.Update(context.Background(), post.ID.String(), authorA, domain.UpdatePostRequest{
		Title: ptr("Live and Edited"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Live and Edited" || updated.Body != post.Body {
		t.Fatalf("unexpected partial update result %+v", updated)
	}
	if !updated.UpdatedAt.After(post.UpdatedAt) {
		t.Fatalf("expected updated_at to move forward")
	}
	if updated.AuthorID != authorA {
		t.Fatalf("author must not change")
	}
}

func TestUpdateAndDeleteRequireAuthor(t *testing.T) {
	svc, _ := newTestService(t)
	post := createPost(t, svc, authorA, "Live", "PB")

	if _, err := svc.Update(context.Background(), post.ID.String(), authorB, domain.UpdatePostRequest{Body: ptr("hijack")}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on update, got %v", err)
	}
	if _, err := svc.Delete(context.Background(), post.ID.String(), authorB); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete, got %v", err)
	}

	got, err := svc.Get(context.Background(), post.ID.String())
	if err != nil || got.Body != post.Body {
		t.Fatalf("post must be unchanged, got %+v, %v", got, err)
	}
}

func TestMutationsOnDraftsAreNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	draft := createPost(t, svc, authorA, "Draft", "DF")

	if _, err := svc.Update(context.Background(), draft.ID.String(), authorA, domain.UpdatePostRequest{Status: ptr("PB")}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Delete(context.Background(), draft.ID.String(), authorA); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteReturnsDeletedPost(t *testing.T) {
	svc, _ := newTestService(t)
	post := createPost(t, svc, authorA, "Live", "PB")

	deleted, err := svc.Delete(context.Background(), post.ID.String(), authorA)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.ID != post.ID {
		t.Fatalf("expected deleted representation")
	}
	if _, err := svc.Get(context.Background(), post.ID.String()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected post to be gone, got %v", err)
	}
}

func TestListByAuthorIncludesDrafts(t *testing.T) {
	svc, _ := newTestService(t)
	createPost(t, svc, authorA, "Draft", "DF")
	createPost(t, svc, authorA, "Live", "PB")
	createPost(t, svc, authorB, "Other", "PB")

	posts, err := svc.ListByAuthor(context.Background(), authorA.String())
	if err != nil {
		t.Fatalf("list by author: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}

	if _, err := svc.ListByAuthor(context.Background(), "424242"); !errors.Is(err, domain.ErrAuthorNotFound) {
		t.Fatalf("expected ErrAuthorNotFound, got %v", err)
	}
}
