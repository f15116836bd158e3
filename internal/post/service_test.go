package post

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/quill/internal/model"
	"github.com/hitoshi/quill/internal/security"
)

// --- モック ---

type mockPostRepo struct {
	listPublishedFn func(ctx context.Context) ([]*model.Post, error)
	findByIDFn      func(ctx context.Context, id string) (*model.Post, error)
	createFn        func(ctx context.Context, post *model.Post) error
	replaceFn       func(ctx context.Context, post *model.Post) (*model.Post, error)
	patchFn         func(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error)
	deleteFn        func(ctx context.Context, id string) (bool, error)
}

func (m *mockPostRepo) ListPublished(ctx context.Context) ([]*model.Post, error) {
	if m.listPublishedFn != nil {
		return m.listPublishedFn(ctx)
	}
	return nil, nil
}
func (m *mockPostRepo) FindByID(ctx context.Context, id string) (*model.Post, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error {
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return nil
}
func (m *mockPostRepo) Replace(ctx context.Context, post *model.Post) (*model.Post, error) {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, post)
	}
	return nil, nil
}
func (m *mockPostRepo) Patch(ctx context.Context, id string, patch model.PostPatch) (*model.Post, error) {
	if m.patchFn != nil {
		return m.patchFn(ctx, id, patch)
	}
	return nil, nil
}
func (m *mockPostRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, nil
}

// --- ヘルパー ---

func newTestService(repo *mockPostRepo) *Service {
	return NewService(repo, security.NewContentSanitizer())
}

func assertAPIError(t *testing.T, err error, code int, message string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %v", err)
	}
	if apiErr.Code != code || apiErr.Message != message {
		t.Errorf("APIError = %+v, want code=%d message=%q", apiErr, code, message)
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// --- List ---

func TestList_ReturnsPublishedPosts(t *testing.T) {
	posts := []*model.Post{{ID: "p2", Published: true}, {ID: "p1", Published: true}}
	svc := newTestService(&mockPostRepo{
		listPublishedFn: func(context.Context) ([]*model.Post, error) { return posts, nil },
	})

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p2" {
		t.Errorf("unexpected posts: %+v", got)
	}
}

func TestList_NilFromRepository_ReturnsEmptySlice(t *testing.T) {
	svc := newTestService(&mockPostRepo{})

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

// --- Get ---

func TestGet(t *testing.T) {
	svc := newTestService(&mockPostRepo{
		findByIDFn: func(_ context.Context, id string) (*model.Post, error) {
			if id == "p1" {
				return &model.Post{ID: "p1", Title: "T"}, nil
			}
			return nil, nil
		},
	})

	got, err := svc.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Title != "T" {
		t.Errorf("Title = %q, want %q", got.Title, "T")
	}

	_, err = svc.Get(context.Background(), "missing")
	assertAPIError(t, err, http.StatusBadRequest, model.MsgPostNotFound)
}

// --- Create ---

func TestCreate_SetsAuthorFromCallerAndSanitizes(t *testing.T) {
	var saved *model.Post
	svc := newTestService(&mockPostRepo{
		createFn: func(_ context.Context, post *model.Post) error {
			saved = post
			return nil
		},
	})
	fixed := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	got, err := svc.Create(context.Background(), "user-1", Input{
		Title:     "<b>Hello</b>",
		Content:   "<p>Body</p><script>alert(1)</script>",
		Published: true,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if saved != got {
		t.Error("returned post should be the persisted post")
	}
	if got.AuthorID != "user-1" {
		t.Errorf("AuthorID = %q, want %q", got.AuthorID, "user-1")
	}
	if _, err := uuid.Parse(got.ID); err != nil {
		t.Errorf("ID %q is not a UUID", got.ID)
	}
	if got.Title != "Hello" {
		t.Errorf("Title = %q, want %q", got.Title, "Hello")
	}
	if got.Content != "<p>Body</p>" {
		t.Errorf("Content = %q, want %q", got.Content, "<p>Body</p>")
	}
	if !got.Published {
		t.Error("Published should be true")
	}
	if !got.CreatedAt.Equal(fixed) || !got.UpdatedAt.Equal(fixed) {
		t.Errorf("timestamps = %v/%v, want %v", got.CreatedAt, got.UpdatedAt, fixed)
	}
}

func TestCreate_TitleEmptyAfterSanitize_ReturnsValidationError(t *testing.T) {
	createCalled := false
	svc := newTestService(&mockPostRepo{
		createFn: func(context.Context, *model.Post) error {
			createCalled = true
			return nil
		},
	})

	_, err := svc.Create(context.Background(), "user-1", Input{Title: "<script>x</script>", Content: "c"})
	assertAPIError(t, err, http.StatusBadRequest, model.MsgValidationError)
	if createCalled {
		t.Error("Create should not reach the repository")
	}
}

func TestCreate_TitleLength(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
	}{
		{name: "上限ちょうど", title: strings.Repeat("a", MaxTitleLength), wantErr: false},
		{name: "上限超過", title: strings.Repeat("a", MaxTitleLength+1), wantErr: true},
		{name: "マルチバイトは文字数で数える", title: strings.Repeat("あ", MaxTitleLength), wantErr: false},
		{name: "タグ除去後の長さで判定", title: "<b>" + strings.Repeat("a", MaxTitleLength) + "</b>", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockPostRepo{})
			_, err := svc.Create(context.Background(), "user-1", Input{Title: tt.title, Content: "c"})
			if tt.wantErr {
				assertAPIError(t, err, http.StatusBadRequest, model.MsgValidationError)
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreate_RepositoryError_IsWrapped(t *testing.T) {
	dbErr := errors.New("insert failed")
	svc := newTestService(&mockPostRepo{
		createFn: func(context.Context, *model.Post) error { return dbErr },
	})

	_, err := svc.Create(context.Background(), "user-1", Input{Title: "T", Content: "C"})
	if !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped %v, got %v", dbErr, err)
	}
}

// --- Update ---

func TestUpdate_PassesOnlyProvidedFields(t *testing.T) {
	var gotPatch model.PostPatch
	svc := newTestService(&mockPostRepo{
		patchFn: func(_ context.Context, id string, patch model.PostPatch) (*model.Post, error) {
			gotPatch = patch
			return &model.Post{ID: id, Title: *patch.Title, Content: "kept", Published: true}, nil
		},
	})

	got, err := svc.Update(context.Background(), "p1", model.PostPatch{Title: strPtr("<i>New</i>")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if gotPatch.Title == nil || *gotPatch.Title != "New" {
		t.Errorf("patch title = %v, want sanitized %q", gotPatch.Title, "New")
	}
	if gotPatch.Content != nil || gotPatch.Published != nil {
		t.Errorf("omitted fields should stay nil: %+v", gotPatch)
	}
	if got.Content != "kept" {
		t.Errorf("Content = %q, want %q", got.Content, "kept")
	}
}

func TestUpdate_PublishedOnly(t *testing.T) {
	var gotPatch model.PostPatch
	svc := newTestService(&mockPostRepo{
		patchFn: func(_ context.Context, id string, patch model.PostPatch) (*model.Post, error) {
			gotPatch = patch
			return &model.Post{ID: id}, nil
		},
	})

	if _, err := svc.Update(context.Background(), "p1", model.PostPatch{Published: boolPtr(false)}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if gotPatch.Published == nil || *gotPatch.Published {
		t.Errorf("Published = %v, want false", gotPatch.Published)
	}
}

func TestUpdate_EmptyPatch_ReturnsValidationError(t *testing.T) {
	svc := newTestService(&mockPostRepo{
		patchFn: func(context.Context, string, model.PostPatch) (*model.Post, error) {
			t.Error("repository should not be called")
			return nil, nil
		},
	})

	_, err := svc.Update(context.Background(), "p1", model.PostPatch{})
	assertAPIError(t, err, http.StatusBadRequest, model.MsgValidationError)
}

func TestUpdate_InvalidFields_ReturnsValidationError(t *testing.T) {
	tests := []struct {
		name  string
		patch model.PostPatch
	}{
		{name: "本文が空", patch: model.PostPatch{Content: strPtr("")}},
		{name: "タイトルが上限超過", patch: model.PostPatch{Title: strPtr(strings.Repeat("a", MaxTitleLength+1))}},
		{name: "タイトルがタグのみ", patch: model.PostPatch{Title: strPtr("<script>x</script>")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockPostRepo{
				patchFn: func(context.Context, string, model.PostPatch) (*model.Post, error) {
					t.Error("repository should not be called")
					return nil, nil
				},
			})

			_, err := svc.Update(context.Background(), "p1", tt.patch)
			assertAPIError(t, err, http.StatusBadRequest, model.MsgValidationError)
		})
	}
}

func TestUpdate_NotFound_ReturnsPostNotFound(t *testing.T) {
	svc := newTestService(&mockPostRepo{})

	_, err := svc.Update(context.Background(), "missing", model.PostPatch{Content: strPtr("c")})
	assertAPIError(t, err, http.StatusBadRequest, model.MsgPostNotFound)
}

// --- Replace ---

func TestReplace_OverwritesAllFields(t *testing.T) {
	var gotPost *model.Post
	svc := newTestService(&mockPostRepo{
		replaceFn: func(_ context.Context, post *model.Post) (*model.Post, error) {
			gotPost = post
			return &model.Post{ID: post.ID, Title: post.Title, Content: post.Content, Published: post.Published, AuthorID: "user-1"}, nil
		},
	})

	got, err := svc.Replace(context.Background(), "p1", Input{Title: "T2", Content: "C2", Published: false})
	if err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	if gotPost.ID != "p1" || gotPost.Title != "T2" || gotPost.Content != "C2" || gotPost.Published {
		t.Errorf("unexpected replacement: %+v", gotPost)
	}
	if got.AuthorID != "user-1" {
		t.Errorf("AuthorID = %q, want stored author", got.AuthorID)
	}
}

func TestReplace_NotFound_ReturnsPostNotFound(t *testing.T) {
	svc := newTestService(&mockPostRepo{})

	_, err := svc.Replace(context.Background(), "missing", Input{Title: "T", Content: "C"})
	assertAPIError(t, err, http.StatusBadRequest, model.MsgPostNotFound)
}

// --- Delete ---

func TestDelete(t *testing.T) {
	svc := newTestService(&mockPostRepo{
		deleteFn: func(_ context.Context, id string) (bool, error) { return id == "p1", nil },
	})

	if err := svc.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	err := svc.Delete(context.Background(), "missing")
	assertAPIError(t, err, http.StatusBadRequest, model.MsgPostNotFound)
}

func TestDelete_RepositoryError_IsWrapped(t *testing.T) {
	dbErr := errors.New("delete failed")
	svc := newTestService(&mockPostRepo{
		deleteFn: func(context.Context, string) (bool, error) { return false, dbErr },
	})

	err := svc.Delete(context.Background(), "p1")
	if !errors.Is(err, dbErr) {
		t.Errorf("expected wrapped %v, got %v", dbErr, err)
	}
}
