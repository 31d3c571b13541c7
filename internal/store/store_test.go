package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateProject(t *testing.T, s *Store, name string) *Project {
	t.Helper()
	p, err := s.CreateProject(context.Background(), Project{Name: name, RepoPath: "/repos/" + name})
	require.NoError(t, err)
	return p
}

func TestProjectCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "demo")
	assert.NotEmpty(t, p.ID)

	t.Run("get", func(t *testing.T) {
		got, err := s.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "demo", got.Name)
		assert.Equal(t, "/repos/demo", got.RepoPath)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.GetProject(ctx, "no-such-id")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		mustCreateProject(t, s, "another")
		all, err := s.ListProjects(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("partial update", func(t *testing.T) {
		desc := "a demo project"
		got, err := s.UpdateProject(ctx, p.ID, ProjectUpdate{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "a demo project", got.Description)
		assert.Equal(t, "demo", got.Name) // untouched
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteProject(ctx, p.ID))
		_, err := s.GetProject(ctx, p.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteProject(ctx, p.ID), ErrNotFound)
	})
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "cascade")
	page, err := s.CreatePage(ctx, Page{ProjectID: p.ID, Name: "index", Title: "Index"})
	require.NoError(t, err)
	sample, err := s.CreateCodeSample(ctx, CodeSample{ProjectID: p.ID, Title: "hello", Language: "go"})
	require.NoError(t, err)
	doc, err := s.CreateDocPage(ctx, DocPage{ProjectID: p.ID, Title: "overview", Content: "# hi"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProject(ctx, p.ID))

	_, err = s.GetPageByProjectAndName(ctx, p.ID, page.Name)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetCodeSample(ctx, sample.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetDocPage(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPageCompositeKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "pages")
	other := mustCreateProject(t, s, "other")

	_, err := s.CreatePage(ctx, Page{ProjectID: p.ID, Name: "setup", Title: "Setup", Content: "steps"})
	require.NoError(t, err)

	t.Run("lookup by project and name", func(t *testing.T) {
		got, err := s.GetPageByProjectAndName(ctx, p.ID, "setup")
		require.NoError(t, err)
		assert.Equal(t, "Setup", got.Title)
	})

	t.Run("same name allowed in another project", func(t *testing.T) {
		_, err := s.CreatePage(ctx, Page{ProjectID: other.ID, Name: "setup", Title: "Other setup"})
		assert.NoError(t, err)
	})

	t.Run("duplicate name in same project rejected", func(t *testing.T) {
		_, err := s.CreatePage(ctx, Page{ProjectID: p.ID, Name: "setup", Title: "again"})
		assert.ErrorIs(t, err, ErrDuplicatePage)
	})

	t.Run("missing project rejected", func(t *testing.T) {
		_, err := s.CreatePage(ctx, Page{ProjectID: "ghost", Name: "x", Title: "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update content only", func(t *testing.T) {
		page, err := s.GetPageByProjectAndName(ctx, p.ID, "setup")
		require.NoError(t, err)
		content := "new steps"
		got, err := s.UpdatePage(ctx, page.ID, PageUpdate{Content: &content})
		require.NoError(t, err)
		assert.Equal(t, "new steps", got.Content)
		assert.Equal(t, "Setup", got.Title)
	})
}

func TestCodeSampleCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "samples")
	c, err := s.CreateCodeSample(ctx, CodeSample{
		ProjectID:   p.ID,
		Title:       "fetch users",
		Language:    "typescript",
		Description: "client call",
		CodeString:  "await api.get('/users')",
	})
	require.NoError(t, err)

	t.Run("list returns trimmed items", func(t *testing.T) {
		items, err := s.ListCodeSamples(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, c.ID, items[0].ID)
		assert.Equal(t, "fetch users", items[0].Title)
	})

	t.Run("partial update", func(t *testing.T) {
		lang := "javascript"
		got, err := s.UpdateCodeSample(ctx, c.ID, CodeSampleUpdate{Language: &lang})
		require.NoError(t, err)
		assert.Equal(t, "javascript", got.Language)
		assert.Equal(t, "fetch users", got.Title)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteCodeSample(ctx, c.ID))
		_, err := s.GetCodeSample(ctx, c.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDocPageCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "docs")
	d, err := s.CreateDocPage(ctx, DocPage{ProjectID: p.ID, Title: "API", Content: "# API\n"})
	require.NoError(t, err)

	items, err := s.ListDocPages(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "API", items[0].Title)

	title := "API Reference"
	got, err := s.UpdateDocPage(ctx, d.ID, DocPageUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "API Reference", got.Title)
	assert.Equal(t, "# API\n", got.Content)

	require.NoError(t, s.DeleteDocPage(ctx, d.ID))
	_, err = s.GetDocPage(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
