package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func staticLookup(paths map[string]string) ProjectLookup {
	return func(_ context.Context, projectID string) (string, error) {
		path, ok := paths[projectID]
		if !ok {
			return "", errors.New("project " + projectID + " not found")
		}
		return path, nil
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(staticLookup(map[string]string{
		"p1": "/repos/one",
		"p2": "/repos/two",
		"p3": "",
	}), 30*time.Minute, time.Minute, zap.NewNop())
}

func TestManagerCreate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	t.Run("create for project with repo path", func(t *testing.T) {
		s, err := m.Create(ctx, "p1", "exploring")
		require.NoError(t, err)
		assert.NotEmpty(t, s.ID)
		assert.Equal(t, "/repos/one", s.RepoPath)
		assert.Equal(t, "exploring", s.Name)
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := m.Create(ctx, "ghost", "")
		assert.Error(t, err)
	})

	t.Run("project without repo path", func(t *testing.T) {
		_, err := m.Create(ctx, "p3", "")
		assert.ErrorIs(t, err, ErrNoRepoPath)
	})
}

func TestManagerGetBumpsLastAccessed(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Create(context.Background(), "p1", "")
	require.NoError(t, err)

	before := s.LastAccessed
	time.Sleep(5 * time.Millisecond)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.True(t, got.LastAccessed.After(before))

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerHistoryAndChatPrompt(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Create(context.Background(), "p1", "")
	require.NoError(t, err)

	require.NoError(t, m.Append(s.ID, "where is main?", "In cmd/app/main.go."))

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	require.Len(t, got.History, 2)
	assert.Equal(t, "user", got.History[0].Role)
	assert.Equal(t, "assistant", got.History[1].Role)

	prompt := BuildChatPrompt(got.History, "what does it do?")
	assert.Contains(t, prompt, "Previous conversation:")
	assert.Contains(t, prompt, "User: where is main?")
	assert.Contains(t, prompt, "Assistant: In cmd/app/main.go.")
	assert.Contains(t, prompt, "User's new question: what does it do?")
}

func TestGetReturnsSnapshot(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Create(context.Background(), "p1", "")
	require.NoError(t, err)

	before, err := m.Get(s.ID)
	require.NoError(t, err)
	require.NoError(t, m.Append(s.ID, "q", "a"))

	// The earlier copy is unaffected by the append, and mutating it does
	// not leak back into the manager.
	assert.Empty(t, before.History)
	before.History = append(before.History, Message{Role: "user", Content: "rogue"})

	after, err := m.Get(s.ID)
	require.NoError(t, err)
	require.Len(t, after.History, 2)
	assert.Equal(t, "q", after.History[0].Content)
}

func TestConcurrentChatHistoryAccess(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Create(context.Background(), "p1", "")
	require.NoError(t, err)

	const rounds = 100
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			cp, err := m.Get(s.ID)
			if err != nil {
				return
			}
			_ = BuildChatPrompt(cp.History, "where is main?")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if err := m.Append(s.ID, "q", "a"); err != nil {
				return
			}
		}
	}()
	wg.Wait()

	final, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Len(t, final.History, 2*rounds)
}

func TestBuildChatPromptWithoutHistory(t *testing.T) {
	assert.Equal(t, "hello", BuildChatPrompt(nil, "hello"))
}

func TestManagerListFiltersByProject(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	s1, err := m.Create(ctx, "p1", "a")
	require.NoError(t, err)
	_, err = m.Create(ctx, "p2", "b")
	require.NoError(t, err)

	all := m.List("")
	assert.Len(t, all, 2)

	only := m.List("p1")
	require.Len(t, only, 1)
	assert.Equal(t, s1.ID, only[0].ID)
	assert.Equal(t, 0, only[0].MessageCount)
}

func TestManagerUpdateAndDelete(t *testing.T) {
	m := newTestManager(t)
	s, err := m.Create(context.Background(), "p1", "old")
	require.NoError(t, err)

	name := "new"
	got, err := m.Update(s.ID, &name)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)

	require.NoError(t, m.Delete(s.ID))
	assert.ErrorIs(t, m.Delete(s.ID), ErrSessionNotFound)
}

func TestManagerCleanupExpired(t *testing.T) {
	m := NewManager(staticLookup(map[string]string{"p1": "/r"}), 10*time.Millisecond, time.Minute, zap.NewNop())

	s, err := m.Create(context.Background(), "p1", "")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, m.CleanupExpired())

	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
