package docgen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fyrsmithlabs/knowledged/internal/agent"
	"github.com/fyrsmithlabs/knowledged/internal/audit"
	"github.com/fyrsmithlabs/knowledged/internal/logging"
	"github.com/fyrsmithlabs/knowledged/internal/prompt"
	"github.com/fyrsmithlabs/knowledged/internal/schema"
)

// fakeInvoker scripts agent results without any external calls.
type fakeInvoker struct {
	invoke func(ctx context.Context, instructions, targetPath string, responseSchema any) (*agent.Result, error)
	calls  atomic.Int64
}

func (f *fakeInvoker) Invoke(ctx context.Context, instructions, targetPath string, responseSchema any) (*agent.Result, error) {
	f.calls.Add(1)
	return f.invoke(ctx, instructions, targetPath, responseSchema)
}

func completedResult(raw string) *agent.Result {
	return &agent.Result{RawText: raw, StopReason: agent.StopCompleted, Success: true}
}

func testRegistry(t *testing.T) *prompt.Registry {
	t.Helper()
	r, err := prompt.NewRegistry(
		&prompt.Spec{
			Name:     "doc_structured",
			Mode:     prompt.ModeStructured,
			Template: "analyze the repo",
			Schema: &schema.Schema{
				Type: schema.TypeObject,
				Properties: map[string]*schema.Schema{
					"a": {Type: schema.TypeInteger},
				},
				Required: []string{"a"},
			},
		},
		&prompt.Spec{
			Name:     "doc_markdown",
			Mode:     prompt.ModeMarkdown,
			Template: "write an overview",
		},
	)
	require.NoError(t, err)
	return r
}

func newTestService(t *testing.T, inv agent.Invoker, opts Options) (*Service, *audit.Store) {
	t.Helper()
	store, err := audit.NewStore(t.TempDir())
	require.NoError(t, err)
	svc, err := NewService(testRegistry(t), inv, store, zap.NewNop(), opts)
	require.NoError(t, err)
	return svc, store
}

func auditCount(t *testing.T, store *audit.Store) int {
	t.Helper()
	paths, err := store.List()
	require.NoError(t, err)
	return len(paths)
}

func TestGenerateLogsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store, err := audit.NewStore(t.TempDir())
	require.NoError(t, err)
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, _ any) (*agent.Result, error) {
		return completedResult("# ok\n"), nil
	}}
	svc, err := NewService(testRegistry(t), inv, store, zap.New(core), Options{})
	require.NoError(t, err)

	ctx := logging.WithRequestID(context.Background(), "req-42")
	ctx = logging.WithSessionID(ctx, "sess-7")
	_, err = svc.Generate(ctx, t.TempDir(), "doc_markdown")
	require.NoError(t, err)

	entries := logs.FilterMessage("documentation generated").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request.id"])
	assert.Equal(t, "sess-7", fields["session.id"])
}

func TestAuditWriteFailureFailsSuccessfulRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	store, err := audit.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, _ any) (*agent.Result, error) {
		return completedResult("# fine\n"), nil
	}}
	svc, err := NewService(testRegistry(t), inv, store, zap.NewNop(), Options{})
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), t.TempDir(), "doc_markdown")
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "audit record write failed")
}

func TestGenerateStructuredSuccess(t *testing.T) {
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, responseSchema any) (*agent.Result, error) {
		assert.NotNil(t, responseSchema)
		return completedResult(`{"a": 1}`), nil
	}}
	svc, store := newTestService(t, inv, Options{})

	out, err := svc.Generate(context.Background(), t.TempDir(), "doc_structured")
	require.NoError(t, err)
	assert.Equal(t, prompt.ModeStructured, out.Mode)
	assert.NotEmpty(t, out.AuditPath)
	require.Contains(t, out.Structured, "a")
	assert.Equal(t, 1, auditCount(t, store))

	rec, err := store.Read(out.AuditPath)
	require.NoError(t, err)
	assert.True(t, rec.Success)
	assert.Equal(t, "completed", rec.StopReason)
	assert.Equal(t, `{"a": 1}`, rec.RawText)
}

func TestGenerateMarkdownSuccess(t *testing.T) {
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, responseSchema any) (*agent.Result, error) {
		assert.Nil(t, responseSchema)
		return completedResult("# Overview\n\nIt does things.\n"), nil
	}}
	svc, store := newTestService(t, inv, Options{})

	out, err := svc.Generate(context.Background(), t.TempDir(), "doc_markdown")
	require.NoError(t, err)
	assert.Contains(t, out.Markdown, "# Overview")
	assert.Equal(t, 1, auditCount(t, store))
}

func TestGeneratePreconditionsMakeNoAgentCalls(t *testing.T) {
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, _ any) (*agent.Result, error) {
		return completedResult("x"), nil
	}}
	svc, store := newTestService(t, inv, Options{})

	t.Run("unknown prompt", func(t *testing.T) {
		_, err := svc.Generate(context.Background(), t.TempDir(), "nope")
		assert.ErrorIs(t, err, prompt.ErrUnknownPrompt)
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := svc.Generate(context.Background(), "/does/not/exist", "doc_markdown")
		assert.ErrorIs(t, err, ErrInvalidTarget)
	})

	t.Run("empty target", func(t *testing.T) {
		_, err := svc.Generate(context.Background(), "", "doc_markdown")
		assert.ErrorIs(t, err, ErrInvalidTarget)
	})

	assert.Equal(t, int64(0), inv.calls.Load())
	assert.Equal(t, 0, auditCount(t, store))
}

func TestGenerateRefusedShortCircuitsBeforeParsing(t *testing.T) {
	// RawText is valid JSON but the session did not complete; the parser
	// must never see it.
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, _ any) (*agent.Result, error) {
		return &agent.Result{RawText: `{"a": 1}`, StopReason: agent.StopRefused, Success: false}, nil
	}}
	svc, store := newTestService(t, inv, Options{})

	_, err := svc.Generate(context.Background(), t.TempDir(), "doc_structured")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAgentFailure)

	var af *AgentFailureError
	require.ErrorAs(t, err, &af)
	assert.Equal(t, agent.StopRefused, af.StopReason)
	assert.NotEmpty(t, af.AuditPath)
	assert.Equal(t, 1, auditCount(t, store))
}

func TestGenerateFencedJSONIsParseError(t *testing.T) {
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, _ any) (*agent.Result, error) {
		return completedResult("```json\n{\"a\": 1}\n```"), nil
	}}
	svc, store := newTestService(t, inv, Options{})

	_, err := svc.Generate(context.Background(), t.TempDir(), "doc_structured")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutputParse)

	var pe *OutputParseError
	require.ErrorAs(t, err, &pe)
	assert.NotEmpty(t, pe.AuditPath)
	assert.Equal(t, 1, auditCount(t, store))
}

func TestGenerateTrailingProseIsParseError(t *testing.T) {
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, _ any) (*agent.Result, error) {
		return completedResult(`{"a": 1} hope this helps!`), nil
	}}
	svc, _ := newTestService(t, inv, Options{})

	_, err := svc.Generate(context.Background(), t.TempDir(), "doc_structured")
	assert.ErrorIs(t, err, ErrOutputParse)
}

func TestGenerateExtraKeyIsSchemaError(t *testing.T) {
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, _ any) (*agent.Result, error) {
		return completedResult(`{"a": 1, "b": 2}`), nil
	}}
	svc, store := newTestService(t, inv, Options{})

	_, err := svc.Generate(context.Background(), t.TempDir(), "doc_structured")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaValidation)

	var sv *SchemaValidationError
	require.ErrorAs(t, err, &sv)
	assert.Contains(t, sv.Detail, "unknown fields: b")
	assert.NotEmpty(t, sv.AuditPath)
	assert.Equal(t, 1, auditCount(t, store))
}

func TestGenerateEmptyMarkdownIsParseError(t *testing.T) {
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, _ any) (*agent.Result, error) {
		return completedResult("   \n\t  "), nil
	}}
	svc, store := newTestService(t, inv, Options{})

	_, err := svc.Generate(context.Background(), t.TempDir(), "doc_markdown")
	require.Error(t, err)

	// Whitespace-only counts as non-empty RawText at the agent layer but
	// fails the markdown contract.
	assert.ErrorIs(t, err, ErrOutputParse)
	assert.Equal(t, 1, auditCount(t, store))
}

func TestGenerateInvokerErrorStillAudited(t *testing.T) {
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, _ any) (*agent.Result, error) {
		return nil, errors.New("connection reset")
	}}
	svc, store := newTestService(t, inv, Options{})

	_, err := svc.Generate(context.Background(), t.TempDir(), "doc_markdown")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAgentFailure)
	require.Equal(t, 1, auditCount(t, store))

	paths, err := store.List()
	require.NoError(t, err)
	rec, err := store.Read(paths[0])
	require.NoError(t, err)
	assert.False(t, rec.Success)
	assert.Contains(t, rec.Error, "connection reset")
}

func TestGenerateTimeoutResultAudited(t *testing.T) {
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, _ any) (*agent.Result, error) {
		return &agent.Result{StopReason: agent.StopTimeout}, nil
	}}
	svc, store := newTestService(t, inv, Options{})

	_, err := svc.Generate(context.Background(), t.TempDir(), "doc_markdown")
	require.Error(t, err)

	var af *AgentFailureError
	require.ErrorAs(t, err, &af)
	assert.Equal(t, agent.StopTimeout, af.StopReason)
	require.Equal(t, 1, auditCount(t, store))

	paths, _ := store.List()
	rec, err := store.Read(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "timeout", rec.StopReason)
}

func TestQueryAuditedUnderCodeQuery(t *testing.T) {
	inv := &fakeInvoker{invoke: func(_ context.Context, instructions, _ string, responseSchema any) (*agent.Result, error) {
		assert.Nil(t, responseSchema)
		assert.Equal(t, "where is the router?", instructions)
		return completedResult("In `src/router.ts`."), nil
	}}
	svc, store := newTestService(t, inv, Options{})

	out, err := svc.Query(context.Background(), t.TempDir(), "where is the router?")
	require.NoError(t, err)
	assert.Equal(t, "code_query", out.PromptName)

	paths, _ := store.List()
	require.Len(t, paths, 1)
	rec, err := store.Read(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "code_query", rec.PromptName)
}

func TestGenerateConcurrencyBoundedAndFullyAudited(t *testing.T) {
	const limit = 2
	const n = 8

	var inFlight, maxInFlight atomic.Int64
	inv := &fakeInvoker{invoke: func(_ context.Context, _, _ string, _ any) (*agent.Result, error) {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return completedResult("# ok\n"), nil
	}}
	svc, store := newTestService(t, inv, Options{MaxConcurrent: limit})

	target := t.TempDir()
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Generate(context.Background(), target, "doc_markdown")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, maxInFlight.Load(), int64(limit))
	assert.Equal(t, int64(n), inv.calls.Load())
	assert.Equal(t, n, auditCount(t, store))
}
