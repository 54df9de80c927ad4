package plugin

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name   string
	calls  *[]string
	before error
}

func (r recorder) BeforeCommand(_ context.Context, query string, _ []any) error {
	*r.calls = append(*r.calls, r.name+" before "+query)
	return r.before
}

func (r recorder) AfterCommand(_ context.Context, query string, _ time.Duration, _ error) {
	*r.calls = append(*r.calls, r.name+" after "+query)
}

func TestChain(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	h := Chain(
		recorder{name: "a", calls: &calls},
		recorder{name: "b", calls: &calls, before: boom},
		recorder{name: "c", calls: &calls},
	)

	err := h.BeforeCommand(context.Background(), "SELECT 1", nil)
	assert.ErrorIs(t, err, boom)
	h.AfterCommand(context.Background(), "SELECT 1", time.Millisecond, err)

	assert.Equal(t, []string{
		"a before SELECT 1",
		"b before SELECT 1",
		"a after SELECT 1",
		"b after SELECT 1",
		"c after SELECT 1",
	}, calls)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := LogHooks(logger)

	ctx := context.Background()
	assert.NoError(t, h.BeforeCommand(ctx, "DELETE FROM t", []any{1, 2}))
	h.AfterCommand(ctx, "DELETE FROM t", 2*time.Millisecond, errors.New("locked"))

	out := buf.String()
	assert.Contains(t, out, `sql="DELETE FROM t"`)
	assert.Contains(t, out, "args=2")
	assert.Contains(t, out, "error=locked")

	// nil logger is allowed
	assert.NoError(t, LogHooks(nil).BeforeCommand(ctx, "SELECT 1", nil))
}
