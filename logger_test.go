package pairci_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hupe1980/pairci"
	"github.com/hupe1980/pairci/hci"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *pairci.Logger {
	return pairci.NewLogger(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
	return rec
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf).WithShape(8, 4).WithEps(1e-3).WithIteration(2)

	l.LogHCIRound(t.Context(), hci.Round{Index: 1, References: 5, Added: 3, NDet: 9, Elapsed: time.Millisecond})
	rec := lastRecord(t, &buf)
	assert.Equal(t, "hci round completed", rec["msg"])
	assert.EqualValues(t, 8, rec["nbasis"])
	assert.EqualValues(t, 4, rec["nocc"])
	assert.EqualValues(t, 2, rec["iteration"])
	assert.EqualValues(t, 3, rec["added"])

	l.LogBuild(t.Context(), 9, 40, time.Millisecond, nil)
	rec = lastRecord(t, &buf)
	assert.Equal(t, "operator build completed", rec["msg"])
	assert.EqualValues(t, 40, rec["nnz"])

	l.LogSolve(t.Context(), nil, 7, 0, errors.New("boom"))
	rec = lastRecord(t, &buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "boom", rec["error"])

	l.LogSnapshot(t.Context(), "w.pci", 128, nil)
	rec = lastRecord(t, &buf)
	assert.Equal(t, "snapshot saved", rec["msg"])
	assert.Equal(t, "w.pci", rec["name"])
}

func TestNoopLogger(t *testing.T) {
	l := pairci.NoopLogger()
	assert.False(t, l.Enabled(t.Context(), slog.LevelError))
	l.LogSnapshot(t.Context(), "x", 1, errors.New("ignored"))
}
