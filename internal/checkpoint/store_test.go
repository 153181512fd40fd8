package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemputer/chempiler/internal/rig"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "checkpoint.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var (
	scriptHash   = Fingerprint([]byte("MOVE flask_water reactor 10"))
	topologyHash = Fingerprint([]byte("nodes: []"))
)

func TestFingerprintIsStable(t *testing.T) {
	assert.Equal(t, Fingerprint([]byte("abc")), Fingerprint([]byte("abc")))
	assert.NotEqual(t, Fingerprint([]byte("abc")), Fingerprint([]byte("abd")))
	assert.Len(t, Fingerprint(nil), 64)
}

func TestUUIDv7GeneratorProducesSortableTokens(t *testing.T) {
	g := UUIDv7Generator{}
	a := g.Generate()
	b := g.Generate()
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestCommitResumeRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", scriptHash, topologyHash))

	snap0 := rig.Snapshot{"pump1": {Volume: 0}}
	snap1 := rig.Snapshot{
		"flask_water": {Volume: 40},
		"reactor":     {Volume: 10, Stirring: true, Temperature: 80},
	}
	require.NoError(t, s.Commit(ctx, "run-1", 0, "HOME", 1, snap0))
	require.NoError(t, s.Commit(ctx, "run-1", 1, "MOVE", 2, snap1))

	st, err := s.Resume(ctx, "run-1", scriptHash, topologyHash)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Cursor)
	assert.False(t, st.Completed)
	assert.Equal(t, snap1, st.Snapshot)
}

func TestResumeWithNoCommitsStartsAtZero(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", scriptHash, topologyHash))

	st, err := s.Resume(ctx, "run-1", scriptHash, topologyHash)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Cursor)
	assert.Empty(t, st.Snapshot)
}

func TestResumeAgainstChangedScriptIsMismatch(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", scriptHash, topologyHash))

	_, err := s.Resume(ctx, "run-1", Fingerprint([]byte("MOVE flask_water waste all")), topologyHash)
	require.Error(t, err)
	assert.True(t, IsMismatch(err))
	var me *MismatchError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "script", me.Field)
}

func TestResumeAgainstChangedTopologyIsMismatch(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", scriptHash, topologyHash))

	_, err := s.Resume(ctx, "run-1", scriptHash, Fingerprint([]byte("rewired")))
	require.Error(t, err)
	assert.True(t, IsMismatch(err))
}

func TestResumeUnknownRunFails(t *testing.T) {
	s := openStore(t)
	_, err := s.Resume(context.Background(), "missing", scriptHash, topologyHash)
	assert.Error(t, err)
}

func TestCommitIsIdempotentPerIndex(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", scriptHash, topologyHash))

	first := rig.Snapshot{"reactor": {Volume: 5}}
	require.NoError(t, s.Commit(ctx, "run-1", 0, "MOVE", 1, first))
	// A crash between the insert and the process exit can replay the
	// same commit; the first write wins.
	require.NoError(t, s.Commit(ctx, "run-1", 0, "MOVE", 1, rig.Snapshot{"reactor": {Volume: 99}}))

	n, err := s.CommitCount(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	st, err := s.Resume(ctx, "run-1", scriptHash, topologyHash)
	require.NoError(t, err)
	assert.Equal(t, first, st.Snapshot)
}

func TestLatestRunReturnsNewest(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	// UUIDv7 tokens sort chronologically; fixed ids stand in here.
	require.NoError(t, s.BeginRun(ctx, "01-old", scriptHash, topologyHash))
	require.NoError(t, s.BeginRun(ctx, "02-new", scriptHash, topologyHash))

	r, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "02-new", r.ID)
}

func TestLatestRunOnEmptyLog(t *testing.T) {
	s := openStore(t)
	_, err := s.LatestRun(context.Background())
	assert.Error(t, err)
}

func TestMarkCompleted(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.BeginRun(ctx, "run-1", scriptHash, topologyHash))
	require.NoError(t, s.MarkCompleted(ctx, "run-1"))

	st, err := s.Resume(ctx, "run-1", scriptHash, topologyHash)
	require.NoError(t, err)
	assert.True(t, st.Completed)
}
