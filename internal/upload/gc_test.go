package upload_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"video-service/internal/upload"
	"video-service/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestJanitor(t *testing.T, store upload.ObjectStore, staging *upload.Staging) *upload.Janitor {
	t.Helper()
	return upload.NewJanitor(store, staging, "videos/", upload.JanitorConfig{
		Interval:   time.Hour,
		MaxAge:     2 * time.Hour,
		StartDelay: time.Hour, // sweeps driven manually in tests
	}, zap.NewNop().Sugar())
}

func TestSweepRemote_AbortsStaleSessions(t *testing.T) {
	store := newFakeStore()
	staging, err := upload.NewStaging(t.TempDir())
	require.NoError(t, err)

	staleID, err := store.CreateMultipart(context.Background(), "videos/stale.mp4", "video/mp4")
	require.NoError(t, err)
	freshID, err := store.CreateMultipart(context.Background(), "videos/fresh.mp4", "video/mp4")
	require.NoError(t, err)
	store.setInitiated(staleID, time.Now().Add(-3*time.Hour))

	newTestJanitor(t, store, staging).SweepRemote(context.Background())

	uploads, err := store.ListMultipartUploads(context.Background(), "videos/")
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, freshID, uploads[0].UploadID, "fresh session must survive the sweep")
}

func TestSweepRemote_OneFailedAbortDoesNotStopSweep(t *testing.T) {
	store := newFakeStore()
	staging, err := upload.NewStaging(t.TempDir())
	require.NoError(t, err)

	badID, err := store.CreateMultipart(context.Background(), "videos/bad.mp4", "video/mp4")
	require.NoError(t, err)
	otherID, err := store.CreateMultipart(context.Background(), "videos/other.mp4", "video/mp4")
	require.NoError(t, err)
	store.setInitiated(badID, time.Now().Add(-3*time.Hour))
	store.setInitiated(otherID, time.Now().Add(-3*time.Hour))
	store.abortErrs[badID] = utils.Upstream("abort multipart", assert.AnError)

	newTestJanitor(t, store, staging).SweepRemote(context.Background())

	uploads, err := store.ListMultipartUploads(context.Background(), "videos/")
	require.NoError(t, err)
	require.Len(t, uploads, 1, "the other stale session must still be aborted")
	assert.Equal(t, badID, uploads[0].UploadID)
}

func TestSweepLocal_EvictsIdleSessions(t *testing.T) {
	store := newFakeStore()
	staging, err := upload.NewStaging(t.TempDir())
	require.NoError(t, err)

	_, err = staging.Stage("idle.mp4", 0, strings.NewReader("x"))
	require.NoError(t, err)
	_, err = staging.Stage("busy.mp4", 0, strings.NewReader("y"))
	require.NoError(t, err)
	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(staging.Root(), "idle.mp4"), old, old))

	newTestJanitor(t, store, staging).SweepLocal()

	sessions, err := staging.Sessions()
	require.NoError(t, err)
	assert.Equal(t, []string{"busy.mp4"}, sessions)
}

func TestJanitor_StartStop(t *testing.T) {
	store := newFakeStore()
	staging, err := upload.NewStaging(t.TempDir())
	require.NoError(t, err)

	j := upload.NewJanitor(store, staging, "videos/", upload.JanitorConfig{
		Interval:   time.Hour,
		MaxAge:     2 * time.Hour,
		StartDelay: 5 * time.Millisecond,
	}, zap.NewNop().Sugar())

	staleID, err := store.CreateMultipart(context.Background(), "videos/stale.mp4", "video/mp4")
	require.NoError(t, err)
	store.setInitiated(staleID, time.Now().Add(-3*time.Hour))

	j.Start()
	assert.Eventually(t, func() bool {
		return store.openSessions() == 0
	}, time.Second, 10*time.Millisecond, "first sweep runs shortly after start")
	j.Stop()
}
