package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"video-service/internal/media"
	"video-service/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ObjectStore is the slice of the object-store client the upload pipeline
// depends on. *storage.Store satisfies it; tests use a fake.
type ObjectStore interface {
	CreateMultipart(ctx context.Context, key, contentType string) (string, error)
	UploadPart(ctx context.Context, key, uploadID string, partNumber int32, body io.Reader) (string, error)
	ListParts(ctx context.Context, key, uploadID string) ([]media.Part, error)
	CompleteMultipart(ctx context.Context, key, uploadID string, parts []media.Part) error
	AbortMultipart(ctx context.Context, key, uploadID string) error
	ListMultipartUploads(ctx context.Context, prefix string) ([]media.MultipartUpload, error)
}

// Session identifies one in-flight large-file upload. There is no local
// session record beyond this pair: the remote store is the source of
// truth for what has landed, which is what makes resume safe across
// process restarts.
type Session struct {
	FileKey  string `json:"fileKey"`
	UploadID string `json:"uploadId"`
}

// ChunkRequest carries one client-submitted chunk.
type ChunkRequest struct {
	FileKey     string
	UploadID    string
	ChunkIndex  int // 0-based
	TotalChunks int
	Body        io.Reader
}

// ChunkResult reports where a chunk ended up.
type ChunkResult struct {
	ChunkIndex int    `json:"chunkIndex"`
	PartNumber int32  `json:"partNumber"`
	ETag       string `json:"etag"`
	Skipped    bool   `json:"skipped"`
}

// Manager coordinates resumable multipart uploads against the remote
// store. It is stateless between requests: every operation re-queries
// live part state instead of trusting a local table.
type Manager struct {
	store       ObjectStore
	staging     *Staging
	retry       RetryPolicy
	prefix      string
	concurrency int
	log         *zap.SugaredLogger
}

func NewManager(store ObjectStore, staging *Staging, retry RetryPolicy, prefix string, log *zap.SugaredLogger) *Manager {
	if prefix == "" {
		prefix = "videos/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Manager{
		store:       store,
		staging:     staging,
		retry:       retry,
		prefix:      prefix,
		concurrency: 10,
		log:         log,
	}
}

// newFileKey derives a collision-resistant object key under the logical
// prefix: <prefix><unix-millis>-<random><ext>. Immutable once assigned.
func (m *Manager) newFileKey(fileName string) string {
	ext := path.Ext(fileName)
	return fmt.Sprintf("%s%d-%s%s", m.prefix, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}

// sessionKey names the local staging directory for a file key.
func sessionKey(fileKey string) string {
	return path.Base(fileKey)
}

// Initiate opens a remote multipart session for a new file.
func (m *Manager) Initiate(ctx context.Context, fileName, contentType string) (Session, error) {
	if fileName == "" || contentType == "" {
		return Session{}, utils.Validationf("fileName and contentType are required")
	}
	key := m.newFileKey(fileName)
	uploadID, err := m.store.CreateMultipart(ctx, key, contentType)
	if err != nil {
		return Session{}, err
	}
	m.log.Infow("multipart session initiated", "fileKey", key, "uploadId", uploadID)
	return Session{FileKey: key, UploadID: uploadID}, nil
}

// CheckResumeState reports which 0-based chunk indices already landed
// remotely. Pure read; lets a reconnecting client skip re-sending.
func (m *Manager) CheckResumeState(ctx context.Context, fileKey, uploadID string) (media.ResumeState, error) {
	if fileKey == "" || uploadID == "" {
		return media.ResumeState{}, utils.Validationf("fileKey and uploadId are required")
	}
	parts, err := m.store.ListParts(ctx, fileKey, uploadID)
	if err != nil {
		return media.ResumeState{}, err
	}
	state := media.ResumeState{
		UploadedChunks: make([]int, 0, len(parts)),
		TotalChunks:    len(parts),
		Parts:          parts,
	}
	for _, p := range parts {
		state.UploadedChunks = append(state.UploadedChunks, int(p.PartNumber)-1)
	}
	return state, nil
}

// SubmitChunk forwards one chunk as a part. If the store already has the
// part number, the body is discarded and the existing ETag is returned
// with Skipped set: retried or duplicated submissions are at-most-once
// effective per part number.
func (m *Manager) SubmitChunk(ctx context.Context, req ChunkRequest) (ChunkResult, error) {
	if req.FileKey == "" || req.UploadID == "" || req.Body == nil ||
		req.ChunkIndex < 0 || req.TotalChunks <= 0 {
		return ChunkResult{}, utils.Validationf("chunkIndex, totalChunks, fileKey, uploadId and file are all required")
	}
	partNumber := int32(req.ChunkIndex + 1)

	// Live remote state, queried immediately before forwarding. The store
	// is the synchronization point for concurrent submissions.
	parts, err := m.store.ListParts(ctx, req.FileKey, req.UploadID)
	if err != nil {
		return ChunkResult{}, err
	}
	for _, p := range parts {
		if p.PartNumber == partNumber {
			io.Copy(io.Discard, req.Body)
			m.log.Debugw("chunk already uploaded, skipping", "fileKey", req.FileKey, "partNumber", partNumber)
			return ChunkResult{
				ChunkIndex: req.ChunkIndex,
				PartNumber: partNumber,
				ETag:       p.ETag,
				Skipped:    true,
			}, nil
		}
	}

	staged, err := m.staging.Stage(sessionKey(req.FileKey), req.ChunkIndex, req.Body)
	if err != nil {
		return ChunkResult{}, err
	}
	// Staged bytes never outlive the forwarding window, success or not.
	// A crash in between leaves an orphan for the janitor.
	defer m.staging.Unstage(staged)

	var etag string
	err = m.retry.Do(ctx, func() error {
		f, err := m.staging.Open(staged)
		if err != nil {
			return err
		}
		defer f.Close()
		etag, err = m.store.UploadPart(ctx, req.FileKey, req.UploadID, partNumber, f)
		return err
	})
	if err != nil {
		// The session stays open; the caller retries this index.
		return ChunkResult{}, err
	}

	return ChunkResult{
		ChunkIndex: req.ChunkIndex,
		PartNumber: partNumber,
		ETag:       etag,
	}, nil
}

// Complete validates remote part state and commits the session. The part
// set must be exactly totalChunks long and gap-free; anything else is
// rejected before the remote completion call. On failure after
// validation the session stays open for a later retry or abort.
func (m *Manager) Complete(ctx context.Context, fileKey, uploadID string, totalChunks int) error {
	if fileKey == "" || uploadID == "" || totalChunks <= 0 {
		return utils.Validationf("fileKey, uploadId and totalChunks are required")
	}
	parts, err := m.store.ListParts(ctx, fileKey, uploadID)
	if err != nil {
		return err
	}
	if len(parts) != totalChunks {
		return &utils.IncompleteUploadError{Want: totalChunks, Got: len(parts)}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })
	for i, p := range parts {
		if p.PartNumber != int32(i+1) {
			return &utils.IncompleteUploadError{Want: totalChunks, Got: len(parts)}
		}
	}
	if err := m.store.CompleteMultipart(ctx, fileKey, uploadID, parts); err != nil {
		return err
	}
	// The store discards the session on successful completion; only the
	// local leftovers need cleaning.
	if err := m.staging.RemoveSession(sessionKey(fileKey)); err != nil {
		m.log.Warnw("staging cleanup after completion failed", "fileKey", fileKey, "error", err)
	}
	m.log.Infow("multipart session completed", "fileKey", fileKey, "parts", len(parts))
	return nil
}

// Abort tears a session down, explicitly or janitor-triggered. Aborting
// an already-gone session is not an error the caller has to handle.
func (m *Manager) Abort(ctx context.Context, fileKey, uploadID string) {
	if err := m.store.AbortMultipart(ctx, fileKey, uploadID); err != nil {
		m.log.Warnw("abort multipart failed", "fileKey", fileKey, "uploadId", uploadID, "error", err)
	}
	if err := m.staging.RemoveSession(sessionKey(fileKey)); err != nil {
		m.log.Warnw("staging cleanup after abort failed", "fileKey", fileKey, "error", err)
	}
}

// PutAll is the bulk convenience path: it drives a whole file through the
// multipart machinery from one call, with part uploads fanned out up to
// the concurrency cap. The first permanent failure cancels remaining
// parts and aborts the session.
func (m *Manager) PutAll(ctx context.Context, fileName, contentType string, r io.Reader, partSize int64) (string, error) {
	if fileName == "" || contentType == "" || r == nil || partSize <= 0 {
		return "", utils.Validationf("fileName, contentType, body and partSize are required")
	}
	sess, err := m.Initiate(ctx, fileName, contentType)
	if err != nil {
		return "", err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	var (
		mu    sync.Mutex
		parts []media.Part
	)
	partNumber := int32(0)
	for {
		buf := make([]byte, partSize)
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			partNumber++
			pn := partNumber
			body := buf[:n]
			g.Go(func() error {
				var etag string
				err := m.retry.Do(gctx, func() error {
					var uploadErr error
					etag, uploadErr = m.store.UploadPart(gctx, sess.FileKey, sess.UploadID, pn, bytes.NewReader(body))
					return uploadErr
				})
				if err != nil {
					return err
				}
				mu.Lock()
				parts = append(parts, media.Part{PartNumber: pn, ETag: etag})
				mu.Unlock()
				return nil
			})
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			g.Wait()
			m.Abort(ctx, sess.FileKey, sess.UploadID)
			return "", fmt.Errorf("read part body: %w", readErr)
		}
	}

	if err := g.Wait(); err != nil {
		m.Abort(ctx, sess.FileKey, sess.UploadID)
		return "", err
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })
	if err := m.store.CompleteMultipart(ctx, sess.FileKey, sess.UploadID, parts); err != nil {
		m.Abort(ctx, sess.FileKey, sess.UploadID)
		return "", err
	}
	return sess.FileKey, nil
}

// CleanupStaging removes one staged session directory, or every one when
// fileName is empty. Exposed for the manual cleanup endpoint.
func (m *Manager) CleanupStaging(fileName string) (int, error) {
	if fileName != "" {
		if err := m.staging.RemoveSession(path.Base(fileName)); err != nil {
			return 0, err
		}
		return 1, nil
	}
	sessions, err := m.staging.Sessions()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range sessions {
		if err := m.staging.RemoveSession(name); err == nil {
			removed++
		}
	}
	return removed, nil
}
