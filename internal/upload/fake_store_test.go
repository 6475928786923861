package upload_test

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"video-service/internal/media"
	"video-service/internal/utils"
)

// fakeStore is an in-memory ObjectStore with scripted per-part failures.
type fakeStore struct {
	mu     sync.Mutex
	nextID int

	sessions map[string]*fakeSession // uploadID -> session
	objects  map[string][]byte       // committed key -> bytes

	partErrs      map[int32][]error // scripted UploadPart errors, consumed in order
	createErr     error
	listPartsErr  error
	completeErr   error
	abortErrs     map[string]error // uploadID -> error
	completeCalls int
	abortCalls    int
	partAttempts  map[int32]int
}

type fakeSession struct {
	key         string
	contentType string
	initiated   time.Time
	parts       map[int32]fakePart
}

type fakePart struct {
	etag         string
	data         []byte
	lastModified time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:     make(map[string]*fakeSession),
		objects:      make(map[string][]byte),
		partErrs:     make(map[int32][]error),
		abortErrs:    make(map[string]error),
		partAttempts: make(map[int32]int),
	}
}

func (f *fakeStore) failPart(partNumber int32, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partErrs[partNumber] = append(f.partErrs[partNumber], errs...)
}

func (f *fakeStore) CreateMultipart(_ context.Context, key, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("upload-%d", f.nextID)
	f.sessions[id] = &fakeSession{
		key:         key,
		contentType: contentType,
		initiated:   time.Now(),
		parts:       make(map[int32]fakePart),
	}
	return id, nil
}

func (f *fakeStore) UploadPart(_ context.Context, key, uploadID string, partNumber int32, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partAttempts[partNumber]++
	if errs := f.partErrs[partNumber]; len(errs) > 0 {
		next := errs[0]
		f.partErrs[partNumber] = errs[1:]
		return "", next
	}
	sess, ok := f.sessions[uploadID]
	if !ok || sess.key != key {
		return "", utils.Upstream("upload part", fmt.Errorf("NoSuchUpload: %s", uploadID))
	}
	etag := fmt.Sprintf("%q", fmt.Sprintf("%x", md5.Sum(data)))
	sess.parts[partNumber] = fakePart{etag: etag, data: data, lastModified: time.Now()}
	return etag, nil
}

func (f *fakeStore) ListParts(_ context.Context, key, uploadID string) ([]media.Part, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listPartsErr != nil {
		return nil, f.listPartsErr
	}
	sess, ok := f.sessions[uploadID]
	if !ok || sess.key != key {
		return nil, utils.Upstream("list parts", fmt.Errorf("NoSuchUpload: %s", uploadID))
	}
	var parts []media.Part
	for pn, p := range sess.parts {
		parts = append(parts, media.Part{
			PartNumber:   pn,
			ETag:         p.etag,
			Size:         int64(len(p.data)),
			LastModified: p.lastModified,
		})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].PartNumber < parts[j].PartNumber })
	return parts, nil
}

func (f *fakeStore) CompleteMultipart(_ context.Context, key, uploadID string, parts []media.Part) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completeCalls++
	if f.completeErr != nil {
		return f.completeErr
	}
	sess, ok := f.sessions[uploadID]
	if !ok || sess.key != key {
		return utils.Upstream("complete multipart", fmt.Errorf("NoSuchUpload: %s", uploadID))
	}
	// the store requires monotonic gap-free ordering
	var body []byte
	last := int32(0)
	for _, p := range parts {
		if p.PartNumber <= last {
			return utils.Upstream("complete multipart", fmt.Errorf("InvalidPartOrder"))
		}
		last = p.PartNumber
		stored, ok := sess.parts[p.PartNumber]
		if !ok || stored.etag != p.ETag {
			return utils.Upstream("complete multipart", fmt.Errorf("InvalidPart: %d", p.PartNumber))
		}
		body = append(body, stored.data...)
	}
	f.objects[key] = body
	delete(f.sessions, uploadID)
	return nil
}

func (f *fakeStore) AbortMultipart(_ context.Context, key, uploadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abortCalls++
	if err, ok := f.abortErrs[uploadID]; ok {
		return err
	}
	if _, ok := f.sessions[uploadID]; !ok {
		return utils.Upstream("abort multipart", fmt.Errorf("NoSuchUpload: %s", uploadID))
	}
	delete(f.sessions, uploadID)
	return nil
}

func (f *fakeStore) ListMultipartUploads(_ context.Context, prefix string) ([]media.MultipartUpload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []media.MultipartUpload
	for id, sess := range f.sessions {
		out = append(out, media.MultipartUpload{Key: sess.key, UploadID: id, Initiated: sess.initiated})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadID < out[j].UploadID })
	return out, nil
}

func (f *fakeStore) object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	return b, ok
}

func (f *fakeStore) openSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

func (f *fakeStore) setInitiated(uploadID string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess, ok := f.sessions[uploadID]; ok {
		sess.initiated = at
	}
}
