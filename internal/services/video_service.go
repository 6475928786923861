package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"video-service/internal/cache"
	"video-service/internal/media"
	"video-service/internal/upload"
	"video-service/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Catalog is the slice of the repository the service needs.
type Catalog interface {
	ListCategories(ctx context.Context) ([]media.Category, error)
	GetCategory(ctx context.Context, id string) (*media.Category, error)
	CategoryByName(ctx context.Context, name string) (*media.Category, error)
	InsertCategory(ctx context.Context, c *media.Category) error
	DeleteCategory(ctx context.Context, id string) error
	CountVideosInCategory(ctx context.Context, categoryID string) (int64, error)
	InsertVideo(ctx context.Context, v *media.Video) error
	GetVideo(ctx context.Context, id string) (*media.Video, error)
	ListVideosByCategory(ctx context.Context, categoryID string, page, pageSize int) ([]media.Video, int64, error)
	DeleteVideo(ctx context.Context, id string) error
}

// ObjectStore is the single-shot side of the store: covers, deletes,
// presigned play URLs.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
	KeyFromURL(url string) string
}

// Uploads is the resumable session coordinator. *upload.Manager
// satisfies it.
type Uploads interface {
	Initiate(ctx context.Context, fileName, contentType string) (upload.Session, error)
	CheckResumeState(ctx context.Context, fileKey, uploadID string) (media.ResumeState, error)
	SubmitChunk(ctx context.Context, req upload.ChunkRequest) (upload.ChunkResult, error)
	Complete(ctx context.Context, fileKey, uploadID string, totalChunks int) error
	Abort(ctx context.Context, fileKey, uploadID string)
	CleanupStaging(fileName string) (int, error)
}

// FrameExtractor derives a thumbnail frame from a video input.
type FrameExtractor interface {
	FrameAt(ctx context.Context, input string, at time.Duration) ([]byte, error)
}

// VideoService glues the upload pipeline to the catalog: it finalizes
// completed uploads into persisted video records and serves the thin
// category/video plumbing around them.
type VideoService struct {
	repo        Catalog
	store       ObjectStore
	uploads     Uploads
	frames      FrameExtractor
	cache       cache.Cache
	coverPrefix string
	presignTTL  time.Duration
	log         *zap.SugaredLogger
}

func NewVideoService(repo Catalog, store ObjectStore, uploads Uploads, frames FrameExtractor, c cache.Cache, coverPrefix string, presignTTL time.Duration, log *zap.SugaredLogger) *VideoService {
	if coverPrefix == "" {
		coverPrefix = "videos/covers/"
	}
	return &VideoService{
		repo:        repo,
		store:       store,
		uploads:     uploads,
		frames:      frames,
		cache:       c,
		coverPrefix: coverPrefix,
		presignTTL:  presignTTL,
		log:         log,
	}
}

// ---- upload pipeline ----

func (s *VideoService) InitUpload(ctx context.Context, fileName, contentType string) (upload.Session, error) {
	if contentType == "" && fileName != "" {
		contentType = media.ContentTypeFor(fileName)
	}
	return s.uploads.Initiate(ctx, fileName, contentType)
}

func (s *VideoService) ResumeState(ctx context.Context, fileKey, uploadID string) (media.ResumeState, error) {
	return s.uploads.CheckResumeState(ctx, fileKey, uploadID)
}

func (s *VideoService) SubmitChunk(ctx context.Context, req upload.ChunkRequest) (upload.ChunkResult, error) {
	return s.uploads.SubmitChunk(ctx, req)
}

func (s *VideoService) CleanupChunks(fileName string) (int, error) {
	return s.uploads.CleanupStaging(fileName)
}

// CoverSource is an optional user-supplied cover file.
type CoverSource struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// CompleteRequest carries everything the merge endpoint supplies.
type CompleteRequest struct {
	FileKey     string
	UploadID    string
	TotalChunks int
	Title       string
	Description string
	CategoryID  string
	Cover       *CoverSource
}

// CompleteUpload commits the multipart session and persists the video
// record: category is validated before the remote completion call, the
// cover is either uploaded verbatim or auto-extracted from the video's
// first second, and the category name is denormalized into the record.
func (s *VideoService) CompleteUpload(ctx context.Context, req CompleteRequest) (*media.Video, error) {
	if req.FileKey == "" || req.UploadID == "" || req.TotalChunks <= 0 || req.Title == "" || req.CategoryID == "" {
		return nil, utils.Validationf("fileKey, uploadId, totalChunks, title and categoryId are required")
	}
	category, err := s.repo.GetCategory(ctx, req.CategoryID)
	if err != nil {
		var nf *utils.NotFoundError
		if errors.As(err, &nf) {
			return nil, utils.Validationf("category does not exist: %s", req.CategoryID)
		}
		return nil, err
	}

	if err := s.uploads.Complete(ctx, req.FileKey, req.UploadID, req.TotalChunks); err != nil {
		return nil, err
	}
	videoURL := s.store.PublicURL(req.FileKey)

	// Cover failures after this point must not lose the video: the
	// record is persisted with a null cover and a warning instead.
	coverURL := s.attachCover(ctx, req)

	v := &media.Video{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Category:    category.Name,
		CategoryID:  category.ID,
		VideoURL:    videoURL,
		CoverURL:    coverURL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.InsertVideo(ctx, v); err != nil {
		return nil, err
	}
	s.log.Infow("video persisted", "id", v.ID, "fileKey", req.FileKey, "category", category.Name)
	return v, nil
}

func (s *VideoService) attachCover(ctx context.Context, req CompleteRequest) *string {
	if req.Cover != nil {
		key := s.coverKey(req.Cover.FileName)
		ct := req.Cover.ContentType
		if ct == "" {
			ct = "image/jpeg"
		}
		url, err := s.store.Put(ctx, key, ct, req.Cover.Body)
		if err != nil {
			s.log.Warnw("cover upload failed, record will have no cover", "fileKey", req.FileKey, "error", err)
			return nil
		}
		return &url
	}
	if s.frames == nil {
		return nil
	}

	// Auto-extract the frame at the 1-second mark. ffmpeg reads the
	// committed object through a short-lived presigned URL.
	input, err := s.store.PresignGet(ctx, req.FileKey, 15*time.Minute)
	if err != nil {
		s.log.Warnw("cover extraction skipped, presign failed", "fileKey", req.FileKey, "error", err)
		return nil
	}
	frame, err := s.frames.FrameAt(ctx, input, time.Second)
	if err != nil {
		s.log.Warnw("cover auto-extraction failed, record will have no cover", "fileKey", req.FileKey, "error", err)
		return nil
	}
	url, err := s.store.Put(ctx, s.coverKey("autocover.jpg"), "image/jpeg", bytes.NewReader(frame))
	if err != nil {
		s.log.Warnw("cover upload failed, record will have no cover", "fileKey", req.FileKey, "error", err)
		return nil
	}
	return &url
}

func (s *VideoService) coverKey(fileName string) string {
	return fmt.Sprintf("%s%d-%s", s.coverPrefix, time.Now().UnixMilli(), path.Base(fileName))
}

// ---- catalog plumbing ----

func (s *VideoService) Categories(ctx context.Context) ([]media.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *VideoService) AddCategory(ctx context.Context, name string) (*media.Category, error) {
	if name == "" {
		return nil, utils.Validationf("category name is required")
	}
	if _, err := s.repo.CategoryByName(ctx, name); err == nil {
		return nil, utils.Conflictf("category already exists: %s", name)
	}
	c := &media.Category{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	if err := s.repo.InsertCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *VideoService) RemoveCategory(ctx context.Context, id string) error {
	if id == "" {
		return utils.Validationf("category id is required")
	}
	n, err := s.repo.CountVideosInCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return utils.Conflictf("category still has %d videos", n)
	}
	return s.repo.DeleteCategory(ctx, id)
}

func (s *VideoService) VideosByCategory(ctx context.Context, categoryID string, page, pageSize int) ([]media.Video, int64, error) {
	if categoryID == "" {
		return nil, 0, utils.Validationf("categoryId is required")
	}
	if page < 1 || pageSize < 1 {
		return nil, 0, utils.Validationf("page and pageSize must be positive")
	}
	return s.repo.ListVideosByCategory(ctx, categoryID, page, pageSize)
}

func (s *VideoService) Video(ctx context.Context, id string) (*media.Video, error) {
	if id == "" {
		return nil, utils.Validationf("video id is required")
	}
	return s.repo.GetVideo(ctx, id)
}

// RemoveVideo deletes the record and both stored objects. Store delete
// failures are logged, not fatal: the record is the source of truth for
// listings and orphaned objects cost only storage.
func (s *VideoService) RemoveVideo(ctx context.Context, id string) error {
	v, err := s.Video(ctx, id)
	if err != nil {
		return err
	}
	if v.VideoURL != "" {
		if err := s.store.Delete(ctx, s.store.KeyFromURL(v.VideoURL)); err != nil {
			s.log.Warnw("delete video object failed", "id", id, "error", err)
		}
	}
	if v.CoverURL != nil && *v.CoverURL != "" {
		if err := s.store.Delete(ctx, s.store.KeyFromURL(*v.CoverURL)); err != nil {
			s.log.Warnw("delete cover object failed", "id", id, "error", err)
		}
	}
	return s.repo.DeleteVideo(ctx, id)
}

// PlayURL returns a presigned GET URL for the video object, cached with
// a TTL slightly shorter than the URL's own validity.
func (s *VideoService) PlayURL(ctx context.Context, id string) (string, error) {
	cacheKey := "playurl:" + id
	if s.cache != nil {
		if url, err := s.cache.Get(ctx, cacheKey); err == nil {
			return url, nil
		}
	}
	v, err := s.Video(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, s.store.KeyFromURL(v.VideoURL), s.presignTTL)
	if err != nil {
		return "", err
	}
	if s.cache != nil {
		ttl := s.presignTTL - s.presignTTL/10
		if err := s.cache.Set(ctx, cacheKey, url, ttl); err != nil {
			s.log.Warnw("play url cache set failed", "id", id, "error", err)
		}
	}
	return url, nil
}
