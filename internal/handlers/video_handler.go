package handlers

import (
	"strconv"

	service "video-service/internal/services"
	"video-service/internal/upload"
	"video-service/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	svc *service.VideoService
	dev bool
	log *zap.SugaredLogger
}

func NewHandler(svc *service.VideoService, dev bool, log *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, dev: dev, log: log}
}

// POST /api/admin/videos/init-upload
func (h *Handler) InitUpload(c *fiber.Ctx) error {
	var body struct {
		FileName    string `json:"fileName"`
		ContentType string `json:"contentType"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "invalid request body")
	}
	sess, err := h.svc.InitUpload(c.Context(), body.FileName, body.ContentType)
	if err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	return utils.JSONSuccess(c, fiber.Map{
		"uploadId": sess.UploadID,
		"fileKey":  sess.FileKey,
		"fileName": body.FileName,
	}, "upload session initiated")
}

// GET /api/admin/videos/chunks-check?fileKey=&uploadId=
func (h *Handler) ChunksCheck(c *fiber.Ctx) error {
	state, err := h.svc.ResumeState(c.Context(), c.Query("fileKey"), c.Query("uploadId"))
	if err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	return utils.JSONSuccess(c, state, "uploaded chunks fetched")
}

// POST /api/admin/videos/chunk (multipart: file + chunkIndex, totalChunks, fileKey, uploadId)
func (h *Handler) SubmitChunk(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "chunk file is required")
	}
	chunkIndex, err := strconv.Atoi(c.FormValue("chunkIndex", "-1"))
	if err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "chunkIndex must be an integer")
	}
	totalChunks, err := strconv.Atoi(c.FormValue("totalChunks", "0"))
	if err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "totalChunks must be an integer")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return utils.JSONError(c, fiber.StatusInternalServerError, "cannot open chunk file")
	}
	defer f.Close()

	res, err := h.svc.SubmitChunk(c.Context(), upload.ChunkRequest{
		FileKey:     c.FormValue("fileKey"),
		UploadID:    c.FormValue("uploadId"),
		ChunkIndex:  chunkIndex,
		TotalChunks: totalChunks,
		Body:        f,
	})
	if err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	return utils.JSONSuccess(c, res, "chunk uploaded")
}

// POST /api/admin/videos/merge (multipart: fields + optional cover file)
func (h *Handler) Merge(c *fiber.Ctx) error {
	totalChunks, err := strconv.Atoi(c.FormValue("totalChunks", "0"))
	if err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "totalChunks must be an integer")
	}
	req := service.CompleteRequest{
		FileKey:     c.FormValue("fileKey"),
		UploadID:    c.FormValue("uploadId"),
		TotalChunks: totalChunks,
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		CategoryID:  c.FormValue("categoryId"),
	}

	if coverHeader, err := c.FormFile("file"); err == nil {
		cf, err := coverHeader.Open()
		if err != nil {
			return utils.JSONError(c, fiber.StatusInternalServerError, "cannot open cover file")
		}
		defer cf.Close()
		req.Cover = &service.CoverSource{
			FileName:    coverHeader.Filename,
			ContentType: coverHeader.Header.Get("Content-Type"),
			Body:        cf,
		}
	}

	v, err := h.svc.CompleteUpload(c.Context(), req)
	if err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	return utils.JSONSuccess(c, v, "video uploaded")
}

// POST /api/admin/videos/cleanup-chunks {fileName?}
func (h *Handler) CleanupChunks(c *fiber.Ctx) error {
	var body struct {
		FileName string `json:"fileName"`
	}
	// Empty body means "sweep everything".
	_ = c.BodyParser(&body)
	removed, err := h.svc.CleanupChunks(body.FileName)
	if err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	return utils.JSONSuccess(c, fiber.Map{"removed": removed}, "chunk directories cleaned")
}

// GET /api/videos/categories
func (h *Handler) Categories(c *fiber.Ctx) error {
	cats, err := h.svc.Categories(c.Context())
	if err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	return utils.JSONSuccess(c, cats, "categories fetched")
}

// POST /api/admin/videos/categories {name}
func (h *Handler) AddCategory(c *fiber.Ctx) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "invalid request body")
	}
	cat, err := h.svc.AddCategory(c.Context(), body.Name)
	if err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	return utils.JSONSuccess(c, cat, "category added")
}

// DELETE /api/admin/videos/categories/:id
func (h *Handler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.svc.RemoveCategory(c.Context(), c.Params("id")); err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	return utils.JSONSuccess(c, fiber.Map{}, "category deleted")
}

// GET /api/videos?categoryId=&page=&pageSize=
func (h *Handler) VideosByCategory(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "page must be an integer")
	}
	pageSize, err := strconv.Atoi(c.Query("pageSize", "10"))
	if err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "pageSize must be an integer")
	}
	videos, total, err := h.svc.VideosByCategory(c.Context(), c.Query("categoryId"), page, pageSize)
	if err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	return utils.JSONSuccessExtra(c, videos, "videos fetched", fiber.Map{
		"pagination": fiber.Map{
			"currentPage":  page,
			"pageSize":     pageSize,
			"totalRecords": total,
			"totalPages":   totalPages,
		},
	})
}

// GET /api/videos/:id
func (h *Handler) VideoByID(c *fiber.Ctx) error {
	v, err := h.svc.Video(c.Context(), c.Params("id"))
	if err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	return utils.JSONSuccess(c, v, "video fetched")
}

// GET /api/videos/:id/play-url
func (h *Handler) PlayURL(c *fiber.Ctx) error {
	url, err := h.svc.PlayURL(c.Context(), c.Params("id"))
	if err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	return utils.JSONSuccess(c, fiber.Map{"url": url}, "play url generated")
}

// DELETE /api/admin/videos/:id
func (h *Handler) DeleteVideo(c *fiber.Ctx) error {
	if err := h.svc.RemoveVideo(c.Context(), c.Params("id")); err != nil {
		return utils.JSONFromError(c, err, h.dev)
	}
	return utils.JSONSuccess(c, fiber.Map{}, "video deleted")
}
