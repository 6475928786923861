package media

import (
	"path/filepath"
	"strings"
	"time"
)

// Video is the persisted media record, created only after a remote
// multipart completion succeeds.
type Video struct {
	ID          string    `bson:"_id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	Category    string    `bson:"category" json:"category"` // denormalized category name
	CategoryID  string    `bson:"category_id" json:"category_id"`
	VideoURL    string    `bson:"video_url" json:"video_url"`
	CoverURL    *string   `bson:"cover_url" json:"cover_url"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

type Category struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Part is one uploaded byte range of a multipart session, as reported by
// the object store. PartNumber is 1-based; the ETag must be echoed back
// verbatim at completion.
type Part struct {
	PartNumber   int32     `json:"PartNumber"`
	ETag         string    `json:"ETag"`
	Size         int64     `json:"Size"`
	LastModified time.Time `json:"LastModified"`
}

// MultipartUpload describes an open (not yet completed or aborted)
// multipart session on the remote store.
type MultipartUpload struct {
	Key       string    `json:"key"`
	UploadID  string    `json:"uploadId"`
	Initiated time.Time `json:"initiated"`
}

// ResumeState tells a reconnecting client which 0-based chunk indices
// already landed remotely.
type ResumeState struct {
	UploadedChunks []int  `json:"uploadedChunks"`
	TotalChunks    int    `json:"totalChunks"`
	Parts          []Part `json:"parts"`
}

var videoContentTypes = map[string]string{
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

// ContentTypeFor maps a file name to its MIME type, defaulting to
// application/octet-stream for unknown extensions.
func ContentTypeFor(filename string) string {
	if ct, ok := videoContentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
