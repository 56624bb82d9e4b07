package handler

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/souqly/marketplace-system/internal/api/metrics"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// Buckets that may be written through the upload endpoint.
var allowedBuckets = map[string]struct{}{
	"listing-images": {},
	"listing-videos": {},
}

// MediaHandler stores and serves listing media. Uploads are scoped under the
// uploading principal so one account cannot overwrite another's files.
type MediaHandler struct {
	store ports.ObjectStore
}

func NewMediaHandler(store ports.ObjectStore) *MediaHandler {
	return &MediaHandler{store: store}
}

type uploadResponse struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Upload handles POST /v1/media/:bucket with a multipart "file" part.
//
// @Summary      Upload a media file
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        bucket  path      string  true  "Target bucket"
// @Param        file    formData  file    true  "File to upload"
// @Success      201     {object}  uploadResponse
// @Failure      400     {object}  errorResponse
// @Router       /v1/media/{bucket} [post]
func (h *MediaHandler) Upload(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	bucket := c.Param("bucket")
	if _, ok := allowedBuckets[bucket]; !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown bucket")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer src.Close()

	key := fmt.Sprintf("%s/%s%s", principalID, uuid.NewString(), path.Ext(fh.Filename))
	url, err := h.store.Upload(c.Request().Context(), bucket, key, src)
	if err != nil {
		metrics.MediaUploadsTotal.WithLabelValues(bucket, "error").Inc()
		return err
	}
	metrics.MediaUploadsTotal.WithLabelValues(bucket, "ok").Inc()

	return c.JSON(http.StatusCreated, uploadResponse{URL: url, Path: key})
}

// Serve handles GET /media/:bucket/*, the public read path referenced by
// stored media URLs.
//
// @Summary      Serve a media file
// @Tags         media
// @Param        bucket  path  string  true  "Bucket"
// @Param        path    path  string  true  "File path"
// @Success      200  "file stream"
// @Failure      404  {object}  errorResponse
// @Router       /media/{bucket}/{path} [get]
func (h *MediaHandler) Serve(c echo.Context) error {
	bucket := c.Param("bucket")
	key := c.Param("*")
	if bucket == "" || key == "" {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}

	stream, err := h.store.Open(c.Request().Context(), bucket, key)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	defer stream.Close()

	return c.Stream(http.StatusOK, contentTypeFor(key), stream)
}

// Delete handles DELETE /v1/media/:bucket/*. Principals may only remove
// files under their own prefix.
//
// @Summary      Delete a media file
// @Tags         media
// @Security     BearerAuth
// @Param        bucket  path  string  true  "Bucket"
// @Param        path    path  string  true  "File path"
// @Success      204  "no content"
// @Failure      403  {object}  errorResponse
// @Router       /v1/media/{bucket}/{path} [delete]
func (h *MediaHandler) Delete(c echo.Context) error {
	principalID, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	bucket := c.Param("bucket")
	key := c.Param("*")
	if !strings.HasPrefix(key, principalID+"/") {
		return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
	}

	if err := h.store.Remove(c.Request().Context(), bucket, []string{key}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func contentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
