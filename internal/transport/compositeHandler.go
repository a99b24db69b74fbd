package transport

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type jsonCompositeRequest struct {
	Layout    string   `json:"layout" binding:"required"`
	Flow      string   `json:"flow"`
	FrameURL  string   `json:"frame_url"`
	PhotoURLs []string `json:"photo_urls"`
}

// CreateComposite renders the composite while the client waits (photobooth flow).
func (h *CompositeHandler) CreateComposite(c *gin.Context) {
	req, err := h.bindRequest(c)
	if err != nil {
		writeError(c, err)
		return
	}

	resp, err := h.service.CreateComposite(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// SubmitThumbnail queues the composite and answers immediately (upload flow).
func (h *CompositeHandler) SubmitThumbnail(c *gin.Context) {
	req, err := h.bindRequest(c)
	if err != nil {
		writeError(c, err)
		return
	}

	resp, err := h.service.SubmitThumbnail(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

func (h *CompositeHandler) GetComposite(c *gin.Context) {
	resp, err := h.service.GetComposite(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CompositeHandler) GetImage(c *gin.Context) {
	reader, err := h.service.OpenImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, "image/jpeg", reader, nil)
}

func (h *CompositeHandler) DeleteComposite(c *gin.Context) {
	if err := h.service.DeleteComposite(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Composite deleted successfully"})
}

// bindRequest accepts either a multipart form with files or a JSON body with URLs.
func (h *CompositeHandler) bindRequest(c *gin.Context) (service.CreateRequest, error) {
	var (
		req service.CreateRequest
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		req, err = h.bindMultipart(c)
	} else {
		req, err = bindJSON(c)
	}
	if err != nil {
		return service.CreateRequest{}, err
	}

	req.ID = uuid.New().String()
	return req, nil
}

func (h *CompositeHandler) bindMultipart(c *gin.Context) (service.CreateRequest, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return service.CreateRequest{}, fmt.Errorf("%w: unreadable form: %v", entity.ErrInvalidInput, err)
	}

	req, err := parseCommon(c.PostForm("layout"), c.PostForm("flow"))
	if err != nil {
		return service.CreateRequest{}, err
	}

	if frames := form.File["frame"]; len(frames) > 0 {
		frame, err := h.readUpload(frames[0])
		if err != nil {
			return service.CreateRequest{}, err
		}
		req.Frame = &frame
	} else if u := c.PostForm("frame_url"); u != "" {
		req.Frame = &service.Input{URL: u}
	}

	for _, fh := range form.File["photos"] {
		photo, err := h.readUpload(fh)
		if err != nil {
			return service.CreateRequest{}, err
		}
		req.Photos = append(req.Photos, photo)
	}
	for _, u := range form.Value["photo_urls"] {
		req.Photos = append(req.Photos, service.Input{URL: u})
	}
	return req, nil
}

func bindJSON(c *gin.Context) (service.CreateRequest, error) {
	var body jsonCompositeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		return service.CreateRequest{}, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}

	req, err := parseCommon(body.Layout, body.Flow)
	if err != nil {
		return service.CreateRequest{}, err
	}
	if body.FrameURL != "" {
		req.Frame = &service.Input{URL: body.FrameURL}
	}
	for _, u := range body.PhotoURLs {
		req.Photos = append(req.Photos, service.Input{URL: u})
	}
	return req, nil
}

func parseCommon(layout, flow string) (service.CreateRequest, error) {
	l, err := entity.ParseLayout(layout)
	if err != nil {
		return service.CreateRequest{}, err
	}

	f := entity.Flow(strings.ToLower(strings.TrimSpace(flow)))
	switch f {
	case "", entity.FlowUpload, entity.FlowPhotobooth:
	default:
		return service.CreateRequest{}, fmt.Errorf("%w: unknown flow %q", entity.ErrInvalidInput, flow)
	}

	return service.CreateRequest{Layout: l, Flow: f}, nil
}

func (h *CompositeHandler) readUpload(fh *multipart.FileHeader) (service.Input, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !isValidImageType(ext) {
		return service.Input{}, fmt.Errorf("%w: invalid image type %q. Supported: jpg, jpeg, png, gif, webp, svg",
			entity.ErrInvalidInput, ext)
	}
	if fh.Size > h.maxUploadBytes {
		return service.Input{}, fmt.Errorf("%w: %s is larger than %d bytes", entity.ErrInvalidInput, fh.Filename, h.maxUploadBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return service.Input{}, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes))
	if err != nil {
		return service.Input{}, err
	}
	return service.Input{Name: filepath.Base(fh.Filename), Data: data}, nil
}

func isValidImageType(ext string) bool {
	validTypes := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".webp": true,
		".svg":  true,
	}
	return validTypes[ext]
}

// writeError maps service errors to status codes. Composition failures get a generic
// message; the details are already in the log.
func writeError(c *gin.Context, err error) {
	var failed *entity.CompositionFailedError

	switch {
	case errors.Is(err, entity.ErrInvalidLayout),
		errors.Is(err, entity.ErrNoPhotos),
		errors.Is(err, entity.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrCompositeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Composite not found"})
	case errors.Is(err, entity.ErrCompositeNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": "Composite is not ready"})
	case errors.As(err, &failed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate composite"})
	default:
		logrus.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
