package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/pkg/composer"
	"github.com/ds124wfegd/photoframe/internal/pkg/loader"
	"github.com/sirupsen/logrus"
)

// Shown to users instead of the per-strategy details, which only go to the log.
const failureMessage = "failed to generate composite"

func imageURL(id string) string {
	return fmt.Sprintf("/api/composites/%s/image", id)
}

func validate(req CreateRequest) error {
	if !req.Layout.Valid() {
		return fmt.Errorf("%w: %q", entity.ErrInvalidLayout, req.Layout)
	}
	if len(req.Photos) == 0 {
		return entity.ErrNoPhotos
	}
	if req.ID == "" {
		return fmt.Errorf("%w: missing composite id", entity.ErrInvalidInput)
	}
	return nil
}

func (s *compositeService) CreateComposite(ctx context.Context, req CreateRequest) (*entity.CompositeResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Flow == "" {
		req.Flow = entity.FlowPhotobooth
	}

	composeReq := composer.Request{
		Layout: req.Layout,
		Flow:   req.Flow,
		Photos: make([]loader.Source, 0, len(req.Photos)),
	}
	if req.Frame != nil {
		composeReq.Frame = req.Frame.source()
	}
	for _, p := range req.Photos {
		composeReq.Photos = append(composeReq.Photos, p.source())
	}

	composite := &entity.Composite{
		ID:        req.ID,
		Layout:    req.Layout,
		Flow:      req.Flow,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.render(ctx, composite, composeReq); err != nil {
		return nil, err
	}
	return response(composite), nil
}

func (s *compositeService) SubmitThumbnail(ctx context.Context, req CreateRequest) (*entity.CreateResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Flow == "" {
		req.Flow = entity.FlowUpload
	}

	composite := &entity.Composite{
		ID:        req.ID,
		Status:    entity.StatusProcessing,
		Layout:    req.Layout,
		Flow:      req.Flow,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Save(composite); err != nil {
		return nil, err
	}

	task, err := s.storeInputs(req)
	if err != nil {
		if delErr := s.repo.Delete(req.ID); delErr != nil {
			logrus.WithError(delErr).WithField("composite_id", req.ID).Error("Failed to remove partial composite")
		}
		return nil, err
	}

	if err := s.producer.Publish(ctx, task); err != nil {
		s.markFailed(composite, "could not queue composite")
		return nil, err
	}

	return &entity.CreateResponse{ID: req.ID, Status: entity.StatusProcessing}, nil
}

func (s *compositeService) storeInputs(req CreateRequest) (entity.CompositeTask, error) {
	task := entity.CompositeTask{
		CompositeID: req.ID,
		Layout:      req.Layout,
		Flow:        req.Flow,
		Photos:      make([]entity.TaskSource, 0, len(req.Photos)),
	}
	if req.Frame != nil {
		src, err := s.storeInput(req.ID, "frame", *req.Frame)
		if err != nil {
			return task, err
		}
		task.Frame = &src
	}
	for i, p := range req.Photos {
		src, err := s.storeInput(req.ID, fmt.Sprintf("photo-%d", i), p)
		if err != nil {
			return task, err
		}
		task.Photos = append(task.Photos, src)
	}
	return task, nil
}

// storeInput saves uploaded bytes next to the composite. Remote inputs are passed on as
// URLs and fetched by the processor.
func (s *compositeService) storeInput(id, name string, in Input) (entity.TaskSource, error) {
	if len(in.Data) == 0 {
		if in.URL == "" {
			return entity.TaskSource{}, fmt.Errorf("%w: %s is empty", entity.ErrInvalidInput, name)
		}
		return entity.TaskSource{URL: in.URL}, nil
	}
	path, err := s.repo.SaveInput(id, name, bytes.NewReader(in.Data))
	if err != nil {
		return entity.TaskSource{}, err
	}
	return entity.TaskSource{Path: path}, nil
}

func (s *compositeService) ProcessTask(ctx context.Context, task entity.CompositeTask) error {
	composite, err := s.repo.FindByID(task.CompositeID)
	if err != nil {
		if !errors.Is(err, entity.ErrCompositeNotFound) {
			return err
		}
		// deleted before the processor got to it
		logrus.WithField("composite_id", task.CompositeID).Warn("Composite task for unknown id dropped")
		return nil
	}

	req := composer.Request{
		Layout: task.Layout,
		Flow:   task.Flow,
		Photos: make([]loader.Source, 0, len(task.Photos)),
	}
	if task.Frame != nil {
		req.Frame = taskSource(*task.Frame)
	}
	for _, p := range task.Photos {
		req.Photos = append(req.Photos, taskSource(p))
	}

	return s.render(ctx, composite, req)
}

// render composes req and stores the outcome on composite, successful or not.
func (s *compositeService) render(ctx context.Context, composite *entity.Composite, req composer.Request) error {
	res, err := s.composer.Compose(ctx, req)
	if err == nil {
		err = s.repo.SaveImage(composite.ID, bytes.NewReader(res.File))
	}
	if err != nil {
		s.markFailed(composite, failureMessage)
		return err
	}

	composite.Status = entity.StatusCompleted
	composite.Width = res.Width
	composite.Height = res.Height
	composite.Slots = res.Slots
	composite.Strategy = res.Strategy
	composite.Error = ""
	return s.repo.Save(composite)
}

func (s *compositeService) markFailed(composite *entity.Composite, msg string) {
	composite.Status = entity.StatusFailed
	composite.Error = msg
	if err := s.repo.Save(composite); err != nil {
		logrus.WithError(err).WithField("composite_id", composite.ID).Error("Failed to save composite status")
	}
}

func (s *compositeService) GetComposite(_ context.Context, id string) (*entity.CompositeResponse, error) {
	composite, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	return response(composite), nil
}

func (s *compositeService) OpenImage(_ context.Context, id string) (io.ReadCloser, error) {
	composite, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if composite.Status != entity.StatusCompleted {
		return nil, entity.ErrCompositeNotReady
	}
	return s.repo.OpenImage(id)
}

func (s *compositeService) DeleteComposite(_ context.Context, id string) error {
	return s.repo.Delete(id)
}

func response(c *entity.Composite) *entity.CompositeResponse {
	resp := &entity.CompositeResponse{
		ID:     c.ID,
		Status: c.Status,
		Layout: c.Layout,
	}
	if c.Status == entity.StatusCompleted {
		resp.URL = imageURL(c.ID)
		resp.Width = c.Width
		resp.Height = c.Height
		resp.Slots = c.Slots
		resp.Strategy = c.Strategy
	}
	if c.Status == entity.StatusFailed {
		resp.Error = c.Error
	}
	return resp
}

func (in Input) source() loader.Source {
	if len(in.Data) > 0 {
		return loader.FromBytes(in.Name, in.Data)
	}
	return loader.FromURL(in.URL)
}

func taskSource(ts entity.TaskSource) loader.Source {
	if ts.Path != "" {
		return loader.FromPath(ts.Path)
	}
	return loader.FromURL(ts.URL)
}
