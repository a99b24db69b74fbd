package service

import (
	"context"
	"io"

	"github.com/ds124wfegd/photoframe/internal/database"
	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/pkg/composer"
	"github.com/ds124wfegd/photoframe/internal/pkg/kafka"
)

// Input is one uploaded file or one remote image.
type Input struct {
	Name string
	Data []byte
	URL  string
}

type CreateRequest struct {
	ID     string
	Layout entity.LayoutType
	Flow   entity.Flow
	Frame  *Input
	Photos []Input
}

type CompositeService interface {
	// CreateComposite renders synchronously and stores the result.
	CreateComposite(ctx context.Context, req CreateRequest) (*entity.CompositeResponse, error)
	// SubmitThumbnail stores the inputs and queues the composite for the processor.
	SubmitThumbnail(ctx context.Context, req CreateRequest) (*entity.CreateResponse, error)
	GetComposite(ctx context.Context, id string) (*entity.CompositeResponse, error)
	OpenImage(ctx context.Context, id string) (io.ReadCloser, error)
	DeleteComposite(ctx context.Context, id string) error
	ProcessTask(ctx context.Context, task entity.CompositeTask) error
}

type Composer interface {
	Compose(ctx context.Context, req composer.Request) (*entity.CompositeResult, error)
}

type compositeService struct {
	repo     database.CompositeRepository
	producer kafka.Producer
	composer Composer
}

func NewCompositeService(repo database.CompositeRepository, producer kafka.Producer, composer Composer) CompositeService {
	return &compositeService{
		repo:     repo,
		producer: producer,
		composer: composer,
	}
}
