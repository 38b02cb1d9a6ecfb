// Package service provides the core business service that implements
// the dependencies required by the HTTP front end.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/cobj/internal/domain/model"
	"github.com/okian/cobj/pkg/logger"
)

// Default page size requested from the CRM.
const defaultListLimit = 100

// Sentinel kinds for service errors.
var (
	ErrListRecords  = errors.New("list records failed")
	ErrCreateRecord = errors.New("create record failed")
)

// Gateway is the remote API the service delegates to.
type Gateway interface {
	List(ctx context.Context, objectType string, properties []string, limit int) ([]model.Record, error)
	Create(ctx context.Context, objectType string, values map[string]string) (model.Record, error)
}

// Service lists and creates records of one custom object type. It holds only
// configuration and is safe for concurrent use.
type Service struct {
	gateway    Gateway
	objectType model.ObjectType
	listLimit  int
	logger     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithObjectType sets the custom object type and its property list.
func WithObjectType(ot model.ObjectType) Option {
	return func(s *Service) {
		if ot.ID != "" && len(ot.Properties) > 0 {
			s.objectType = model.ObjectType{
				ID:         ot.ID,
				Properties: append([]string(nil), ot.Properties...),
			}
		}
	}
}

// WithListLimit sets the fixed page size for listing.
func WithListLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.listLimit = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service around gateway. Without options it targets the
// default object type with the default property list.
func New(gateway Gateway, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		objectType: model.ObjectType{
			ID:         "2-51544776",
			Properties: []string{"name", "house", "family_type"},
		},
		listLimit: defaultListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	return s
}

// ObjectType returns a copy of the configured object type.
func (s *Service) ObjectType() model.ObjectType {
	return model.ObjectType{
		ID:         s.objectType.ID,
		Properties: append([]string(nil), s.objectType.Properties...),
	}
}

// ListLimit returns the page size used for listing.
func (s *Service) ListLimit() int { return s.listLimit }

// ListRecords fetches up to ListLimit records with the configured properties.
// The remote result is passed through unchanged.
func (s *Service) ListRecords(ctx context.Context) ([]model.Record, error) {
	start := time.Now()
	records, err := s.gateway.List(ctx, s.objectType.ID, s.objectType.Properties, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListRecords, err)
	}
	if records == nil {
		records = []model.Record{}
	}
	s.logger.Debug(ctx, "listed records",
		logger.String("object_type", s.objectType.ID),
		logger.Int("count", len(records)),
		logger.Int("elapsed_ms", int(time.Since(start).Milliseconds())))
	return records, nil
}

// CreateRecord creates one record from submitted form values. Exactly the
// configured properties are sent; unsubmitted ones are sent as "".
func (s *Service) CreateRecord(ctx context.Context, form map[string]string) (model.Record, error) {
	values := s.objectType.Values(form)
	rec, err := s.gateway.Create(ctx, s.objectType.ID, values)
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: %w", ErrCreateRecord, err)
	}
	s.logger.Info(ctx, "created record",
		logger.String("object_type", s.objectType.ID),
		logger.String("id", rec.ID))
	return rec, nil
}
