package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/cache"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/storage"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/store"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/logger"

	"github.com/google/uuid"
)

// ImageResolver turns an ImageSource into a durable URL.
type ImageResolver interface {
	Resolve(ctx context.Context, src storage.ImageSource) (string, error)
}

// EventPublisher defines the interface for publishing record events.
type EventPublisher interface {
	Publish(ctx context.Context, event models.PredictionEvent) error
}

// CreateInput carries the already-parsed fields of a create request.
// Owner-like fields from the request body are never part of it.
type CreateInput struct {
	Image           storage.ImageSource
	DiseaseDetected string
	ConfidenceScore *float64
	PlantType       string
	Location        *models.GeoPoint
}

// Validate checks the required fields without touching any collaborator.
func (in CreateInput) Validate() error {
	if in.Image.IsZero() {
		return &ValidationError{Field: "image", Message: "an image file is required"}
	}
	return in.ValidateMetadata()
}

// ValidateMetadata checks every required field except the image.
// Direct ingestion calls it before streaming the file to storage.
func (in CreateInput) ValidateMetadata() error {
	if strings.TrimSpace(in.DiseaseDetected) == "" {
		return &ValidationError{Field: "diseaseDetected", Message: "must not be empty"}
	}
	return nil
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

// WithHistoryCache enables the per-owner history cache.
func WithHistoryCache(c cache.HistoryCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithEventPublisher enables publishing of prediction.created events.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// Service provides the record pipeline: create a record for a verified owner and list it back.
type Service struct {
	resolver  ImageResolver
	store     store.RecordStore
	cache     cache.HistoryCache
	publisher EventPublisher
	logger    *logger.Logger
	newID     func() string
}

// NewService creates a new Service.
func NewService(resolver ImageResolver, recordStore store.RecordStore, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		store:    recordStore,
		logger:   log,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the input, resolves the image URL and persists a new record owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*models.PredictionRecord, error) {
	if ownerID == "" {
		err := &AuthenticationError{Reason: "missing verified identity"}
		s.logFailure("create", ownerID, err, nil)
		return nil, err
	}
	if err := in.Validate(); err != nil {
		s.logFailure("create", ownerID, err, nil)
		return nil, err
	}

	imageURL, err := s.resolver.Resolve(ctx, in.Image)
	if err != nil {
		var uf *UploadFailure
		switch {
		case errors.As(err, &uf):
		case errors.Is(err, storage.ErrNoImage):
			err = &ValidationError{Field: "image", Message: "an image file is required"}
		default:
			err = &UploadFailure{Err: err}
		}
		s.logFailure("create", ownerID, err, nil)
		return nil, err
	}

	rec := &models.PredictionRecord{
		ID:              s.newID(),
		OwnerID:         ownerID,
		ImageURL:        imageURL,
		DiseaseDetected: strings.TrimSpace(in.DiseaseDetected),
		ConfidenceScore: normalizeConfidence(in.ConfidenceScore),
		PlantType:       normalizePlantType(in.PlantType),
		Location:        normalizeLocation(in.Location),
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		perr := &PersistenceError{Op: "insert", Err: err}
		// The image is already durable at this point; it stays orphaned.
		s.logFailure("create", ownerID, perr, map[string]interface{}{"orphaned_image_url": imageURL})
		return nil, perr
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, ownerID); err != nil {
			s.logWarn("invalidate_cache", ownerID, err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, models.NewPredictionCreatedEvent(rec)); err != nil {
			s.logWarn("publish_event", ownerID, err)
		}
	}

	s.logger.WithUser(ownerID).WithPayload(map[string]interface{}{
		"operation": "create",
		"record_id": rec.ID,
	}).Info("Prediction record created")
	return rec, nil
}

// ListByOwner returns every record owned by ownerID, newest first. It never returns nil.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]models.PredictionRecord, error) {
	if ownerID == "" {
		err := &AuthenticationError{Reason: "missing verified identity"}
		s.logFailure("list", ownerID, err, nil)
		return nil, err
	}

	var snap cache.Snapshot
	cached := false
	if s.cache != nil {
		var err error
		snap, err = s.cache.Lookup(ctx, ownerID)
		switch {
		case err != nil:
			s.logWarn("lookup_cache", ownerID, err)
		case snap.Hit:
			return ownedSorted(snap.Records, ownerID), nil
		default:
			cached = true
		}
	}

	records, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		perr := &PersistenceError{Op: "list", Err: err}
		s.logFailure("list", ownerID, perr, nil)
		return nil, perr
	}

	out := ownedSorted(records, ownerID)
	if dropped := len(records) - len(out); dropped > 0 {
		s.logger.WithUser(ownerID).WithPayload(map[string]interface{}{
			"operation": "list",
			"dropped":   dropped,
		}).Warn("Store returned records of another owner")
	}

	if cached {
		if err := s.cache.Store(ctx, ownerID, snap.Version, out); err != nil {
			s.logWarn("store_cache", ownerID, err)
		}
	}
	return out, nil
}

// ownedSorted keeps only ownerID's records, ordered by CreatedAt desc then Seq asc.
func ownedSorted(records []models.PredictionRecord, ownerID string) []models.PredictionRecord {
	out := make([]models.PredictionRecord, 0, len(records))
	for _, r := range records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

func normalizeConfidence(v *float64) float64 {
	if v == nil {
		return 0
	}
	c := *v
	if math.IsNaN(c) || math.IsInf(c, 0) || c < 0 || c > 1 {
		return 0
	}
	return c
}

func normalizePlantType(v string) string {
	if t := strings.TrimSpace(v); t != "" {
		return t
	}
	return models.UnknownPlantType
}

func normalizeLocation(p *models.GeoPoint) *models.GeoPoint {
	if p == nil {
		return nil
	}
	valid := func(v, limit float64) bool {
		return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -limit && v <= limit
	}
	if !valid(p.Lat, 90) || !valid(p.Lng, 180) {
		return nil
	}
	return &models.GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

func (s *Service) logFailure(op, ownerID string, err error, extra map[string]interface{}) {
	payload := map[string]interface{}{"operation": op, "owner_id": ownerID}
	for k, v := range extra {
		payload[k] = v
	}
	s.logger.WithUser(ownerID).
		WithError(models.ErrorInfo{Message: err.Error(), Type: ErrorType(err)}).
		WithPayload(payload).
		Error("Prediction operation failed")
}

func (s *Service) logWarn(op, ownerID string, err error) {
	s.logger.WithUser(ownerID).
		WithError(models.ErrorInfo{Message: err.Error()}).
		WithPayload(map[string]interface{}{"operation": op, "owner_id": ownerID}).
		Warn("Best-effort step failed")
}

// ErrorType names the taxonomy class of err for structured logs.
func ErrorType(err error) string {
	var (
		ve *ValidationError
		ae *AuthenticationError
		uf *UploadFailure
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return "ValidationError"
	case errors.As(err, &ae):
		return "AuthenticationError"
	case errors.As(err, &uf):
		return "UploadFailure"
	case errors.As(err, &pe):
		return "PersistenceError"
	default:
		return "InternalError"
	}
}
