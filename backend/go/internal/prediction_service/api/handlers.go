package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/auth"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/config"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/service"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/prediction_service/storage"
	"github.com/VarshithKumarK/AgriPredAI/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RecordService is the subset of service.Service used by the handlers.
type RecordService interface {
	Create(ctx context.Context, ownerID string, in service.CreateInput) (*models.PredictionRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.PredictionRecord, error)
}

// StreamUploader writes a multipart part straight to object storage in direct mode.
type StreamUploader interface {
	UploadStream(ctx context.Context, r io.Reader, size int64, filename, contentType, namespace string) (string, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// IngestConfig controls how uploaded images reach the Storage Resolver.
type IngestConfig struct {
	Mode           config.UploadMode
	TempDir        string
	MaxUploadBytes int64
	AllowedFormats []string
	Namespace      string
	HostedSchemes  []string
}

// API provides handlers for the prediction service.
type API struct {
	service  RecordService
	uploader StreamUploader
	ingest   IngestConfig
	checks   map[string]HealthCheck
	logger   *logger.Logger
}

// NewAPI creates a new API handler. uploader is only used in direct mode and may be nil otherwise.
func NewAPI(svc RecordService, uploader StreamUploader, ingest IngestConfig, checks map[string]HealthCheck, log *logger.Logger) *API {
	if ingest.Mode == "" {
		ingest.Mode = config.UploadModeStaged
	}
	if ingest.TempDir == "" {
		ingest.TempDir = os.TempDir()
	}
	if ingest.Namespace == "" {
		ingest.Namespace = storage.DefaultNamespace
	}
	if len(ingest.AllowedFormats) == 0 {
		ingest.AllowedFormats = storage.DefaultAllowedFormats
	}
	if len(ingest.HostedSchemes) == 0 {
		ingest.HostedSchemes = storage.DefaultHostedSchemes
	}
	return &API{service: svc, uploader: uploader, ingest: ingest, checks: checks, logger: log}
}

// CreatePredictionHandler accepts multipart form data with an "image" file and classification fields.
// Instead of a file, the form may carry an "imageUrl" that is already hosted.
// Any ownerId or user field in the form is ignored; the owner is always the verified caller.
func (a *API) CreatePredictionHandler(c *gin.Context) {
	ownerID, ok := auth.UserID(c)
	if !ok {
		a.reject(c, "create", "", &service.AuthenticationError{Reason: "missing verified identity"})
		return
	}

	if a.ingest.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.ingest.MaxUploadBytes)
	}

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
	case errors.Is(err, http.ErrMissingFile):
		// No file: the service reports the missing image.
		fh = nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.reject(c, "create", ownerID, tooLarge)
			return
		}
		a.reject(c, "create", ownerID, &service.ValidationError{Field: "image", Message: "malformed multipart form"})
		return
	}

	in := service.CreateInput{
		DiseaseDetected: c.PostForm("diseaseDetected"),
		ConfidenceScore: ParseConfidence(c.PostForm("confidenceScore")),
		PlantType:       c.PostForm("plantType"),
		Location:        ParseLocation(c.PostForm("lat"), c.PostForm("lng")),
	}

	if fh != nil {
		src, cleanup, err := a.ingestFile(c, fh, in)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			a.reject(c, "create", ownerID, err)
			return
		}
		in.Image = src
	} else if raw := c.PostForm("imageUrl"); raw != "" {
		src := storage.ClassifyLocation(raw, a.ingest.HostedSchemes)
		if src.Kind() != storage.KindAlreadyHosted {
			a.reject(c, "create", ownerID, &service.ValidationError{Field: "imageUrl", Message: "must be a hosted URL"})
			return
		}
		in.Image = src
	}

	rec, err := a.service.Create(c.Request.Context(), ownerID, in)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ListPredictionsHandler returns the caller's records, newest first.
func (a *API) ListPredictionsHandler(c *gin.Context) {
	ownerID, ok := auth.UserID(c)
	if !ok {
		a.reject(c, "list", "", &service.AuthenticationError{Reason: "missing verified identity"})
		return
	}

	records, err := a.service.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		a.writeError(c, err)
		return
	}
	if records == nil {
		records = []models.PredictionRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// HealthHandler pings every dependency and reports 503 if any is down.
func (a *API) HealthHandler(c *gin.Context) {
	failed := gin.H{}
	for name, check := range a.checks {
		if err := check(c.Request.Context()); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ingestFile checks the sniffed format and turns the part into an ImageSource.
// The returned cleanup, when non-nil, removes any staged file.
func (a *API) ingestFile(c *gin.Context, fh *multipart.FileHeader, in service.CreateInput) (storage.ImageSource, func(), error) {
	mtype, err := storage.SniffUpload(fh)
	if err != nil {
		return storage.ImageSource{}, nil, &service.ValidationError{Field: "image", Message: "unreadable file"}
	}
	if !storage.FormatAllowed(mtype, a.ingest.AllowedFormats) {
		return storage.ImageSource{}, nil, &service.ValidationError{
			Field:   "image",
			Message: "unsupported format " + mtype.String() + ", allowed: " + strings.Join(a.ingest.AllowedFormats, ", "),
		}
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = mtype.Extension()
	}

	if a.ingest.Mode == config.UploadModeDirect {
		if err := in.ValidateMetadata(); err != nil {
			return storage.ImageSource{}, nil, err
		}
		if a.uploader == nil {
			return storage.ImageSource{}, nil, &service.UploadFailure{Namespace: a.ingest.Namespace, Err: errors.New("direct upload is not configured")}
		}
		f, err := fh.Open()
		if err != nil {
			return storage.ImageSource{}, nil, &service.ValidationError{Field: "image", Message: "unreadable file"}
		}
		defer f.Close()
		url, err := a.uploader.UploadStream(c.Request.Context(), f, fh.Size, fh.Filename, mtype.String(), a.ingest.Namespace)
		if err != nil {
			return storage.ImageSource{}, nil, &service.UploadFailure{Namespace: a.ingest.Namespace, Err: err}
		}
		return storage.AlreadyHosted(url), nil, nil
	}

	dst := filepath.Join(a.ingest.TempDir, uuid.New().String()+ext)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		_ = os.Remove(dst)
		return storage.ImageSource{}, nil, &StagingError{Path: dst, Err: err}
	}
	cleanup := func() {
		if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Failed to remove staged upload")
		}
	}
	return storage.Local(dst), cleanup, nil
}

// ParseConfidence parses the raw confidenceScore field. Blank or unparsable input yields nil.
func ParseConfidence(raw string) *float64 {
	return parseFloat(raw)
}

// ParseLocation returns a point only when both coordinates parse.
func ParseLocation(lat, lng string) *models.GeoPoint {
	la, ln := parseFloat(lat), parseFloat(lng)
	if la == nil || ln == nil {
		return nil
	}
	return &models.GeoPoint{Lat: *la, Lng: *ln}
}

func parseFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// StagingError reports that an uploaded part could not be written to the temp directory.
type StagingError struct {
	Path string
	Err  error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("stage upload to %s: %v", e.Path, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

// reject logs a failure raised in the handler layer, then writes the mapped response.
// Errors returned by the service are already logged there and go straight to writeError.
func (a *API) reject(c *gin.Context, op, ownerID string, err error) {
	typ := service.ErrorType(err)
	var se *StagingError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &se):
		typ = "StagingError"
	case errors.As(err, &tooLarge):
		typ = "UploadTooLarge"
	}
	a.logger.WithUser(ownerID).
		WithError(models.ErrorInfo{Message: err.Error(), Type: typ}).
		WithPayload(map[string]interface{}{"operation": op, "owner_id": ownerID}).
		Error("Prediction request rejected")
	a.writeError(c, err)
}

// writeError maps the service error taxonomy onto HTTP status codes.
func (a *API) writeError(c *gin.Context, err error) {
	var (
		ve       *service.ValidationError
		ae       *service.AuthenticationError
		uf       *service.UploadFailure
		pe       *service.PersistenceError
		se       *StagingError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds the upload size limit"})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "field": ve.Field})
	case errors.As(err, &ae):
		c.JSON(http.StatusUnauthorized, gin.H{"error": ae.Error()})
	case errors.As(err, &uf):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to store image"})
	case errors.As(err, &pe):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save prediction"})
	case errors.As(err, &se):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to stage upload"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
