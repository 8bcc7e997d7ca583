package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/prperemyshlev/user-auth-service/internal/apperror"
	"github.com/prperemyshlev/user-auth-service/internal/domain"
	"github.com/prperemyshlev/user-auth-service/internal/repository"
	"github.com/prperemyshlev/user-auth-service/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const cachePrefix = "logError=cache:"

// MaxListMinutes bounds the listing window to one year
const MaxListMinutes = 365 * 24 * 60

// LogErrorInput is one handled failure to record
type LogErrorInput struct {
	Path       string
	Method     string
	Message    string
	Stack      string
	Code       int
	UserID     string
	ClassError string
}

// Validate checks the record before it is stored
func (in LogErrorInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Message, validation.Required),
		validation.Field(&in.Stack, validation.Required),
		validation.Field(&in.Code, validation.Required, validation.Min(100), validation.Max(599)),
		validation.Field(&in.UserID, utils.ObjectID),
	)
}

// logErrorService implements LogErrorService interface
type logErrorService struct {
	logErrorRepo repository.LogErrorRepository
	cache        Cache
	cacheTTL     time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewLogErrorService creates a new log error service
func NewLogErrorService(
	logErrorRepo repository.LogErrorRepository,
	cache Cache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) LogErrorService {
	return &logErrorService{
		logErrorRepo: logErrorRepo,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
		now:          time.Now,
	}
}

func logErrorServiceError(message string, code int) error {
	return apperror.New(message, code, apperror.ClassLogErrorService)
}

// Create stores a record and returns its id
func (s *logErrorService) Create(ctx context.Context, input LogErrorInput) (string, error) {
	if err := input.Validate(); err != nil {
		return "", logErrorServiceError(fmt.Sprintf("invalid log error: %v", err), http.StatusInternalServerError)
	}

	record := &domain.LogError{
		Path:       input.Path,
		Method:     input.Method,
		Message:    input.Message,
		Stack:      input.Stack,
		Code:       input.Code,
		ClassError: input.ClassError,
		CreatedAt:  s.now().UTC(),
	}
	if input.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(input.UserID)
		if err != nil {
			return "", logErrorServiceError("invalid user_id", http.StatusInternalServerError)
		}
		record.UserID = &oid
	}

	created, err := s.logErrorRepo.Create(ctx, record)
	if err != nil {
		return "", err
	}
	return created.ID.Hex(), nil
}

// List returns the records of the last minutes, optionally for one user
func (s *logErrorService) List(ctx context.Context, minutes int, userID string) ([]domain.LogError, error) {
	filter, err := s.listFilter(minutes, userID)
	if err != nil {
		return nil, err
	}

	key := cacheKey("listError", minutes, userID)
	var cached []domain.LogError
	if s.getCache(ctx, key, &cached) {
		return cached, nil
	}

	records, err := s.logErrorRepo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.setCache(ctx, key, records)
	return records, nil
}

// ListCodes counts the records of the last minutes per status code
func (s *logErrorService) ListCodes(ctx context.Context, minutes int, userID string) ([]domain.ErrorsGroupedByCode, error) {
	filter, err := s.listFilter(minutes, userID)
	if err != nil {
		return nil, err
	}

	key := cacheKey("listCodes", minutes, userID)
	var cached []domain.ErrorsGroupedByCode
	if s.getCache(ctx, key, &cached) {
		return cached, nil
	}

	groups, err := s.logErrorRepo.GroupByCode(ctx, filter)
	if err != nil {
		return nil, err
	}

	s.setCache(ctx, key, groups)
	return groups, nil
}

func (s *logErrorService) listFilter(minutes int, userID string) (repository.Filter, error) {
	if err := validation.Validate(minutes, validation.Required, validation.Min(1), validation.Max(MaxListMinutes)); err != nil {
		return nil, logErrorServiceError("invalid timeInMinutes", http.StatusUnprocessableEntity)
	}

	filter := repository.Filter{
		"createdAt": repository.Filter{"$gte": s.now().UTC().Add(-time.Duration(minutes) * time.Minute)},
	}
	if userID != "" {
		oid, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return nil, logErrorServiceError("invalid user_id", http.StatusUnprocessableEntity)
		}
		filter["user_id"] = oid
	}
	return filter, nil
}

func cacheKey(kind string, minutes int, userID string) string {
	return fmt.Sprintf("%s%s-%d-%s", cachePrefix, kind, minutes, userID)
}

// getCache reports a hit; cache failures count as a miss
func (s *logErrorService) getCache(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

func (s *logErrorService) setCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
