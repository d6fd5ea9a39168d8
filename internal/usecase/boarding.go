package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/board-check/internal/extract"
	"github.com/example/board-check/internal/logging"
	"github.com/example/board-check/internal/manifest"
	"github.com/example/board-check/internal/message"
	"github.com/example/board-check/internal/repository"
	"github.com/example/board-check/internal/validation"
)

// BoardingRepository defines the persistence operations needed by the use case.
type BoardingRepository interface {
	Save(ctx context.Context, record *repository.BoardingRecord) error
	FindBySessionID(ctx context.Context, sessionID string) (*repository.BoardingRecord, error)
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// ManifestSource provides the passenger roster for a boarding session.
type ManifestSource interface {
	Load() ([]manifest.Row, error)
	Snapshot(rows []manifest.Row) (string, error)
}

// BoardingResult is what a completed boarding session hands back to the caller.
type BoardingResult struct {
	SessionID string
	Decision  *validation.Decision
	Message   string
	Validated bool
}

// BoardingUseCase orchestrates one passenger's boarding verification: extract,
// validate against the roster, render the message, persist and cache the
// outcome.
type BoardingUseCase struct {
	repo           BoardingRepository
	cache          Cache
	manifests      ManifestSource
	identities     extract.IdentityExtractor
	boardingPasses extract.BoardingPassExtractor
	faces          extract.FaceMatcher
	engine         *validation.Engine
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

type cachedBoarding struct {
	SessionID  string    `json:"session_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	FlightNo   string    `json:"flight_no"`
	Seat       string    `json:"seat"`
	Validated  bool      `json:"validated"`
	Message    string    `json:"message"`
	NameBit    bool      `json:"name_validated"`
	DOBBit     bool      `json:"dob_validated"`
	PassBit    bool      `json:"boarding_pass_validated"`
	PersonBit  bool      `json:"person_validated"`
	LuggageBit bool      `json:"luggage_validated"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewBoardingUseCase constructs a new use case instance.
func NewBoardingUseCase(
	repo BoardingRepository,
	cache Cache,
	manifests ManifestSource,
	identities extract.IdentityExtractor,
	boardingPasses extract.BoardingPassExtractor,
	faces extract.FaceMatcher,
	logger *zap.Logger,
) *BoardingUseCase {
	return &BoardingUseCase{
		repo:           repo,
		cache:          cache,
		manifests:      manifests,
		identities:     identities,
		boardingPasses: boardingPasses,
		faces:          faces,
		engine:         validation.NewEngine(logger),
		logger:         logger.Named("boarding_usecase"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// Board runs a full boarding session over the uploaded ID image, boarding pass
// image, and passenger video.
func (uc *BoardingUseCase) Board(ctx context.Context, idImage, passImage, video []byte, style message.Style) (*BoardingResult, error) {
	sessionID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.board", sessionID)

	cacheKey := fmt.Sprintf("boarding:%s", sessionID)
	if err := uc.withRedisRetry(ctx, sessionID, "cache.set.processing", func() error {
		return uc.cache.Set(ctx, cacheKey, "processing", time.Minute)
	}); err != nil {
		opLogger.Error("failed to set processing flag", zap.Error(err))
		return nil, err
	}

	rows, err := uc.manifests.Load()
	if err != nil {
		wrapped := logging.NewOperationError("usecase.load_manifest", sessionID, err)
		opLogger.Error("failed to load manifest", zap.Error(wrapped))
		return nil, wrapped
	}
	snapshotPath, err := uc.manifests.Snapshot(rows)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.snapshot_manifest", sessionID, err)
		opLogger.Error("failed to snapshot manifest", zap.Error(wrapped))
		return nil, wrapped
	}
	opLogger.Info("manifest loaded", zap.Int("rows", len(rows)), zap.String("snapshot", snapshotPath))

	identity, err := uc.identities.AnalyzeID(ctx, idImage)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.analyze_id", sessionID, err)
		opLogger.Error("ID analysis failed", zap.Error(wrapped))
		return nil, wrapped
	}

	pass, err := uc.boardingPasses.AnalyzeBoardingPass(ctx, passImage)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.analyze_boarding_pass", sessionID, err)
		opLogger.Error("boarding pass analysis failed", zap.Error(wrapped))
		return nil, wrapped
	}

	matches, err := uc.faces.IdentifyFaces(ctx, idImage, video)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.identify_faces", sessionID, err)
		opLogger.Error("face identification failed", zap.Error(wrapped))
		return nil, wrapped
	}

	decision := uc.engine.Validate(identity, pass, matches, rows)
	rendered := message.Render(decision, style)

	record := &repository.BoardingRecord{
		SessionID: sessionID,
		Message:   rendered,
		CreatedAt: time.Now().UTC(),
	}
	if decision != nil {
		record.FirstName = decision.FirstName
		record.LastName = decision.LastName
		record.FlightNo = decision.FlightNo
		record.Seat = decision.Seat
		record.NameValidated = decision.Outcome.Name
		record.DOBValidated = decision.Outcome.DateOfBirth
		record.BoardingPassValidated = decision.Outcome.BoardingPass
		record.PersonValidated = decision.Outcome.Person
		record.LuggageValidated = decision.Outcome.Luggage
		record.Validated = decision.Validated
	}
	if err := uc.repo.Save(ctx, record); err != nil {
		wrapped := logging.NewOperationError("usecase.save_record", sessionID, err)
		opLogger.Error("failed to persist boarding record", zap.Error(wrapped))
		return nil, wrapped
	}

	cached := cachedBoarding{
		SessionID:  sessionID,
		FirstName:  record.FirstName,
		LastName:   record.LastName,
		FlightNo:   record.FlightNo,
		Seat:       record.Seat,
		Validated:  record.Validated,
		Message:    record.Message,
		NameBit:    record.NameValidated,
		DOBBit:     record.DOBValidated,
		PassBit:    record.BoardingPassValidated,
		PersonBit:  record.PersonValidated,
		LuggageBit: record.LuggageValidated,
		CreatedAt:  record.CreatedAt,
	}
	serialized, err := json.Marshal(cached)
	if err != nil {
		opLogger.Error("failed to serialize boarding result", zap.Error(err))
		return nil, err
	}
	if err := uc.withRedisRetry(ctx, sessionID, "cache.set.result", func() error {
		return uc.cache.Set(ctx, cacheKey, string(serialized), 5*time.Minute)
	}); err != nil {
		opLogger.Error("failed to cache boarding result", zap.Error(err))
		return nil, err
	}

	return &BoardingResult{
		SessionID: sessionID,
		Decision:  decision,
		Message:   rendered,
		Validated: record.Validated,
	}, nil
}

// GetResult retrieves a cached boarding outcome or loads from persistence.
func (uc *BoardingUseCase) GetResult(ctx context.Context, sessionID string) (*repository.BoardingRecord, error) {
	cacheKey := fmt.Sprintf("boarding:%s", sessionID)
	if cached, err := uc.withRedisGet(ctx, sessionID, "cache.get.result", cacheKey); err == nil {
		var payload cachedBoarding
		if err := json.Unmarshal([]byte(cached), &payload); err != nil {
			logging.WithOperation(uc.logger, "usecase.get_result", sessionID).Warn("failed to decode cached result", zap.Error(err))
		} else {
			record := &repository.BoardingRecord{
				SessionID:             sessionID,
				FirstName:             payload.FirstName,
				LastName:              payload.LastName,
				FlightNo:              payload.FlightNo,
				Seat:                  payload.Seat,
				NameValidated:         payload.NameBit,
				DOBValidated:          payload.DOBBit,
				BoardingPassValidated: payload.PassBit,
				PersonValidated:       payload.PersonBit,
				LuggageValidated:      payload.LuggageBit,
				Validated:             payload.Validated,
				Message:               payload.Message,
				CreatedAt:             payload.CreatedAt,
			}
			if payload.SessionID != "" {
				record.SessionID = payload.SessionID
			}
			return record, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logging.WithOperation(uc.logger, "usecase.get_result", sessionID).Warn("failed to read cache", zap.Error(err))
	}

	record, err := uc.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (uc *BoardingUseCase) withRedisRetry(ctx context.Context, sessionID, operation string, fn func() error) error {
	if uc.retryAttempts <= 1 {
		err := fn()
		return logging.NewOperationError(operation, sessionID, err)
	}

	backoff := uc.initialBackoff
	opLogger := logging.WithOperation(uc.logger, operation, sessionID)
	var err error
	for attempt := 0; attempt < uc.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, sessionID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= uc.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("redis operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if errors.Is(err, redis.Nil) {
			// A missing key is an expected outcome, not a failure.
			return logging.NewOperationError(operation, sessionID, err)
		}

		if !isTransientError(err) || attempt == uc.retryAttempts-1 {
			opLogger.Error("redis operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, sessionID, err)
		}

		opLogger.Warn("transient redis error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, sessionID, err)
}

func (uc *BoardingUseCase) withRedisGet(ctx context.Context, sessionID, operation, cacheKey string) (string, error) {
	var result string
	err := uc.withRedisRetry(ctx, sessionID, operation, func() error {
		value, err := uc.cache.Get(ctx, cacheKey)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}
