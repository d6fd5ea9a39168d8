package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/board-check/internal/logging"
)

// BoardingRecord is a persisted boarding session outcome.
type BoardingRecord struct {
	ID                    uint      `gorm:"primaryKey"`
	SessionID             string    `gorm:"column:session_id;uniqueIndex;size:64"`
	FirstName             string    `gorm:"column:first_name;size:128"`
	LastName              string    `gorm:"column:last_name;size:128"`
	FlightNo              string    `gorm:"column:flight_no;size:16"`
	Seat                  string    `gorm:"column:seat;size:8"`
	NameValidated         bool      `gorm:"column:name_validated"`
	DOBValidated          bool      `gorm:"column:dob_validated"`
	BoardingPassValidated bool      `gorm:"column:boarding_pass_validated"`
	PersonValidated       bool      `gorm:"column:person_validated"`
	LuggageValidated      bool      `gorm:"column:luggage_validated"`
	Validated             bool      `gorm:"column:validated"`
	Message               string    `gorm:"column:message;type:text"`
	CreatedAt             time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (BoardingRecord) TableName() string {
	return "boarding_records"
}

// MetricsAggregation holds raw aggregates over persisted boarding records.
type MetricsAggregation struct {
	TotalCount   int64
	BoardedCount int64
}

// BoardingRepository provides persistence APIs for boarding records.
type BoardingRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewBoardingRepository creates a new repository instance.
func NewBoardingRepository(db *gorm.DB, logger *zap.Logger) *BoardingRepository {
	return &BoardingRepository{
		db:             db,
		logger:         logger.Named("boarding_repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *BoardingRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&BoardingRecord{})
}

// Save persists a boarding record.
func (r *BoardingRepository) Save(ctx context.Context, record *BoardingRecord) error {
	return r.executeWithRetry(ctx, "repository.save_record", record.SessionID, func() error {
		return r.db.WithContext(ctx).Create(record).Error
	})
}

// FindBySessionID retrieves a boarding record by its session identifier.
func (r *BoardingRepository) FindBySessionID(ctx context.Context, sessionID string) (*BoardingRecord, error) {
	var record BoardingRecord
	err := r.executeWithRetry(ctx, "repository.find_record", sessionID, func() error {
		return r.db.WithContext(ctx).First(&record, "session_id = ?", sessionID).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// AggregateMetrics computes counts over all persisted boarding records.
func (r *BoardingRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var aggregation MetricsAggregation
	err := r.executeWithRetry(ctx, "repository.aggregate_metrics", "", func() error {
		if err := r.db.WithContext(ctx).Model(&BoardingRecord{}).Count(&aggregation.TotalCount).Error; err != nil {
			return err
		}
		return r.db.WithContext(ctx).Model(&BoardingRecord{}).Where("validated = ?", true).Count(&aggregation.BoardedCount).Error
	})
	if err != nil {
		return nil, err
	}
	return &aggregation, nil
}

func (r *BoardingRepository) executeWithRetry(ctx context.Context, operation, sessionID string, fn func() error) error {
	if r.retryAttempts <= 1 {
		return logging.NewOperationError(operation, sessionID, fn())
	}

	backoff := r.initialBackoff
	opLogger := logging.WithOperation(r.logger, operation, sessionID)
	var err error
	for attempt := 0; attempt < r.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, sessionID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == r.retryAttempts-1 {
			opLogger.Error("database operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, sessionID, err)
		}

		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, sessionID, err)
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
