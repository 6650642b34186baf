package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-enroll-api/pkg/config"
	appErrors "github.com/noah-isme/uni-enroll-api/pkg/errors"
)

type sequenceCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
}

// NumberingService issues the unique human-readable identifiers assigned
// to finalized forms. The primary path is a server-side atomic increment
// per year, so two concurrent calls can never draw the same sequence
// number. When the counter is unreachable a fallback identifier is
// issued under a distinct prefix; the two formats cannot collide.
type NumberingService struct {
	counter sequenceCounter
	cfg     config.NumberingConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNumberingService constructs NumberingService.
func NewNumberingService(counter sequenceCounter, cfg config.NumberingConfig, metrics *MetricsService, logger *zap.Logger) *NumberingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "EF"
	}
	if cfg.FallbackPrefix == "" {
		cfg.FallbackPrefix = "XF"
	}
	if cfg.SequenceWidth <= 0 {
		cfg.SequenceWidth = 6
	}
	return &NumberingService{counter: counter, cfg: cfg, metrics: metrics, logger: logger}
}

// Next returns the next form number for the given year. The sequence is
// strictly increasing per year across the whole system, not per student
// or degree.
func (s *NumberingService) Next(ctx context.Context, year int) (string, error) {
	if s.counter != nil {
		seq, err := s.counter.Incr(ctx, fmt.Sprintf("formseq:%d", year))
		if err == nil {
			return fmt.Sprintf("%s-%d-%0*d", s.cfg.Prefix, year, s.cfg.SequenceWidth, seq), nil
		}
		s.logger.Warn("numbering counter unavailable, issuing fallback identifier",
			zap.Int("year", year), zap.Error(err))
	}

	fallback, err := s.fallback(year)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrNumberingUnavailable.Code,
			appErrors.ErrNumberingUnavailable.Status, appErrors.ErrNumberingUnavailable.Message)
	}
	if s.metrics != nil {
		s.metrics.RecordNumberingFallback()
	}
	return fallback, nil
}

// fallback derives an identifier from a high-resolution timestamp plus a
// random suffix. The distinct prefix keeps it disjoint from sequenced
// numbers by construction.
func (s *NumberingService) fallback(year int) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%x-%s", s.cfg.FallbackPrefix, year, time.Now().UnixNano(), hex.EncodeToString(suffix)), nil
}
