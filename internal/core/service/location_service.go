package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/core/ports"
	"github.com/fieldforce/location-tracker/internal/pkg/metrics"
)

const (
	DefaultRecencyWindow = 24 * time.Hour
	DefaultHistoryLimit  = 100
	MaxHistoryLimit      = 1000
	// MaxHistoryPage keeps (page-1)*limit well inside int64.
	MaxHistoryPage       = 1_000_000
)

// DedupChecker abstracts the replay idempotency store (Redis).
type DedupChecker interface {
	Lookup(ctx context.Context, userID string, capturedAt time.Time) (sampleID string, found bool, err error)
	Mark(ctx context.Context, userID string, capturedAt time.Time, sampleID string) error
}

// Option configures a location service.
type Option func(*locationService)

// WithRecencyWindow sets the default proximity recency window.
func WithRecencyWindow(d time.Duration) Option {
	return func(s *locationService) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithDedup enables replay deduplication keyed by (identity, capture time).
func WithDedup(d DedupChecker) Option {
	return func(s *locationService) { s.dedup = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *locationService) { s.now = now }
}

type locationService struct {
	samples    ports.SampleRepository
	latest     ports.LatestPositionRepository
	identities ports.IdentityRepository
	publisher  ports.PositionPublisher
	dedup      DedupChecker
	window     time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewLocationService returns a LocationService implementation.
func NewLocationService(
	samples ports.SampleRepository,
	latest ports.LatestPositionRepository,
	identities ports.IdentityRepository,
	publisher ports.PositionPublisher,
	log zerolog.Logger,
	opts ...Option,
) ports.LocationService {
	s := &locationService{
		samples:    samples,
		latest:     latest,
		identities: identities,
		publisher:  publisher,
		window:     DefaultRecencyWindow,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record validates, persists and broadcasts a single sample.
func (s *locationService) Record(ctx context.Context, in ports.RecordLocationInput) (*ports.RecordResult, error) {
	// 1. Coordinates are the only required field.
	point, err := domain.NewPoint(in.Coordinates)
	if err != nil {
		metrics.IngestErrorsTotal.WithLabelValues("validation").Inc()
		return nil, fmt.Errorf("record location: %w", err)
	}
	if in.BatteryLevel != nil && (*in.BatteryLevel < 0 || *in.BatteryLevel > 100) {
		metrics.IngestErrorsTotal.WithLabelValues("validation").Inc()
		return nil, fmt.Errorf("record location: %w: batteryLevel must be within 0-100", domain.ErrValidation)
	}

	// 2. Resolve whose sample this is.
	ownerID, ownerName, err := s.resolveOwner(ctx, in.Caller, in.UserID)
	if err != nil {
		metrics.IngestErrorsTotal.WithLabelValues(errorReason(err)).Inc()
		return nil, fmt.Errorf("record location: %w", err)
	}

	now := s.now().UTC()
	ts := now
	if !in.CapturedAt.IsZero() && in.CapturedAt.Before(now) {
		ts = in.CapturedAt.UTC()
	}

	// 3. Redelivered capture: re-apply the projection, never store or broadcast twice.
	if !in.CapturedAt.IsZero() {
		if res, ok := s.replay(ctx, ownerID, in.CapturedAt); ok {
			return res, nil
		}
	}

	sample := &domain.LocationSample{
		UserID:        ownerID,
		Point:         point,
		Accuracy:      in.Accuracy,
		Altitude:      in.Altitude,
		Speed:         in.Speed,
		BatteryLevel:  in.BatteryLevel,
		ActivityType:  domain.ParseActivityType(in.ActivityType),
		Address:       in.Address,
		Metadata:      in.Metadata,
		Timestamp:     ts,
		ReceivedAt:    now,
		StoredOffline: in.StoredOffline,
	}

	// 4. Append to history.
	if err := s.samples.Insert(ctx, sample); err != nil {
		metrics.IngestErrorsTotal.WithLabelValues("persistence").Inc()
		s.log.Error().Err(err).Str("user_id", ownerID).Msg("failed to insert location sample")
		return nil, fmt.Errorf("record location: insert: %w: %w", domain.ErrPersistence, err)
	}

	if s.dedup != nil && !in.CapturedAt.IsZero() {
		if err := s.dedup.Mark(ctx, ownerID, in.CapturedAt, sample.ID); err != nil {
			s.log.Warn().Err(err).Str("user_id", ownerID).Msg("failed to set dedup key")
		}
	}

	// 5. Move the latest-position projection.
	applied, err := s.applyLatest(ctx, sample)
	if err != nil {
		return nil, err
	}

	// 6. Broadcast (best-effort, never rolls back 4 or 5).
	event := domain.PositionUpdated{
		UserID:      ownerID,
		Name:        ownerName,
		Coordinates: point,
		Timestamp:   sample.Timestamp,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("user_id", ownerID).Msg("position broadcast failed")
	}

	metrics.SamplesIngestedTotal.WithLabelValues(string(sample.ActivityType), strconv.FormatBool(sample.StoredOffline)).Inc()
	s.log.Debug().
		Str("user_id", ownerID).
		Str("sample_id", sample.ID).
		Bool("latest_applied", applied).
		Msg("location recorded")

	return &ports.RecordResult{Sample: sample, LatestApplied: applied}, nil
}

// replay reports a previously ingested capture. Lookup failures fall through to a fresh insert.
func (s *locationService) replay(ctx context.Context, userID string, capturedAt time.Time) (*ports.RecordResult, bool) {
	if s.dedup == nil {
		return nil, false
	}
	sampleID, found, err := s.dedup.Lookup(ctx, userID, capturedAt)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("dedup check failed, processing anyway")
		return nil, false
	}
	if !found {
		metrics.IngestDedupTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	sample, err := s.samples.FindByID(ctx, sampleID)
	if err != nil {
		s.log.Warn().Err(err).Str("sample_id", sampleID).Msg("dedup hit for missing sample, storing again")
		return nil, false
	}
	metrics.IngestDedupTotal.WithLabelValues("hit").Inc()

	applied, err := s.applyLatest(ctx, sample)
	if err != nil {
		// The original write already succeeded; the projection is repaired on the next sample.
		s.log.Warn().Err(err).Str("sample_id", sampleID).Msg("latest position repair failed")
	}
	s.log.Debug().Str("user_id", userID).Str("sample_id", sampleID).Msg("duplicate sample skipped")
	return &ports.RecordResult{Sample: sample, Duplicate: true, LatestApplied: applied}, true
}

func (s *locationService) applyLatest(ctx context.Context, sample *domain.LocationSample) (bool, error) {
	applied, err := s.latest.Upsert(ctx, sample.Projection())
	if err != nil {
		metrics.IngestErrorsTotal.WithLabelValues("persistence").Inc()
		s.log.Error().Err(err).Str("user_id", sample.UserID).Msg("failed to update latest position")
		return false, fmt.Errorf("record location: latest position: %w: %w", domain.ErrPersistence, err)
	}
	if !applied {
		metrics.LatestStaleTotal.Inc()
		s.log.Debug().
			Str("user_id", sample.UserID).
			Time("timestamp", sample.Timestamp).
			Msg("older sample kept out of latest position")
	}
	return applied, nil
}

// resolveOwner returns the identity a write is attributed to.
func (s *locationService) resolveOwner(ctx context.Context, caller ports.Caller, requested string) (string, string, error) {
	if requested == "" || requested == caller.UserID {
		if caller.UserID == "" {
			return "", "", fmt.Errorf("%w: missing caller identity", domain.ErrValidation)
		}
		return caller.UserID, caller.Name, nil
	}
	if !domain.IsPrivileged(caller.Role) {
		return "", "", domain.ErrForbidden
	}
	identity, err := s.identities.FindByID(ctx, requested)
	if err != nil {
		return "", "", err
	}
	return identity.ID, identity.Name, nil
}

// target resolves and authorises the identity a read is about.
func (s *locationService) target(ctx context.Context, q ports.LocationQuery) (string, error) {
	userID := q.UserID
	if userID == "" {
		userID = q.Caller.UserID
	}
	if userID != q.Caller.UserID && !domain.IsPrivileged(q.Caller.Role) {
		return "", domain.ErrForbidden
	}
	if _, err := s.identities.FindByID(ctx, userID); err != nil {
		return "", err
	}
	return userID, nil
}

// Last returns the sample behind the identity's latest position.
func (s *locationService) Last(ctx context.Context, q ports.LocationQuery) (*domain.LocationSample, error) {
	userID, err := s.target(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("last location: %w", err)
	}

	lp, err := s.latest.FindByUser(ctx, userID)
	switch {
	case err == nil:
		sample, err := s.samples.FindByID(ctx, lp.SampleID)
		if err == nil {
			return sample, nil
		}
		if !errors.Is(err, domain.ErrNoLocation) {
			return nil, fmt.Errorf("last location: %w: %w", domain.ErrPersistence, err)
		}
	case errors.Is(err, domain.ErrNoLocation):
	default:
		return nil, fmt.Errorf("last location: %w: %w", domain.ErrPersistence, err)
	}

	// Projection missing or pointing at a purged sample: read history directly.
	sample, err := s.samples.Newest(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoLocation) {
			return nil, fmt.Errorf("last location: %w", err)
		}
		return nil, fmt.Errorf("last location: %w: %w", domain.ErrPersistence, err)
	}
	return sample, nil
}

// History returns one page of an identity's samples, newest first.
func (s *locationService) History(ctx context.Context, in ports.HistoryInput) (*ports.HistoryResult, error) {
	if !in.From.IsZero() && !in.To.IsZero() && in.From.After(in.To) {
		return nil, fmt.Errorf("location history: %w: startDate must not be after endDate", domain.ErrValidation)
	}
	userID, err := s.target(ctx, in.LocationQuery)
	if err != nil {
		return nil, fmt.Errorf("location history: %w", err)
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	if page > MaxHistoryPage {
		return nil, fmt.Errorf("location history: %w: page must not exceed %d", domain.ErrValidation, MaxHistoryPage)
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	items, total, err := s.samples.History(ctx, ports.HistoryFilter{
		UserID: userID,
		From:   in.From,
		To:     in.To,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("location history: %w: %w", domain.ErrPersistence, err)
	}
	if items == nil {
		items = []*domain.LocationSample{}
	}

	return &ports.HistoryResult{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// AllLatest lists every active identity with its latest position. Managers only.
func (s *locationService) AllLatest(ctx context.Context, caller ports.Caller) ([]ports.IdentityPosition, error) {
	if !domain.IsPrivileged(caller.Role) {
		return nil, fmt.Errorf("all latest: %w", domain.ErrForbidden)
	}

	identities, err := s.identities.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("all latest: %w: %w", domain.ErrPersistence, err)
	}
	positions, err := s.latest.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("all latest: %w: %w", domain.ErrPersistence, err)
	}
	byUser := make(map[string]*domain.LatestPosition, len(positions))
	for _, lp := range positions {
		byUser[lp.UserID] = lp
	}

	out := make([]ports.IdentityPosition, 0, len(identities))
	for _, identity := range identities {
		lp, ok := byUser[identity.ID]
		if !ok {
			lp, err = s.newestAsLatest(ctx, identity.ID)
			if err != nil {
				return nil, fmt.Errorf("all latest: %w: %w", domain.ErrPersistence, err)
			}
		}
		out = append(out, ports.IdentityPosition{Identity: identity, Latest: lp})
	}
	return out, nil
}

func (s *locationService) newestAsLatest(ctx context.Context, userID string) (*domain.LatestPosition, error) {
	sample, err := s.samples.Newest(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoLocation) {
			return nil, nil
		}
		return nil, err
	}
	return sample.Projection(), nil
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrIdentityNotFound):
		return "identity_not_found"
	default:
		return "persistence"
	}
}
