package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fieldforce/location-tracker/internal/core/domain"
	"github.com/fieldforce/location-tracker/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubIdentityRepo struct {
	byID map[string]*domain.Identity
	seq  int
}

func newStubIdentityRepo(identities ...*domain.Identity) *stubIdentityRepo {
	r := &stubIdentityRepo{byID: make(map[string]*domain.Identity)}
	for _, i := range identities {
		r.byID[i.ID] = i
	}
	return r
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	clone := *i
	return &clone, nil
}

func (r *stubIdentityRepo) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	for _, i := range r.byID {
		if i.Email == email {
			clone := *i
			return &clone, nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *stubIdentityRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.Identity, error) {
	out := make(map[string]*domain.Identity, len(ids))
	for _, id := range ids {
		if i, ok := r.byID[id]; ok {
			clone := *i
			out[id] = &clone
		}
	}
	return out, nil
}

func (r *stubIdentityRepo) ListActive(_ context.Context) ([]*domain.Identity, error) {
	var out []*domain.Identity
	for _, i := range r.byID {
		if i.Active {
			clone := *i
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (r *stubIdentityRepo) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	for _, i := range r.byID {
		if i.Email == identity.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	clone := *identity
	clone.ID = fmt.Sprintf("user-%d", r.seq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

type stubSampleRepo struct {
	mu        sync.Mutex
	samples   []*domain.LocationSample
	seq       int
	insertErr error
	lastFetch time.Time // since passed to the last Within call
}

func (r *stubSampleRepo) Insert(_ context.Context, s *domain.LocationSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.seq++
	s.ID = fmt.Sprintf("sample-%d", r.seq)
	clone := *s
	r.samples = append(r.samples, &clone)
	return nil
}

func (r *stubSampleRepo) FindByID(_ context.Context, id string) (*domain.LocationSample, error) {
	for _, s := range r.samples {
		if s.ID == id {
			clone := *s
			return &clone, nil
		}
	}
	return nil, domain.ErrNoLocation
}

func (r *stubSampleRepo) Newest(_ context.Context, userID string) (*domain.LocationSample, error) {
	var newest *domain.LocationSample
	for _, s := range r.samples {
		if s.UserID == userID && (newest == nil || s.Timestamp.After(newest.Timestamp)) {
			newest = s
		}
	}
	if newest == nil {
		return nil, domain.ErrNoLocation
	}
	clone := *newest
	return &clone, nil
}

// History applies the same filter, sort and pagination the Mongo repository does.
func (r *stubSampleRepo) History(_ context.Context, f ports.HistoryFilter) ([]*domain.LocationSample, int64, error) {
	var matched []*domain.LocationSample
	for _, s := range r.samples {
		if s.UserID != f.UserID {
			continue
		}
		if !f.From.IsZero() && s.Timestamp.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && s.Timestamp.After(f.To) {
			continue
		}
		clone := *s
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.After(matched[j].Timestamp) })

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip > len(matched) {
		return []*domain.LocationSample{}, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

// Within returns every sample in the window: the service owns the radius check.
func (r *stubSampleRepo) Within(_ context.Context, _ domain.Point, _ float64, since time.Time) ([]*domain.LocationSample, error) {
	r.lastFetch = since
	var out []*domain.LocationSample
	for _, s := range r.samples {
		if !s.Timestamp.Before(since) {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

// stubLatestRepo mirrors the conditional upsert: older timestamps never win.
type stubLatestRepo struct {
	byUser    map[string]*domain.LatestPosition
	upsertErr error
}

func newStubLatestRepo() *stubLatestRepo {
	return &stubLatestRepo{byUser: make(map[string]*domain.LatestPosition)}
}

func (r *stubLatestRepo) Upsert(_ context.Context, lp *domain.LatestPosition) (bool, error) {
	if r.upsertErr != nil {
		return false, r.upsertErr
	}
	if cur, ok := r.byUser[lp.UserID]; ok && cur.Timestamp.After(lp.Timestamp) {
		return false, nil
	}
	clone := *lp
	r.byUser[lp.UserID] = &clone
	return true, nil
}

func (r *stubLatestRepo) FindByUser(_ context.Context, userID string) (*domain.LatestPosition, error) {
	lp, ok := r.byUser[userID]
	if !ok {
		return nil, domain.ErrNoLocation
	}
	clone := *lp
	return &clone, nil
}

func (r *stubLatestRepo) FindAll(_ context.Context) ([]*domain.LatestPosition, error) {
	out := make([]*domain.LatestPosition, 0, len(r.byUser))
	for _, lp := range r.byUser {
		clone := *lp
		out = append(out, &clone)
	}
	return out, nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []domain.PositionUpdated
	err    error
}

func (p *stubPublisher) Publish(_ context.Context, e domain.PositionUpdated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

type stubDedup struct {
	keys      map[string]string
	lookupErr error
}

func newStubDedup() *stubDedup {
	return &stubDedup{keys: make(map[string]string)}
}

func (d *stubDedup) key(userID string, ts time.Time) string {
	return fmt.Sprintf("%s:%d", userID, ts.UnixNano())
}

func (d *stubDedup) Lookup(_ context.Context, userID string, ts time.Time) (string, bool, error) {
	if d.lookupErr != nil {
		return "", false, d.lookupErr
	}
	id, ok := d.keys[d.key(userID, ts)]
	return id, ok, nil
}

func (d *stubDedup) Mark(_ context.Context, userID string, ts time.Time, sampleID string) error {
	d.keys[d.key(userID, ts)] = sampleID
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var (
	discardLogger = zerolog.Nop()
	errStoreDown  = errors.New("store down")
	fixedNow      = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
)

func fixedClock() time.Time { return fixedNow }

var (
	alice = &domain.Identity{ID: "alice", Name: "Alice", Role: domain.RoleCommercial, Status: domain.StatusOnline, Active: true}
	bob   = &domain.Identity{ID: "bob", Name: "Bob", Role: domain.RoleCommercial, Status: domain.StatusTraveling, Active: true}
	maria = &domain.Identity{ID: "maria", Name: "Maria", Role: domain.RoleManager, Status: domain.StatusOnline, Active: true}
)

func callerOf(i *domain.Identity) ports.Caller {
	return ports.Caller{UserID: i.ID, Name: i.Name, Role: i.Role}
}

type fixture struct {
	samples    *stubSampleRepo
	latest     *stubLatestRepo
	identities *stubIdentityRepo
	publisher  *stubPublisher
	dedup      *stubDedup
	svc        ports.LocationService
}

func newFixture() *fixture {
	f := &fixture{
		samples:    &stubSampleRepo{},
		latest:     newStubLatestRepo(),
		identities: newStubIdentityRepo(alice, bob, maria),
		publisher:  &stubPublisher{},
		dedup:      newStubDedup(),
	}
	f.svc = NewLocationService(f.samples, f.latest, f.identities, f.publisher, discardLogger,
		WithClock(fixedClock),
		WithDedup(f.dedup),
	)
	return f
}
