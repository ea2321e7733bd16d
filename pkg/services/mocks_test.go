package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/menuguard/menuguard-engine/pkg/apperrors"
	"github.com/menuguard/menuguard-engine/pkg/models"
	"github.com/menuguard/menuguard-engine/pkg/repositories"
)

// fakeProfileRepo is an in-memory ProfileRepository for service tests.
type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.Profile
}

var _ repositories.ProfileRepository = (*fakeProfileRepo)(nil)

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uuid.UUID]*models.Profile)}
}

func (f *fakeProfileRepo) Create(ctx context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.profiles {
		if existing.Email == p.Email {
			return apperrors.ErrConflict
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	clone := *p
	f.profiles[p.ID] = &clone
	return nil
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeProfileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Email == email {
			clone := *p
			return &clone, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeProfileRepo) GetOrCreate(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if existing, err := f.GetByEmail(ctx, p.Email); err == nil {
		return existing, nil
	}
	if err := f.Create(ctx, p); err != nil {
		return nil, err
	}
	return f.GetByEmail(ctx, p.Email)
}

func (f *fakeProfileRepo) Update(ctx context.Context, id uuid.UUID, update *models.ProfileUpdate) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if update.Username != nil {
		p.Username = *update.Username
	}
	if update.Allergies != nil {
		p.Allergies = *update.Allergies
	}
	if update.Preferences != nil {
		p.Preferences = *update.Preferences
	}
	p.UpdatedAt = time.Now()
	clone := *p
	return &clone, nil
}

func (f *fakeProfileRepo) SetPro(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	p.IsPro = true
	p.MaxAnalysesPerMonth = nil
	clone := *p
	return &clone, nil
}

func (f *fakeProfileRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.PasswordHash = passwordHash
	return nil
}

// fakeHistoryRepo is an in-memory HistoryRepository for service tests.
type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []*models.HistoryEntry
}

var _ repositories.HistoryRepository = (*fakeHistoryRepo)(nil)

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (f *fakeHistoryRepo) Insert(ctx context.Context, entry *models.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = uuid.New()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	clone := *entry
	f.entries = append(f.entries, &clone)
	return nil
}

func (f *fakeHistoryRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.HistoryEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].UserID == userID {
			clone := *f.entries[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepo) DeleteByIDForUser(ctx context.Context, id, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.ID == id && e.UserID == userID {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (f *fakeHistoryRepo) CountForUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, e := range f.entries {
		if e.UserID == userID && !e.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// fakeFetcher stubs the menu URL fetcher.
type fakeFetcher struct {
	text  string
	err   error
	calls int
	urls  []string
}

func (f *fakeFetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	f.calls++
	f.urls = append(f.urls, rawURL)
	if f.err != nil {
		return "", f.err
	}
	if f.text == "" {
		return "", fmt.Errorf("no text configured")
	}
	return f.text, nil
}
