package snippets

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bbelderbos/codeimages/internal/common"
	"github.com/bbelderbos/codeimages/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and local runs
// without Postgres.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.Snippet
	now  func() time.Time
}

func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{byID: make(map[string]*models.Snippet), now: now}
}

func (r *MemoryRepository) Create(_ context.Context, snippet *models.Snippet) (*models.Snippet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.byID {
		if s.AccountID == snippet.AccountID && s.Title == snippet.Title {
			return nil, common.ErrDuplicateTitle
		}
	}

	snippet.ID = uuid.NewString()
	snippet.CreatedAt = r.now().UTC()
	stored := *snippet
	r.byID[snippet.ID] = &stored
	return snippet, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Snippet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *s
	return &out, nil
}

func (r *MemoryRepository) ExistsTitle(_ context.Context, accountID, title string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.byID {
		if s.AccountID == accountID && s.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) CountCreatedBetween(_ context.Context, accountID string, from, to time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.byID {
		if s.AccountID == accountID && !s.CreatedAt.Before(from) && s.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) ListPublic(_ context.Context, page models.Page) ([]*models.Snippet, error) {
	return r.filter(page, func(*models.Snippet) bool { return true }), nil
}

func (r *MemoryRepository) SearchPublic(_ context.Context, term string, page models.Page) ([]*models.Snippet, error) {
	term = strings.ToLower(term)
	return r.filter(page, func(s *models.Snippet) bool {
		return strings.Contains(strings.ToLower(s.Title), term) ||
			strings.Contains(strings.ToLower(s.Code), term) ||
			strings.Contains(strings.ToLower(s.Description), term)
	}), nil
}

func (r *MemoryRepository) filter(page models.Page, match func(*models.Snippet) bool) []*models.Snippet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*models.Snippet, 0)
	for _, s := range r.byID {
		if s.Public && match(s) {
			out := *s
			matched = append(matched, &out)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if page.Offset >= len(matched) {
		return matched[:0]
	}
	matched = matched[page.Offset:]
	if page.Limit < len(matched) {
		matched = matched[:page.Limit]
	}
	return matched
}
