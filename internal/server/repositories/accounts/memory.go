package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/bbelderbos/codeimages/internal/common"
	"github.com/bbelderbos/codeimages/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository used by tests and local runs
// without Postgres. It enforces the same uniqueness rules as the schema.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.Account
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*models.Account), now: time.Now}
}

func (r *MemoryRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.byID {
		if a.Username == account.Username {
			return nil, common.ErrDuplicateUsername
		}
		if a.Email == account.Email {
			return nil, common.ErrDuplicateEmail
		}
	}

	account.ID = uuid.NewString()
	account.CreatedAt = r.now().UTC()
	stored := *account
	r.byID[account.ID] = &stored
	return account, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.ID == id })
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.Username == username })
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.Email == email })
}

func (r *MemoryRepository) GetByActivationKey(_ context.Context, key string) (*models.Account, error) {
	if key == "" {
		return nil, common.ErrNotFound
	}
	return r.find(func(a *models.Account) bool { return a.ActivationKey == key })
}

func (r *MemoryRepository) MarkVerified(_ context.Context, id, key string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || key == "" || a.ActivationKey != key {
		return nil, common.ErrNotFound
	}
	a.Verified = true
	a.ActivationKey = ""
	out := *a
	return &out, nil
}

func (r *MemoryRepository) LockForUpdate(ctx context.Context, id string) (*models.Account, error) {
	return r.GetByID(ctx, id)
}

// Update replaces the stored account; used to flip flags that the service
// layer never changes (active, premium).
func (r *MemoryRepository) Update(account *models.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *account
	r.byID[account.ID] = &stored
}

func (r *MemoryRepository) find(match func(*models.Account) bool) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byID {
		if match(a) {
			out := *a
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}
