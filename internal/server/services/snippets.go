package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/bbelderbos/codeimages/internal/common"
	"github.com/bbelderbos/codeimages/internal/dbx"
	"github.com/bbelderbos/codeimages/internal/filex"
	"github.com/bbelderbos/codeimages/internal/logging"
	"github.com/bbelderbos/codeimages/internal/server/config"
	"github.com/bbelderbos/codeimages/internal/server/metrics"
	"github.com/bbelderbos/codeimages/internal/server/models"
	"github.com/bbelderbos/codeimages/internal/server/render"
	"github.com/bbelderbos/codeimages/internal/server/repositories/repomanager"
	"github.com/bbelderbos/codeimages/internal/server/storage"
	"github.com/bbelderbos/codeimages/internal/timex"
	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 100
	MaxTitleLength   = 200
	// MaxTitleBytes keeps object keys under the 1024-byte S3 limit.
	MaxTitleBytes    = 600

	renderFileName = "snippet.png"
)

// SnippetService creates, deletes and lists snippets. Creation renders the
// code to an image, uploads it and only then stores the row.
type SnippetService struct {
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	renderer       render.Renderer
	uploader       storage.Uploader
	logger         logging.Logger
	freeDailyLimit int
	adminEmail     string
	tempRoot       string
	renderTimeout  time.Duration
	uploadTimeout  time.Duration
	now            func() time.Time
}

func NewSnippetService(db *sql.DB, m repomanager.RepositoryManager, renderer render.Renderer, uploader storage.Uploader, logger logging.Logger, cfg *config.Config) *SnippetService {
	return &SnippetService{
		db:             db,
		repomanager:    m,
		renderer:       renderer,
		uploader:       uploader,
		logger:         logger.With("module", "snippets"),
		freeDailyLimit: cfg.FreeDailyLimit,
		adminEmail:     cfg.AdminEmail,
		tempRoot:       cfg.TempRoot,
		renderTimeout:  cfg.RenderTimeout,
		uploadTimeout:  cfg.UploadTimeout,
		now:            time.Now,
	}
}

// ObjectKey names the stored image: "{uploadID}/" + base64url("{username}_{title}") + ".png".
// The upload id keeps concurrent or repeated uploads of one title apart.
func ObjectKey(uploadID, username, title string) string {
	return uploadID + "/" + base64.URLEncoding.EncodeToString([]byte(username+"_"+title)) + ".png"
}

// Create runs quota check, duplicate-title check, render, upload and
// persist. The scoped render directory is removed on every path, and an
// uploaded object is removed again when the row cannot be stored.
func (s *SnippetService) Create(ctx context.Context, account *models.Account, draft models.SnippetDraft) (*models.Snippet, error) {
	draft = draft.Normalize()
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	if err := s.checkQuota(ctx, s.db, account); err != nil {
		return nil, err
	}
	if err := s.checkDuplicateTitle(ctx, account.ID, draft.Title); err != nil {
		return nil, err
	}

	uploadID := uuid.NewString()
	dir, cleanup, err := filex.ScopedDir(s.tempRoot, account.ID, uploadID)
	if err != nil {
		return nil, fmt.Errorf("error creating render dir: %w", err)
	}
	defer cleanup()

	rendered := filepath.Join(dir, renderFileName)
	if err := s.render(ctx, draft, rendered); err != nil {
		s.logger.Warn(ctx, "render failed", "account_id", account.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrRenderFailed, err)
	}

	key := ObjectKey(uploadID, account.Username, draft.Title)
	url, err := s.upload(ctx, rendered, key)
	if err != nil {
		metrics.UploadFailuresTotal.Inc()
		s.logger.Warn(ctx, "upload failed", "account_id", account.ID, "key", key, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}

	snippet, err := s.persist(ctx, account, draft, url)
	if err != nil {
		s.discardObject(ctx, key)
		return nil, err
	}

	metrics.SnippetsCreatedTotal.Inc()
	s.logger.Info(ctx, "snippet created", "account_id", account.ID, "snippet_id", snippet.ID, "title", snippet.Title)
	return snippet, nil
}

// Delete removes a snippet owned by account. Unknown and malformed ids
// yield ErrNotFound; snippets of other accounts yield ErrNotOwned.
func (s *SnippetService) Delete(ctx context.Context, account *models.Account, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrNotFound
	}
	repo := s.repomanager.Snippets(s.db)

	snippet, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error searching snippet: %w", err)
	}
	if snippet.AccountID != account.ID {
		return common.ErrNotOwned
	}
	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error deleting snippet: %w", err)
	}

	s.logger.Info(ctx, "snippet deleted", "account_id", account.ID, "snippet_id", id)
	if snippet.URL == "" {
		return nil
	}
	if key, ok := s.uploader.KeyFromURL(snippet.URL); ok {
		s.discardObject(ctx, key)
	} else {
		s.logger.Warn(ctx, "image not in our bucket, left in place", "snippet_id", id, "url", snippet.URL)
	}
	return nil
}

// ListPublic returns public snippets, newest first.
func (s *SnippetService) ListPublic(ctx context.Context, page models.Page) ([]*models.Snippet, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}
	return s.repomanager.Snippets(s.db).ListPublic(ctx, page)
}

// Search returns public snippets whose title, code or description contain
// term, ignoring case.
func (s *SnippetService) Search(ctx context.Context, term string, page models.Page) ([]*models.Snippet, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}
	return s.repomanager.Snippets(s.db).SearchPublic(ctx, term, page)
}

// RemainingToday reports how many snippets account may still create today.
func (s *SnippetService) RemainingToday(ctx context.Context, account *models.Account) (int, error) {
	count, err := s.countToday(ctx, s.db, account.ID)
	if err != nil {
		return 0, err
	}
	return max(account.MaxDailySnippets(s.freeDailyLimit)-count, 0), nil
}

// --- helpers below ---

func (s *SnippetService) checkQuota(ctx context.Context, db dbx.DBTX, account *models.Account) error {
	count, err := s.countToday(ctx, db, account.ID)
	if err != nil {
		return err
	}
	limit := account.MaxDailySnippets(s.freeDailyLimit)
	if count >= limit {
		metrics.QuotaRejectionsTotal.Inc()
		return &common.QuotaExceededError{Limit: limit, Contact: s.adminEmail}
	}
	return nil
}

func (s *SnippetService) countToday(ctx context.Context, db dbx.DBTX, accountID string) (int, error) {
	from, to := timex.StartOfDayUTC(s.now())
	count, err := s.repomanager.Snippets(db).CountCreatedBetween(ctx, accountID, from, to)
	if err != nil {
		return 0, fmt.Errorf("error counting snippets: %w", err)
	}
	return count, nil
}

func (s *SnippetService) checkDuplicateTitle(ctx context.Context, accountID, title string) error {
	exists, err := s.repomanager.Snippets(s.db).ExistsTitle(ctx, accountID, title)
	if err != nil {
		return fmt.Errorf("error checking title: %w", err)
	}
	if exists {
		return common.ErrDuplicateTitle
	}
	return nil
}

func (s *SnippetService) render(ctx context.Context, draft models.SnippetDraft, out string) error {
	if s.renderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.renderTimeout)
		defer cancel()
	}
	start := time.Now()
	err := s.renderer.Render(ctx, render.Request{
		Code:       draft.Code,
		Language:   draft.Language,
		Background: draft.Background,
		Theme:      draft.Theme,
		Watermark:  draft.Watermark,
		OutputPath: out,
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RenderDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return err
}

func (s *SnippetService) upload(ctx context.Context, path, key string) (string, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}
	return s.uploader.Upload(ctx, path, key)
}

// persist locks the owner row, re-checks the quota and inserts, so
// concurrent submissions by one account cannot overshoot the limit.
func (s *SnippetService) persist(ctx context.Context, account *models.Account, draft models.SnippetDraft, url string) (*models.Snippet, error) {
	var created *models.Snippet
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		owner, err := s.repomanager.Accounts(tx).LockForUpdate(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("error locking account: %w", err)
		}
		if err := s.checkQuota(ctx, tx, owner); err != nil {
			return err
		}
		created, err = s.repomanager.Snippets(tx).Create(ctx, &models.Snippet{
			Title:       draft.Title,
			Code:        draft.Code,
			Description: draft.Description,
			Language:    draft.Language,
			Background:  draft.Background,
			Theme:       draft.Theme,
			Watermark:   draft.Watermark,
			AccountID:   account.ID,
			URL:         url,
			Public:      *draft.Public,
		})
		if err != nil {
			if errors.Is(err, common.ErrDuplicateTitle) {
				return err
			}
			return fmt.Errorf("error storing snippet: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SnippetService) discardObject(ctx context.Context, key string) {
	ctx = context.WithoutCancel(ctx)
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}
	if err := s.uploader.Delete(ctx, key); err != nil {
		s.logger.Error(ctx, "failed to delete uploaded object", "key", key, "error", err)
	}
}

func validateDraft(d models.SnippetDraft) error {
	ve := &common.ValidationError{Fields: map[string]string{}}
	if d.Title == "" {
		ve.Fields["title"] = "required"
	} else if utf8.RuneCountInString(d.Title) > MaxTitleLength {
		ve.Fields["title"] = fmt.Sprintf("at most %d characters", MaxTitleLength)
	} else if len(d.Title) > MaxTitleBytes {
		ve.Fields["title"] = fmt.Sprintf("at most %d bytes", MaxTitleBytes)
	}
	if d.Code == "" {
		ve.Fields["code"] = "required"
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

func validatePage(p models.Page) error {
	ve := &common.ValidationError{Fields: map[string]string{}}
	if p.Offset < 0 {
		ve.Fields["offset"] = "must be >= 0"
	}
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		ve.Fields["limit"] = fmt.Sprintf("must be between 1 and %d", MaxPageLimit)
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}
