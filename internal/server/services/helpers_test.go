package services

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bbelderbos/codeimages/internal/logging"
	"github.com/bbelderbos/codeimages/internal/server/config"
	"github.com/bbelderbos/codeimages/internal/server/mail"
	"github.com/bbelderbos/codeimages/internal/server/models"
	"github.com/bbelderbos/codeimages/internal/server/render"
	"github.com/bbelderbos/codeimages/internal/server/repositories/repomanager"
)

// --- helpers ---

// clock is a settable time source shared by services and memory repos.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	cfg.TempRoot = t.TempDir()
	cfg.RenderTimeout = time.Second
	cfg.UploadTimeout = time.Second
	return cfg
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []mail.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg mail.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) Messages() []mail.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]mail.Message(nil), n.msgs...)
}

type fakeRenderer struct {
	mu       sync.Mutex
	requests []render.Request
	err      error
}

func (r *fakeRenderer) Render(_ context.Context, req render.Request) error {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	return os.WriteFile(req.OutputPath, []byte("PNG:"+req.Code), 0o600)
}

func (r *fakeRenderer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

type fakeUploader struct {
	mu        sync.Mutex
	uploaded  map[string][]byte
	keys      []string
	deleted   []string
	uploadErr error
	// beforeStore runs inside Upload after the file is read.
	beforeStore func(key string)
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: map[string][]byte{}}
}

func (u *fakeUploader) Upload(_ context.Context, localPath, key string) (string, error) {
	if u.uploadErr != nil {
		return "", u.uploadErr
	}
	b, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	if hook := u.beforeStore; hook != nil {
		u.beforeStore = nil
		hook(key)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploaded[key] = b
	u.keys = append(u.keys, key)
	return "https://cdn.test/" + key, nil
}

func (u *fakeUploader) KeyFromURL(raw string) (string, bool) {
	key, ok := strings.CutPrefix(raw, "https://cdn.test/")
	return key, ok && key != ""
}

// Keys lists uploaded keys in upload order.
func (u *fakeUploader) Keys() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.keys...)
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, key)
	delete(u.uploaded, key)
	return nil
}

func (u *fakeUploader) Deleted() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.deleted...)
}

func newAccountServiceForTest(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager, c *clock) (*AccountService, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	s := NewAccountService(db, rm, n, logging.Nop(), testConfig(t))
	s.now = c.Now
	return s, n
}

type snippetFixture struct {
	cfg      *config.Config
	db       *sql.DB
	mock     sqlmock.Sqlmock
	clock    *clock
	rm       *repomanager.InMemoryRepositoryManager
	renderer *fakeRenderer
	uploader *fakeUploader
	svc      *SnippetService
}

func newSnippetFixture(t *testing.T) *snippetFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	c := newClock()
	rm := repomanager.NewInMemoryRepositoryManager(c.Now)
	f := &snippetFixture{
		cfg:      testConfig(t),
		db:       db,
		mock:     mock,
		clock:    c,
		rm:       rm,
		renderer: &fakeRenderer{},
		uploader: newFakeUploader(),
	}
	f.svc = f.newService(rm)
	return f
}

func (f *snippetFixture) newService(rm repomanager.RepositoryManager) *SnippetService {
	s := NewSnippetService(f.db, rm, f.renderer, f.uploader, logging.Nop(), f.cfg)
	s.now = f.clock.Now
	return s
}

func (f *snippetFixture) account(t *testing.T, username string) *models.Account {
	t.Helper()
	a, err := f.rm.AccountRepo.Create(context.Background(), &models.Account{
		Username:        username,
		Email:           username + "@example.com",
		Verified:        true,
		Active:          true,
		PremiumDayLimit: 10,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

// expectTx queues a transaction that commits.
func (f *snippetFixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

// regularFiles lists files left under root.
func regularFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("walk: %v", err)
	}
	return files
}

func draft(title, code string) models.SnippetDraft {
	return models.SnippetDraft{Title: title, Code: code}
}
