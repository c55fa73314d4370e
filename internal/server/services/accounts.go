// Package services contains server-side business logic. This file implements
// AccountService: registration, e-mail activation, login and bearer token
// resolution.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bbelderbos/codeimages/internal/common"
	"github.com/bbelderbos/codeimages/internal/logging"
	"github.com/bbelderbos/codeimages/internal/netx"
	"github.com/bbelderbos/codeimages/internal/server/auth"
	"github.com/bbelderbos/codeimages/internal/server/config"
	"github.com/bbelderbos/codeimages/internal/server/mail"
	"github.com/bbelderbos/codeimages/internal/server/metrics"
	"github.com/bbelderbos/codeimages/internal/server/models"
	"github.com/bbelderbos/codeimages/internal/server/repositories/repomanager"
)

// ActivationSubject is the subject line of the activation e-mail.
const ActivationSubject = "Please confirm your codeimag.es account"

// Notifier queues an e-mail without waiting for delivery.
type Notifier interface {
	Notify(ctx context.Context, msg mail.Message)
}

// Registration is the sign-up form.
type Registration struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	PasswordConfirm string `json:"password2" form:"password2"`
}

// Token is the response of a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// AccountService owns the account lifecycle: unverified on sign-up,
// verified after activation, and able to log in only when active and
// verified.
type AccountService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	notifier        Notifier
	logger          logging.Logger
	jwtSecret       []byte
	tokenTTL        time.Duration
	keyTTL          time.Duration
	baseURL         string
	premiumDayLimit int
	now             func() time.Time
}

// NewAccountService constructs an AccountService using repositories and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, notifier Notifier, logger logging.Logger, cfg *config.Config) *AccountService {
	return &AccountService{
		db:              db,
		repomanager:     m,
		notifier:        notifier,
		logger:          logger.With("module", "accounts"),
		jwtSecret:       []byte(cfg.SecretKey),
		tokenTTL:        cfg.AccessTokenValidityDuration,
		keyTTL:          cfg.ActivationKeyValidityDuration,
		baseURL:         cfg.BaseURL,
		premiumDayLimit: cfg.PremiumDayLimit,
		now:             time.Now,
	}
}

// Register creates an unverified account and e-mails its activation link.
// Checks run in order: duplicate username, duplicate email, password
// mismatch.
func (s *AccountService) Register(ctx context.Context, in Registration) (*models.Account, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	repo := s.repomanager.Accounts(s.db)

	if _, err := repo.GetByUsername(ctx, in.Username); err == nil {
		return nil, common.ErrDuplicateUsername
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("error searching username: %w", err)
	}
	if _, err := repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("error searching email: %w", err)
	}
	if in.Password != in.PasswordConfirm {
		return nil, common.ErrPasswordMismatch
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	key, err := auth.GenerateActivationKey(in.Username)
	if err != nil {
		return nil, fmt.Errorf("error generating activation key: %w", err)
	}
	expires := s.now().UTC().Add(s.keyTTL)

	account, err := repo.Create(ctx, &models.Account{
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    hash,
		ActivationKey:   key,
		KeyExpires:      &expires,
		Active:          true,
		PremiumDayLimit: s.premiumDayLimit,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) || errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	metrics.AccountsRegisteredTotal.Inc()
	s.logger.Info(ctx, "account registered", "account_id", account.ID, "username", account.Username)

	if err := s.sendActivation(ctx, account, key); err != nil {
		s.logger.Error(ctx, "activation mail not queued", "account_id", account.ID, "error", err)
	}
	return account, nil
}

// Activate consumes an activation key. Checks run in order: key exists,
// account active, not yet verified, key not expired.
func (s *AccountService) Activate(ctx context.Context, key string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByActivationKey(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrKeyNotFound
		}
		return nil, fmt.Errorf("error searching activation key: %w", err)
	}
	if !account.Active {
		return nil, common.ErrAccountInactive
	}
	if account.Verified {
		return nil, common.ErrAlreadyVerified
	}
	if account.KeyExpired(s.now()) {
		return nil, common.ErrKeyExpired
	}

	updated, err := repo.MarkVerified(ctx, account.ID, key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// consumed concurrently
			return nil, common.ErrKeyNotFound
		}
		return nil, fmt.Errorf("error activating account: %w", err)
	}

	metrics.AccountsActivatedTotal.Inc()
	s.logger.Info(ctx, "account activated", "account_id", updated.ID)
	return updated, nil
}

// Authenticate checks the password. Unknown users and wrong passwords fail
// the same way and take comparable time.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	repo := s.repomanager.Accounts(s.db)

	account, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			auth.VerifyPassword(password, dummyHash())
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if !auth.VerifyPassword(password, account.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	return account, nil
}

// Login authenticates and issues an access token to active, verified
// accounts.
func (s *AccountService) Login(ctx context.Context, username, password string) (*Token, error) {
	account, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, common.ErrInactiveAccount
	}
	if !account.Verified {
		return nil, common.ErrUnverifiedAccount
	}
	return s.Issue(account)
}

// Issue signs a bearer token for account.
func (s *AccountService) Issue(account *models.Account) (*Token, error) {
	access, err := auth.GenerateToken(account.Username, s.jwtSecret, s.tokenTTL, s.now())
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Token{AccessToken: access, TokenType: common.TokenType}, nil
}

// ResolveToken returns the account a bearer token was issued to.
func (s *AccountService) ResolveToken(ctx context.Context, token string) (*models.Account, error) {
	username, err := auth.GetSubjectFromToken(token, s.jwtSecret, s.now())
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	account, err := s.repomanager.Accounts(s.db).GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error(ctx, "token subject lookup failed", "error", err)
		}
		return nil, common.ErrInvalidToken
	}
	return account, nil
}

// CreateUser bootstraps a verified account without sending mail. It is used
// by the createuser command.
func (s *AccountService) CreateUser(ctx context.Context, username, email, password string) (*models.Account, error) {
	in := Registration{Username: strings.TrimSpace(username), Email: strings.TrimSpace(email), Password: password}
	if err := validateRegistration(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	account, err := s.repomanager.Accounts(s.db).Create(ctx, &models.Account{
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    hash,
		Verified:        true,
		Active:          true,
		PremiumDayLimit: s.premiumDayLimit,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) || errors.Is(err, common.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return account, nil
}

// --- helpers below ---

func (s *AccountService) sendActivation(ctx context.Context, account *models.Account, key string) error {
	link, err := netx.JoinURL(s.baseURL, "activate", key)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Hey %s,\n\nThanks for signing up for codeimag.es.\n\n"+
		"Please confirm your account by visiting:\n%s\n\nThis link expires in %s.",
		account.Username, link, s.keyTTL)
	s.notifier.Notify(ctx, mail.Message{
		To:      account.Email,
		Subject: ActivationSubject,
		Body:    mail.HTMLBody(body),
	})
	return nil
}

func validateRegistration(in Registration) error {
	ve := &common.ValidationError{Fields: map[string]string{}}
	if in.Username == "" {
		ve.Fields["username"] = "required"
	} else if len(in.Username) > 100 {
		ve.Fields["username"] = "at most 100 characters"
	}
	if in.Email == "" {
		ve.Fields["email"] = "required"
	} else if !strings.Contains(in.Email, "@") {
		ve.Fields["email"] = "invalid address"
	}
	if in.Password == "" {
		ve.Fields["password"] = "required"
	} else if len(in.Password) > auth.MaxPasswordBytes {
		ve.Fields["password"] = fmt.Sprintf("at most %d bytes", auth.MaxPasswordBytes)
	}
	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is compared against when the user does not exist.
func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = auth.HashPassword("codeimages-dummy-password")
	})
	return dummy
}
