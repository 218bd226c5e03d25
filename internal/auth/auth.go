package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcules/gender-form/internal/answers"
)

// SessionTTL bounds UI login sessions.
const SessionTTL = 24 * time.Hour

var ErrInvalidCredentials = errors.New("auth: invalid username or password")

type Authenticator struct {
	Store *answers.Store

	// Optional.
	Logger *zap.Logger
}

func NewAuthenticator(store *answers.Store) *Authenticator {
	return &Authenticator{Store: store}
}

// GenerateKey erzeugt einen neuen API-Key (Plaintext) und den zugehörigen Record.
func (a *Authenticator) GenerateKey(ctx context.Context, name string) (string, answers.APIKeyRecord, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", answers.APIKeyRecord{}, err
	}
	key := "sk-" + hex.EncodeToString(raw)

	id := hex.EncodeToString(raw[:8])
	prefix := key[:7] // sk-xxxx

	hash := sha256.Sum256([]byte(key))
	hashedKey := hex.EncodeToString(hash[:])

	record := answers.APIKeyRecord{
		ID:        id,
		Name:      name,
		Prefix:    prefix,
		HashedKey: hashedKey,
		CreatedAt: time.Now(),
	}

	if err := a.Store.CreateAPIKey(ctx, record); err != nil {
		return "", answers.APIKeyRecord{}, err
	}

	return key, record, nil
}

// Middleware prüft den Authorization Header.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		key := parts[1]
		hash := sha256.Sum256([]byte(key))
		hashedKey := hex.EncodeToString(hash[:])

		keys, err := a.Store.ListAPIKeys(r.Context())
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		var found *answers.APIKeyRecord
		for _, k := range keys {
			if k.HashedKey == hashedKey {
				found = &k
				break
			}
		}

		if found == nil {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		// Update last used (asynchron)
		go func() {
			_ = a.Store.UpdateAPIKeyLastUsed(context.Background(), found.ID)
		}()

		next.ServeHTTP(w, r)
	})
}

// CreateUser stores a user with a bcrypt password hash.
func (a *Authenticator) CreateUser(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return a.Store.CreateUser(ctx, answers.UserRecord{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	})
}

func (a *Authenticator) AuthenticateUser(ctx context.Context, username, password string) (answers.UserRecord, error) {
	u, exists, err := a.Store.GetUser(ctx, username)
	if err != nil {
		return answers.UserRecord{}, err
	}
	if !exists {
		return answers.UserRecord{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return answers.UserRecord{}, ErrInvalidCredentials
	}
	return u, nil
}

func (a *Authenticator) ChangePassword(ctx context.Context, username, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return a.Store.UpdateUserPassword(ctx, username, string(hash))
}

// CreateSession issues a random session token for the user. The token is the
// only thing stored in the browser cookie.
func (a *Authenticator) CreateSession(ctx context.Context, username string) (answers.SessionRecord, error) {
	sess := answers.SessionRecord{
		Token:     uuid.NewString(),
		Username:  username,
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	if err := a.Store.CreateSession(ctx, sess); err != nil {
		return answers.SessionRecord{}, err
	}
	return sess, nil
}

// LookupSession resolves a cookie token to a user, rejecting expired sessions.
func (a *Authenticator) LookupSession(ctx context.Context, token string) (answers.UserRecord, bool, error) {
	sess, exists, err := a.Store.GetSession(ctx, token)
	if err != nil || !exists {
		return answers.UserRecord{}, false, err
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = a.Store.DeleteSession(ctx, token)
		return answers.UserRecord{}, false, nil
	}
	return a.Store.GetUser(ctx, sess.Username)
}

func (a *Authenticator) DeleteSession(ctx context.Context, token string) error {
	return a.Store.DeleteSession(ctx, token)
}

// SweepSessions removes sessions whose expiry has passed. LookupSession
// already rejects them; sweeping keeps the sessions table from growing
// unbounded when logins are abandoned.
func (a *Authenticator) SweepSessions(ctx context.Context) (int64, error) {
	return a.Store.DeleteExpiredSessions(ctx, time.Now())
}

// RunSweeper sweeps expired sessions until ctx is done.
func (a *Authenticator) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.SweepSessions(ctx)
			if err != nil {
				if a.Logger != nil {
					a.Logger.Error("session sweep failed", zap.Error(err))
				}
				continue
			}
			if n > 0 && a.Logger != nil {
				a.Logger.Debug("expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}

// EnsureAdmin creates the admin user on first start if it does not exist.
func (a *Authenticator) EnsureAdmin(ctx context.Context, password string) error {
	_, exists, err := a.Store.GetUser(ctx, "admin")
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return a.CreateUser(ctx, "admin", password)
}
