// Package authority owns the session lifecycle: issuance under the
// single-active-session policy, idle-TTL renewal, refresh-secret rotation with
// reuse detection, and revocation. All state lives in the shared store; the
// user→session pointer is the serialization point across process instances,
// not an in-process lock.
package authority

import (
	"context"
	"errors"
	"time"

	"care-link-platform/backend/internal/security"
	"care-link-platform/backend/internal/session/domain"
	"care-link-platform/backend/internal/session/store"
	userdomain "care-link-platform/backend/internal/user/domain"
)

// Sentinel errors; the transport layer maps them to status codes.
var (
	// ErrAlreadyLoggedIn is returned by Issue under the block-new policy when
	// the user already has a live session.
	ErrAlreadyLoggedIn = errors.New("user already has an active session")
	// ErrSessionExpired is returned when an operation targets a session that
	// no longer exists in the store.
	ErrSessionExpired = errors.New("session expired or not found")
	// ErrRefreshReused is returned when a presented refresh secret does not
	// match the stored hash. The session is destroyed before this is returned.
	ErrRefreshReused = errors.New("refresh secret reuse detected; session revoked")
	// ErrHandoffInvalid is returned when a login hand-off token is unknown,
	// expired, or already consumed.
	ErrHandoffInvalid = errors.New("invalid or expired login hand-off token")
)

// Policy governs what Issue does when the user already has a live session.
type Policy string

const (
	// PolicyKickOld invalidates the existing session and proceeds. Default.
	PolicyKickOld Policy = "kick_old"
	// PolicyBlockNew fails the new login with ErrAlreadyLoggedIn.
	PolicyBlockNew Policy = "block_new"
)

// ParsePolicy parses a config string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyKickOld, PolicyBlockNew:
		return Policy(s), nil
	}
	return "", errors.New("concurrency policy must be kick_old or block_new")
}

// AuditLogger records security-relevant session transitions. Best-effort;
// implementations must not fail the caller. Satisfied by audit.Logger.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, action, resource, metadata string)
}

// Config holds the authority's tunables.
type Config struct {
	// IdleTimeout is the session idle TTL, re-applied on every touch.
	IdleTimeout time.Duration
	// Policy is the single-active-session concurrency policy.
	Policy Policy
	// HandoffTTL bounds the two-step-login hand-off window.
	HandoffTTL time.Duration
	// Now overrides the clock. Tests only.
	Now func() time.Time
}

// Authority is the session and credential lifecycle authority.
type Authority struct {
	store store.Store
	audit AuditLogger // may be nil
	cfg   Config
}

// New returns an Authority over the given store. audit may be nil.
func New(st store.Store, audit AuditLogger, cfg Config) *Authority {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyKickOld
	}
	if cfg.HandoffTTL <= 0 {
		cfg.HandoffTTL = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Authority{store: st, audit: audit, cfg: cfg}
}

// IdleTimeout returns the configured session idle TTL. The login collaborator
// uses it as the client artifact's Max-Age.
func (a *Authority) IdleTimeout() time.Duration { return a.cfg.IdleTimeout }

// Issue creates a new session for an already-authenticated identity and makes
// it the user's single current session. The caller delivers the returned
// refresh secret to the client; only its hash is stored.
//
// Two concurrent Issue calls for the same user are not serialized: under
// kick_old, whichever delete-then-write sequence completes last wins. Losing
// that race supersedes a login with another login, which is a legitimate
// outcome; the pointer's per-key atomicity is all the coordination needed.
func (a *Authority) Issue(ctx context.Context, userID string, role userdomain.Role) (domain.SessionID, domain.RefreshSecret, error) {
	current, err := a.store.GetPointer(ctx, userID)
	if err != nil {
		return "", "", err
	}
	if current != "" {
		live, err := a.store.GetSession(ctx, current)
		if err != nil {
			return "", "", err
		}
		if live != nil {
			if a.cfg.Policy == PolicyBlockNew {
				return "", "", ErrAlreadyLoggedIn
			}
			// kick_old: the eviction must complete before the new session is
			// written, or a late delete could clobber the new records.
			if err := a.InvalidateBySid(ctx, current); err != nil {
				return "", "", err
			}
			a.logEvent(ctx, userID, "session.kick_old", current.String())
		}
	}

	sid, err := domain.NewSessionID()
	if err != nil {
		return "", "", err
	}
	secret, err := domain.NewRefreshSecret()
	if err != nil {
		return "", "", err
	}
	now := a.cfg.Now()
	sess := &domain.Session{
		ID:                sid,
		UserID:            userID,
		Role:              role,
		RefreshSecretHash: security.HashRefreshSecret(secret),
		LastSeenAt:        now,
		CreatedAt:         now,
	}
	if err := a.store.PutSession(ctx, sess, a.cfg.IdleTimeout); err != nil {
		return "", "", err
	}
	if err := a.store.SetPointer(ctx, userID, sid, a.cfg.IdleTimeout); err != nil {
		return "", "", err
	}
	return sid, secret, nil
}

// Touch updates the session's last-seen timestamp and re-applies the idle TTL
// to the session and, when the pointer still names this session, to the
// pointer. A missing session is a no-op, not an error: expiry already ended
// the session and the caller's credential is simply no longer backed.
func (a *Authority) Touch(ctx context.Context, sid domain.SessionID) error {
	sess, err := a.store.GetSession(ctx, sid)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	if _, err := a.store.TouchSession(ctx, sid, a.cfg.Now(), a.cfg.IdleTimeout); err != nil {
		return err
	}
	current, err := a.store.GetPointer(ctx, sess.UserID)
	if err != nil {
		return err
	}
	if current == sid {
		if _, err := a.store.TouchPointer(ctx, sess.UserID, a.cfg.IdleTimeout); err != nil {
			return err
		}
	}
	return nil
}

// IsActive reports whether sid is the user's live, current session: the
// session record must exist, belong to userID, and be the exact session the
// user's pointer names. The pointer check is what retires a not-yet-expired
// session whose owner has since logged in elsewhere.
func (a *Authority) IsActive(ctx context.Context, sid domain.SessionID, userID string) (bool, error) {
	sess, err := a.store.GetSession(ctx, sid)
	if err != nil {
		return false, err
	}
	if sess == nil || sess.UserID != userID {
		return false, nil
	}
	current, err := a.store.GetPointer(ctx, userID)
	if err != nil {
		return false, err
	}
	return current == sid, nil
}

// RotateRefresh performs single-use refresh-secret rotation. A mismatch is
// treated as replay of a stolen, already-rotated secret: the session is
// destroyed, which also logs out the legitimate holder, and
// ErrRefreshReused is returned. On match the stored hash is overwritten,
// permanently retiring the presented secret, and the new secret is returned.
//
// The compare and the overwrite are two store round trips; a double
// presentation landing exactly between them is an accepted narrow race.
func (a *Authority) RotateRefresh(ctx context.Context, sid domain.SessionID, presented domain.RefreshSecret) (domain.RefreshSecret, error) {
	sess, err := a.store.GetSession(ctx, sid)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrSessionExpired
	}
	if !security.RefreshSecretEqual(presented, sess.RefreshSecretHash) {
		if err := a.InvalidateBySid(ctx, sid); err != nil {
			return "", err
		}
		a.logEvent(ctx, sess.UserID, "session.refresh_reused", sid.String())
		return "", ErrRefreshReused
	}
	next, err := domain.NewRefreshSecret()
	if err != nil {
		return "", err
	}
	ok, err := a.store.SetRefreshSecretHash(ctx, sid, security.HashRefreshSecret(next))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrSessionExpired
	}
	if err := a.Touch(ctx, sid); err != nil {
		return "", err
	}
	return next, nil
}

// InvalidateBySid destroys the session and, when the user's pointer names this
// session, the pointer with it. Idempotent: invalidating an already-gone
// session is a no-op.
func (a *Authority) InvalidateBySid(ctx context.Context, sid domain.SessionID) error {
	sess, err := a.store.GetSession(ctx, sid)
	if err != nil {
		return err
	}
	if sess != nil {
		current, err := a.store.GetPointer(ctx, sess.UserID)
		if err != nil {
			return err
		}
		if current == sid {
			if err := a.store.DeletePointer(ctx, sess.UserID); err != nil {
				return err
			}
		}
	}
	return a.store.DeleteSession(ctx, sid)
}

// Lookup returns the session record for sid without mutating it, or nil if
// the session is absent or expired.
func (a *Authority) Lookup(ctx context.Context, sid domain.SessionID) (*domain.Session, error) {
	return a.store.GetSession(ctx, sid)
}

// Peek returns the user's current live session ID without mutating any state.
// Not-found is reported via the bool, never as an error.
func (a *Authority) Peek(ctx context.Context, userID string) (domain.SessionID, bool, error) {
	current, err := a.store.GetPointer(ctx, userID)
	if err != nil {
		return "", false, err
	}
	if current == "" {
		return "", false, nil
	}
	sess, err := a.store.GetSession(ctx, current)
	if err != nil {
		return "", false, err
	}
	if sess == nil {
		return "", false, nil
	}
	return current, true, nil
}

// Evict forcibly invalidates the user's current session, if any. Used by
// administrative tooling.
func (a *Authority) Evict(ctx context.Context, userID string) error {
	current, err := a.store.GetPointer(ctx, userID)
	if err != nil {
		return err
	}
	if current == "" {
		return nil
	}
	if err := a.InvalidateBySid(ctx, current); err != nil {
		return err
	}
	a.logEvent(ctx, userID, "session.evicted", current.String())
	return nil
}

func (a *Authority) logEvent(ctx context.Context, userID, action, sid string) {
	if a.audit == nil {
		return
	}
	a.audit.LogEvent(ctx, userID, action, "session", sid)
}
