package authority

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"care-link-platform/backend/internal/session/store"
	userdomain "care-link-platform/backend/internal/user/domain"
)

const handoffTokenBytes = 24

// IssueHandoff mints a short-lived, one-time login hand-off token after
// primary-factor success, to be redeemed when the second factor completes.
// Distinct from the refresh secret: it precedes any session.
func (a *Authority) IssueHandoff(ctx context.Context, userID string, role userdomain.Role) (string, error) {
	b := make([]byte, handoffTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := &store.Handoff{UserID: userID, Role: role}
	if err := a.store.PutHandoff(ctx, token, h, a.cfg.HandoffTTL); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeHandoff redeems a hand-off token, at most once. A second
// presentation, an unknown token, or an expired one all fail with
// ErrHandoffInvalid.
func (a *Authority) ConsumeHandoff(ctx context.Context, token string) (userID string, role userdomain.Role, err error) {
	if token == "" {
		return "", "", ErrHandoffInvalid
	}
	h, err := a.store.TakeHandoff(ctx, token)
	if err != nil {
		return "", "", err
	}
	if h == nil {
		a.logEvent(ctx, "", "session.handoff_rejected", "")
		return "", "", ErrHandoffInvalid
	}
	return h.UserID, h.Role, nil
}
