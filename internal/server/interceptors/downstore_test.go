package interceptors

import (
	"context"
	"errors"
	"time"

	sessiondomain "care-link-platform/backend/internal/session/domain"
	"care-link-platform/backend/internal/session/store"
)

var errDown = errors.New("store unavailable")

// downStore fails every operation, simulating a store outage.
type downStore struct{}

func (downStore) GetSession(context.Context, sessiondomain.SessionID) (*sessiondomain.Session, error) {
	return nil, errDown
}

func (downStore) PutSession(context.Context, *sessiondomain.Session, time.Duration) error {
	return errDown
}

func (downStore) DeleteSession(context.Context, sessiondomain.SessionID) error {
	return errDown
}

func (downStore) SetRefreshSecretHash(context.Context, sessiondomain.SessionID, string) (bool, error) {
	return false, errDown
}

func (downStore) TouchSession(context.Context, sessiondomain.SessionID, time.Time, time.Duration) (bool, error) {
	return false, errDown
}

func (downStore) GetPointer(context.Context, string) (sessiondomain.SessionID, error) {
	return "", errDown
}

func (downStore) SetPointer(context.Context, string, sessiondomain.SessionID, time.Duration) error {
	return errDown
}

func (downStore) DeletePointer(context.Context, string) error {
	return errDown
}

func (downStore) TouchPointer(context.Context, string, time.Duration) (bool, error) {
	return false, errDown
}

func (downStore) PutHandoff(context.Context, string, *store.Handoff, time.Duration) error {
	return errDown
}

func (downStore) TakeHandoff(context.Context, string) (*store.Handoff, error) {
	return nil, errDown
}
