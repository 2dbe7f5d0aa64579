package authority

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"care-link-platform/backend/internal/session/domain"
	"care-link-platform/backend/internal/session/store"
	userdomain "care-link-platform/backend/internal/user/domain"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordedEvent struct {
	userID string
	action string
}

type memAudit struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (a *memAudit) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, recordedEvent{userID: userID, action: action})
}

func (a *memAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.events))
	for i, e := range a.events {
		out[i] = e.action
	}
	return out
}

func newTestAuthority(t *testing.T, policy Policy) (*Authority, *store.MemoryStore, *testClock, *memAudit) {
	t.Helper()
	clock := newTestClock()
	st := store.NewMemoryStore()
	st.SetClock(clock.Now)
	audit := &memAudit{}
	a := New(st, audit, Config{
		IdleTimeout: 30 * time.Minute,
		Policy:      policy,
		HandoffTTL:  5 * time.Minute,
		Now:         clock.Now,
	})
	return a, st, clock, audit
}

func TestIssueAndIsActive(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestAuthority(t, PolicyKickOld)

	sid, secret, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if sid == "" || secret == "" {
		t.Fatal("empty session id or refresh secret")
	}

	active, err := a.IsActive(ctx, sid, "42")
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Fatal("fresh session should be active")
	}

	// Wrong user fails even though the session record exists.
	active, err = a.IsActive(ctx, sid, "43")
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Fatal("session must not be active for a different user")
	}
}

func TestSingleActiveSessionUnderKickOld(t *testing.T) {
	ctx := context.Background()
	a, _, _, audit := newTestAuthority(t, PolicyKickOld)

	var sids []domain.SessionID
	for i := 0; i < 4; i++ {
		sid, _, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
		if err != nil {
			t.Fatalf("Issue #%d: %v", i, err)
		}
		sids = append(sids, sid)
	}

	for i, sid := range sids {
		active, err := a.IsActive(ctx, sid, "42")
		if err != nil {
			t.Fatal(err)
		}
		want := i == len(sids)-1
		if active != want {
			t.Errorf("session %d: active=%v want %v", i, active, want)
		}
	}

	kicks := 0
	for _, action := range audit.actions() {
		if action == "session.kick_old" {
			kicks++
		}
	}
	if kicks != 3 {
		t.Errorf("kick_old events = %d, want 3", kicks)
	}
}

func TestIssueBlockNew(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestAuthority(t, PolicyBlockNew)

	sid1, _, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatalf("first Issue: %v", err)
	}

	_, _, err = a.Issue(ctx, "42", userdomain.RoleGuardian)
	if !errors.Is(err, ErrAlreadyLoggedIn) {
		t.Fatalf("second Issue: want ErrAlreadyLoggedIn, got %v", err)
	}

	active, err := a.IsActive(ctx, sid1, "42")
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Fatal("blocked login must leave the existing session active")
	}
}

func TestIssueBlockNewAfterExpiry(t *testing.T) {
	ctx := context.Background()
	a, _, clock, _ := newTestAuthority(t, PolicyBlockNew)

	if _, _, err := a.Issue(ctx, "42", userdomain.RoleElderly); err != nil {
		t.Fatal(err)
	}

	// Once the old session ages out, a new login under block_new succeeds.
	clock.Advance(31 * time.Minute)
	if _, _, err := a.Issue(ctx, "42", userdomain.RoleElderly); err != nil {
		t.Fatalf("Issue after expiry: %v", err)
	}
}

func TestIssueDistinctUsersIndependent(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestAuthority(t, PolicyBlockNew)

	sidA, _, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}
	sidB, _, err := a.Issue(ctx, "43", userdomain.RoleCounselor)
	if err != nil {
		t.Fatalf("different user must not be blocked: %v", err)
	}
	for _, tc := range []struct {
		sid    domain.SessionID
		userID string
	}{{sidA, "42"}, {sidB, "43"}} {
		active, err := a.IsActive(ctx, tc.sid, tc.userID)
		if err != nil {
			t.Fatal(err)
		}
		if !active {
			t.Errorf("session for user %s should be active", tc.userID)
		}
	}
}

func TestTouchRenewsIdleTTL(t *testing.T) {
	ctx := context.Background()
	a, _, clock, _ := newTestAuthority(t, PolicyKickOld)

	sid, _, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}

	// Keep touching just inside the idle window; the session must stay live
	// far past the original TTL.
	for i := 0; i < 4; i++ {
		clock.Advance(29 * time.Minute)
		if err := a.Touch(ctx, sid); err != nil {
			t.Fatalf("Touch #%d: %v", i, err)
		}
	}
	active, err := a.IsActive(ctx, sid, "42")
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Fatal("touched session should outlive the original TTL")
	}

	// Stop touching; idle expiry ends the session with no sweeper.
	clock.Advance(31 * time.Minute)
	active, err = a.IsActive(ctx, sid, "42")
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Fatal("idle session should have expired")
	}
}

func TestTouchMissingSessionIsNoop(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestAuthority(t, PolicyKickOld)
	if err := a.Touch(ctx, "00000000000000000000000000000000"); err != nil {
		t.Fatalf("Touch on missing session must be a no-op, got %v", err)
	}
}

func TestRotateRefresh(t *testing.T) {
	ctx := context.Background()
	a, _, _, audit := newTestAuthority(t, PolicyKickOld)

	sid, r1, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}

	r2, err := a.RotateRefresh(ctx, sid, r1)
	if err != nil {
		t.Fatalf("first rotation: %v", err)
	}
	if r2 == "" || r2 == r1 {
		t.Fatal("rotation must return a fresh secret")
	}

	// Replaying the original secret is a theft signal: the session burns.
	_, err = a.RotateRefresh(ctx, sid, r1)
	if !errors.Is(err, ErrRefreshReused) {
		t.Fatalf("replay: want ErrRefreshReused, got %v", err)
	}
	active, err := a.IsActive(ctx, sid, "42")
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Fatal("session must be dead after reuse detection")
	}

	found := false
	for _, action := range audit.actions() {
		if action == "session.refresh_reused" {
			found = true
		}
	}
	if !found {
		t.Error("refresh reuse must be audited distinctly")
	}

	// The session is gone; even the current secret can't rotate it now.
	_, err = a.RotateRefresh(ctx, sid, r2)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("rotation after burn: want ErrSessionExpired, got %v", err)
	}
}

func TestRotateRefreshExpiredSession(t *testing.T) {
	ctx := context.Background()
	a, _, clock, _ := newTestAuthority(t, PolicyKickOld)

	sid, r1, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(31 * time.Minute)
	_, err = a.RotateRefresh(ctx, sid, r1)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("want ErrSessionExpired, got %v", err)
	}
}

func TestRotateRefreshTouches(t *testing.T) {
	ctx := context.Background()
	a, _, clock, _ := newTestAuthority(t, PolicyKickOld)

	sid, r1, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(29 * time.Minute)
	if _, err := a.RotateRefresh(ctx, sid, r1); err != nil {
		t.Fatal(err)
	}
	// Rotation extended idle life; 29 more minutes stays inside the window.
	clock.Advance(29 * time.Minute)
	active, err := a.IsActive(ctx, sid, "42")
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Fatal("rotation should renew the idle TTL")
	}
}

func TestInvalidateBySidIdempotent(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestAuthority(t, PolicyKickOld)

	sid, _, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.InvalidateBySid(ctx, sid); err != nil {
		t.Fatalf("first invalidate: %v", err)
	}
	if err := a.InvalidateBySid(ctx, sid); err != nil {
		t.Fatalf("second invalidate must be a no-op, got %v", err)
	}
	active, err := a.IsActive(ctx, sid, "42")
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Fatal("invalidated session must not be active")
	}
}

func TestInvalidateStaleSessionKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	a, st, _, _ := newTestAuthority(t, PolicyKickOld)

	sid1, _, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}
	// Force a stale leftover record for sid1 next to the new session.
	sess1, err := st.GetSession(ctx, sid1)
	if err != nil {
		t.Fatal(err)
	}
	sid2, _, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}
	if sess1 != nil {
		if err := st.PutSession(ctx, sess1, 30*time.Minute); err != nil {
			t.Fatal(err)
		}
	}

	// A late logout against the superseded session must not sever the
	// pointer to the current one.
	if err := a.InvalidateBySid(ctx, sid1); err != nil {
		t.Fatal(err)
	}
	active, err := a.IsActive(ctx, sid2, "42")
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Fatal("current session must survive invalidation of a stale one")
	}
}

func TestScenarioFromEndToEnd(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestAuthority(t, PolicyKickOld)

	s1, _, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := a.IsActive(ctx, s1, "42"); !ok {
		t.Fatal("S1 should be active")
	}

	s2, r2, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := a.IsActive(ctx, s1, "42"); ok {
		t.Fatal("S1 should be retired after second login")
	}
	if ok, _ := a.IsActive(ctx, s2, "42"); !ok {
		t.Fatal("S2 should be active")
	}

	r3, err := a.RotateRefresh(ctx, s2, r2)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if r3 == r2 {
		t.Fatal("rotation must change the secret")
	}
	if _, err := a.RotateRefresh(ctx, s2, r2); !errors.Is(err, ErrRefreshReused) {
		t.Fatalf("replay: want ErrRefreshReused, got %v", err)
	}
	if ok, _ := a.IsActive(ctx, s2, "42"); ok {
		t.Fatal("S2 should be dead after reuse detection")
	}
}

func TestPeek(t *testing.T) {
	ctx := context.Background()
	a, _, clock, _ := newTestAuthority(t, PolicyKickOld)

	if _, ok, err := a.Peek(ctx, "42"); err != nil || ok {
		t.Fatalf("Peek with no session: ok=%v err=%v", ok, err)
	}

	sid, _, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := a.Peek(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != sid {
		t.Fatalf("Peek: got %q ok=%v, want %q", got, ok, sid)
	}

	// Peek must not renew anything.
	clock.Advance(31 * time.Minute)
	if _, ok, err := a.Peek(ctx, "42"); err != nil || ok {
		t.Fatalf("Peek after expiry: ok=%v err=%v", ok, err)
	}
}

func TestEvict(t *testing.T) {
	ctx := context.Background()
	a, _, _, audit := newTestAuthority(t, PolicyKickOld)

	if err := a.Evict(ctx, "42"); err != nil {
		t.Fatalf("Evict with no session must be a no-op, got %v", err)
	}

	sid, _, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Evict(ctx, "42"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := a.IsActive(ctx, sid, "42"); ok {
		t.Fatal("evicted session must not be active")
	}

	found := false
	for _, action := range audit.actions() {
		if action == "session.evicted" {
			found = true
		}
	}
	if !found {
		t.Error("eviction should be audited")
	}
}

func TestConcurrentIssueSingleWinner(t *testing.T) {
	ctx := context.Background()
	a, _, _, _ := newTestAuthority(t, PolicyKickOld)

	const n = 16
	sids := make([]domain.SessionID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid, _, err := a.Issue(ctx, "42", userdomain.RoleGuardian)
			if err != nil {
				t.Errorf("Issue: %v", err)
				return
			}
			sids[i] = sid
		}(i)
	}
	wg.Wait()

	active := 0
	for _, sid := range sids {
		if sid == "" {
			continue
		}
		ok, err := a.IsActive(ctx, sid, "42")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			active++
		}
	}
	if active > 1 {
		t.Fatalf("at most one session may be active, got %d", active)
	}
}
