// Package service implements the authentication flows: register, password
// login with an optional SMS second factor, refresh rotation, and logout.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	mfachallenge "care-link-platform/backend/internal/mfa"
	mfadomain "care-link-platform/backend/internal/mfa/domain"
	mfarepo "care-link-platform/backend/internal/mfa/repository"
	"care-link-platform/backend/internal/mfa/sms"
	"care-link-platform/backend/internal/security"
	"care-link-platform/backend/internal/server/interceptors"
	"care-link-platform/backend/internal/session/authority"
	sessiondomain "care-link-platform/backend/internal/session/domain"
	userdomain "care-link-platform/backend/internal/user/domain"
)

// Sentinel errors for the auth service; the transport layer maps them to
// status codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidOTP             = errors.New("invalid or expired verification code")
	ErrInvalidRefreshArtifact = errors.New("invalid refresh artifact")
)

// TokenPair is a completed login or refresh outcome: a short-lived access
// credential plus the opaque refresh artifact for the next rotation.
type TokenPair struct {
	AccessToken     string
	RefreshArtifact string
	ExpiresAt       time.Time
	UserID          string
	Role            userdomain.Role
}

// LoginResult is the outcome of Login. Either Tokens is set (login complete)
// or MFARequired is true and the client must call CompleteLogin with the
// hand-off token, the challenge ID, and the OTP delivered by SMS.
type LoginResult struct {
	Tokens       *TokenPair
	MFARequired  bool
	HandoffToken string
	ChallengeID  string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	SetPhoneVerified(ctx context.Context, id string) error
}

// AuthService orchestrates credential checks, the session authority, and the
// optional SMS second factor.
type AuthService struct {
	users    UserRepo
	mfaRepo  mfarepo.Repository
	smsOut   sms.Sender
	sessions *authority.Authority
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	nowF     func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies. smsOut
// may be nil; then MFA-required users cannot complete login and get
// ErrInvalidCredentials at the second step rather than a half-open session.
func NewAuthService(
	users UserRepo,
	mfaRepo mfarepo.Repository,
	smsOut sms.Sender,
	sessions *authority.Authority,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
) *AuthService {
	return &AuthService{
		users:    users,
		mfaRepo:  mfaRepo,
		smsOut:   smsOut,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		nowF:     func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a user with the given email, password, and role. Phone is
// optional; when set together with mfaRequired, logins take the two-step path.
func (s *AuthService) Register(ctx context.Context, email, password, name, phone string, role userdomain.Role, mfaRequired bool) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}
	if !role.Valid() {
		return "", errors.New("unknown role")
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return "", err
	}
	now := s.nowF()
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hashed,
		Role:         role,
		MFARequired:  mfaRequired,
		Status:       userdomain.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return "", err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}
	return user.ID, nil
}

// Login authenticates with email/password. For users without a second factor
// it opens a session and returns tokens. For MFA-required users it parks the
// verified identity in a one-time hand-off slot, sends an OTP to the user's
// phone, and returns the hand-off token and challenge ID for CompleteLogin.
//
// authority.ErrAlreadyLoggedIn passes through when the concurrency policy is
// block_new and the user already holds a live session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != userdomain.UserStatusActive || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.MFARequired && user.Phone != "" {
		return s.startSecondFactor(ctx, user)
	}

	pair, err := s.openSession(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: pair}, nil
}

// CompleteLogin finishes a two-step login: consumes the hand-off slot,
// verifies the OTP against the challenge, and opens the session. The hand-off
// is single-use, so a failed OTP requires a fresh Login.
func (s *AuthService) CompleteLogin(ctx context.Context, handoffToken, challengeID, otp string) (*TokenPair, error) {
	userID, role, err := s.sessions.ConsumeHandoff(ctx, handoffToken)
	if err != nil {
		return nil, err
	}
	challenge, err := s.mfaRepo.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge == nil || challenge.UserID != userID || challenge.Expired(s.nowF()) {
		return nil, ErrInvalidOTP
	}
	if !mfachallenge.OTPEqual(otp, challenge.CodeHash) {
		return nil, ErrInvalidOTP
	}
	// Challenge is spent regardless of what follows.
	if err := s.mfaRepo.Delete(ctx, challengeID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user != nil && !user.PhoneVerified {
		if err := s.users.SetPhoneVerified(ctx, userID); err != nil {
			return nil, err
		}
	}
	return s.openSession(ctx, userID, role)
}

// Refresh rotates the refresh secret presented in the artifact and returns a
// new token pair. authority.ErrRefreshReused and authority.ErrSessionExpired
// pass through for the transport layer to map.
func (s *AuthService) Refresh(ctx context.Context, artifact string) (*TokenPair, error) {
	sid, secret, err := parseRefreshArtifact(artifact)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Lookup(ctx, sid)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, authority.ErrSessionExpired
	}
	next, err := s.sessions.RotateRefresh(ctx, sid, secret)
	if err != nil {
		return nil, err
	}
	return s.mint(sess.UserID, sess.Role, sid, next)
}

// Logout invalidates the session named by the artifact, or when artifact is
// empty, the session the request gate put in context. Unknown sessions are a
// no-op: logout never fails for being late.
func (s *AuthService) Logout(ctx context.Context, artifact string) error {
	if artifact != "" {
		sid, _, err := parseRefreshArtifact(artifact)
		if err != nil {
			return nil
		}
		return s.sessions.InvalidateBySid(ctx, sid)
	}
	sid, ok := interceptors.GetSessionID(ctx)
	if !ok {
		return nil
	}
	return s.sessions.InvalidateBySid(ctx, sid)
}

func (s *AuthService) startSecondFactor(ctx context.Context, user *userdomain.User) (*LoginResult, error) {
	if s.smsOut == nil {
		return nil, errors.New("auth: sms sender not configured")
	}
	otp, err := mfachallenge.GenerateOTP()
	if err != nil {
		return nil, err
	}
	now := s.nowF()
	challenge := &mfadomain.Challenge{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Phone:     user.Phone,
		CodeHash:  mfachallenge.HashOTP(otp),
		ExpiresAt: now.Add(mfarepo.DefaultChallengeTTL),
		CreatedAt: now,
	}
	if err := s.mfaRepo.Create(ctx, challenge); err != nil {
		return nil, err
	}
	if err := s.smsOut.SendOTP(user.Phone, otp); err != nil {
		return nil, err
	}
	handoff, err := s.sessions.IssueHandoff(ctx, user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		MFARequired:  true,
		HandoffToken: handoff,
		ChallengeID:  challenge.ID,
	}, nil
}

func (s *AuthService) openSession(ctx context.Context, userID string, role userdomain.Role) (*TokenPair, error) {
	sid, secret, err := s.sessions.Issue(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	return s.mint(userID, role, sid, secret)
}

func (s *AuthService) mint(userID string, role userdomain.Role, sid sessiondomain.SessionID, secret sessiondomain.RefreshSecret) (*TokenPair, error) {
	access, expiresAt, err := s.tokens.Mint(userID, role, sid, 0)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:     access,
		RefreshArtifact: encodeRefreshArtifact(sid, secret),
		ExpiresAt:       expiresAt,
		UserID:          userID,
		Role:            role,
	}, nil
}

// encodeRefreshArtifact packs session ID and refresh secret into the opaque
// artifact handed to clients: "<sid>.<secret>".
func encodeRefreshArtifact(sid sessiondomain.SessionID, secret sessiondomain.RefreshSecret) string {
	return fmt.Sprintf("%s.%s", sid, secret)
}

func parseRefreshArtifact(artifact string) (sessiondomain.SessionID, sessiondomain.RefreshSecret, error) {
	dot := strings.IndexByte(artifact, '.')
	if dot < 0 {
		return "", "", ErrInvalidRefreshArtifact
	}
	sid, err := sessiondomain.ParseSessionID(artifact[:dot])
	if err != nil {
		return "", "", ErrInvalidRefreshArtifact
	}
	secret, err := sessiondomain.ParseRefreshSecret(artifact[dot+1:])
	if err != nil {
		return "", "", ErrInvalidRefreshArtifact
	}
	return sid, secret, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 12 {
		return errors.New("password must be at least 12 characters")
	}
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasNumber = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return errors.New("password must contain at least one number")
	}
	if !hasSymbol {
		return errors.New("password must contain at least one symbol")
	}
	return nil
}
