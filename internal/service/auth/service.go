package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"dassyor/config"
	"dassyor/internal/mailer"
	"dassyor/internal/model"
	"dassyor/internal/util"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrTokenNotFound      = errors.New("token not found or expired")
	ErrGoogleTokenInvalid = errors.New("google token rejected")
	ErrUserNotFound       = errors.New("user not found")
)

const confirmationTTL = 48 * time.Hour
const passwordResetTTL = 2 * time.Hour

type UserRepo interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByConfirmationToken(ctx context.Context, token string) (*model.User, error)
	FindByPasswordResetToken(ctx context.Context, token string) (*model.User, error)
	ConfirmEmail(ctx context.Context, id uuid.UUID) error
	SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	UpdateProfile(ctx context.Context, u *model.User) error
}

// TokenPair is what a successful login hands back.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

type Service struct {
	users        UserRepo
	tokens       *util.TokenManager
	mail         mailer.Sender
	google       config.GoogleAuthConfig
	appName      string
	clientAppURL string
	httpClient   *http.Client
	logger       *zap.Logger
}

func NewService(
	users UserRepo,
	tokens *util.TokenManager,
	mail mailer.Sender,
	google config.GoogleAuthConfig,
	appName, clientAppURL string,
	logger *zap.Logger,
) *Service {
	return &Service{
		users:        users,
		tokens:       tokens,
		mail:         mail,
		google:       google,
		appName:      appName,
		clientAppURL: clientAppURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
	}
}

// Register creates an unconfirmed account and emails the confirmation
// link. When the email cannot be sent the just-created user is deleted
// again, so a failed registration leaves no trace.
func (s *Service) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	expiry := time.Now().UTC().Add(confirmationTTL)

	u := &model.User{
		ID:                           uuid.New(),
		Username:                     username,
		Email:                        email,
		Role:                         model.RoleClient,
		PasswordHash:                 hash,
		EmailConfirmationToken:       &token,
		EmailConfirmationTokenExpiry: &expiry,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	confirmURL := fmt.Sprintf("%s/confirm-email?token=%s", s.clientAppURL, token)
	body := mailer.ConfirmationEmail(s.appName, u.DisplayName(), confirmURL)
	if err := s.mail.Send(email, fmt.Sprintf("Confirm your %s account", s.appName), body); err != nil {
		s.logger.Error("confirmation email failed, rolling back registration",
			zap.String("email", email), zap.Error(err))
		if delErr := s.users.DeleteUser(ctx, u.ID); delErr != nil {
			s.logger.Error("registration compensation failed", zap.Error(delErr))
		}
		return nil, fmt.Errorf("send confirmation email: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return u, nil
}

// ConfirmEmail settles a confirmation token.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	u, err := s.users.FindByConfirmationToken(ctx, token)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTokenNotFound
	}
	if err != nil {
		return err
	}
	if u.EmailConfirmationTokenExpiry != nil && time.Now().UTC().After(*u.EmailConfirmationTokenExpiry) {
		return ErrTokenNotFound
	}
	return s.users.ConfirmEmail(ctx, u.ID)
}

// Login authenticates a confirmed account and issues a token pair. All
// failure causes collapse into ErrInvalidCredentials except the
// unconfirmed-email case, which the caller may surface distinctly.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *model.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !util.CheckPassword(password, u.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	if !u.IsEmailConfirmed {
		return nil, nil, ErrEmailNotConfirmed
	}

	pair, err := s.issueTokens(u)
	if err != nil {
		return nil, nil, err
	}
	return pair, u, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The role is
// re-read from the store, not trusted from the old token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil || claims.TokenType != util.TokenTypeRefresh {
		return nil, util.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, util.ErrInvalidToken
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, util.ErrInvalidToken
	}

	return s.issueTokens(u)
}

type googleTokenInfo struct {
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
}

// GoogleLogin verifies a Google-issued ID token against the configured
// client id and logs the user in, auto-registering a confirmed account on
// first sight.
func (s *Service) GoogleLogin(ctx context.Context, idToken string) (*TokenPair, *model.User, error) {
	info, err := s.verifyGoogleToken(ctx, idToken)
	if err != nil {
		return nil, nil, err
	}

	u, err := s.users.FindByEmail(ctx, info.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		u, err = s.registerGoogleUser(ctx, info)
	}
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(u)
	if err != nil {
		return nil, nil, err
	}
	return pair, u, nil
}

func (s *Service) verifyGoogleToken(ctx context.Context, idToken string) (*googleTokenInfo, error) {
	endpoint := fmt.Sprintf("%s?id_token=%s", s.google.TokenInfoURL, url.QueryEscape(idToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google tokeninfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrGoogleTokenInvalid
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode tokeninfo: %w", err)
	}
	if info.Aud != s.google.ClientID || info.EmailVerified != "true" || info.Email == "" {
		return nil, ErrGoogleTokenInvalid
	}
	return &info, nil
}

func (s *Service) registerGoogleUser(ctx context.Context, info *googleTokenInfo) (*model.User, error) {
	username := info.Name
	if username == "" {
		username = info.Email
	}

	u := &model.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        info.Email,
		Role:         model.RoleClient,
		PasswordHash: "!",
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create google user: %w", err)
	}
	if err := s.users.ConfirmEmail(ctx, u.ID); err != nil {
		return nil, err
	}
	u.IsEmailConfirmed = true

	s.logger.Info("google user auto-registered", zap.String("user_id", u.ID.String()))
	return u, nil
}

// ForgotPassword issues a reset token and emails the link. Unknown emails
// are silently accepted so the endpoint cannot be used for enumeration.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := generateToken()
	if err != nil {
		return err
	}
	if err := s.users.SetPasswordResetToken(ctx, u.ID, token, time.Now().UTC().Add(passwordResetTTL)); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.clientAppURL, token)
	body := mailer.PasswordResetEmail(s.appName, u.DisplayName(), resetURL)
	if err := s.mail.Send(email, fmt.Sprintf("Reset your %s password", s.appName), body); err != nil {
		s.logger.Error("password reset email failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// ResetPassword settles a reset token with a new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.users.FindByPasswordResetToken(ctx, token)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrTokenNotFound
	}
	if err != nil {
		return err
	}
	if u.PasswordResetTokenExpiry != nil && time.Now().UTC().After(*u.PasswordResetTokenExpiry) {
		return ErrTokenNotFound
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.ResetPassword(ctx, u.ID, hash)
}

// GetProfile returns the caller's own account.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// UpdateProfile changes the caller's display names.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName, preferredName *string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if firstName != nil {
		u.FirstName = firstName
	}
	if lastName != nil {
		u.LastName = lastName
	}
	if preferredName != nil {
		u.PreferredName = preferredName
	}

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) issueTokens(u *model.User) (*TokenPair, error) {
	access, accessExp, err := s.tokens.GenerateAccessToken(u.ID.String(), u.Role)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.GenerateRefreshToken(u.ID.String())
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
