package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/mtaabiz/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxUsernameLength = 150
	minPasswordLength = 8
	tokenKeyBytes     = 20
)

// AuthService handles registration, login and the bearer-token lifecycle.
//
// A bearer token is an HS256 JWT whose jti names a row in the token store.
// The signature rejects forged tokens before any lookup; deleting the row
// revokes every copy of the token.
type AuthService struct {
	db         domain.Transactor
	tokens     domain.TokenRepository
	profiles   *ProfileService
	jwtSecret  []byte
	bcryptCost int
	tokenTTL   time.Duration
}

// NewAuthService creates a new AuthService. A zero tokenTTL issues tokens
// without an expiry claim.
func NewAuthService(db domain.Transactor, tokens domain.TokenRepository, profiles *ProfileService, jwtSecret string, bcryptCost int, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		db:         db,
		tokens:     tokens,
		profiles:   profiles,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		tokenTTL:   tokenTTL,
	}
}

// Register creates a user and its profile in one transaction, then issues a
// token. If the profile cannot be created the user is rolled back too.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, string, error) {
	if err := validateRegistration(username, email, password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}

	err = s.db.WithinTx(ctx, func(repos domain.Repositories) error {
		if err := repos.Users().Create(ctx, user); err != nil {
			return err
		}
		if _, err := s.profiles.EnsureProfileIn(ctx, repos, user.ID); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("register user: %w", err)
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and returns the user with a bearer token. The
// same error is returned for an unknown username and a wrong password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	if username == "" || password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.db.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ResolveToken returns the single user a bearer token maps to.
func (s *AuthService) ResolveToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.parse(tokenString, true)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	stored, err := s.tokens.GetByKey(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get token: %w", err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID != stored.UserID {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.db.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Logout revokes the token mapping. Unknown, expired, malformed and
// already-revoked tokens are all treated as success.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString, false)
	if err != nil || claims.ID == "" {
		return nil
	}
	if err := s.tokens.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.db.Users().GetByID(ctx, id)
}

// issueToken reuses the user's existing key when there is one so that every
// session of a user shares one revocable mapping.
func (s *AuthService) issueToken(ctx context.Context, user *domain.User) (string, error) {
	stored, err := s.tokens.GetByUser(ctx, user.ID)
	if errors.Is(err, domain.ErrNotFound) {
		stored, err = s.createTokenKey(ctx, user.ID)
	}
	if err != nil {
		return "", fmt.Errorf("get token key: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:       stored.Key,
		Subject:  strconv.FormatInt(user.ID, 10),
		IssuedAt: jwt.NewNumericDate(now),
	}
	if s.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.tokenTTL))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) createTokenKey(ctx context.Context, userID int64) (*domain.AuthToken, error) {
	key, err := generateTokenKey()
	if err != nil {
		return nil, err
	}
	token := &domain.AuthToken{Key: key, UserID: userID}
	if err := s.tokens.Create(ctx, token); err != nil {
		// A concurrent login won the race; use its key.
		if errors.Is(err, domain.ErrDuplicate) {
			return s.tokens.GetByUser(ctx, userID)
		}
		return nil, err
	}
	return token, nil
}

func (s *AuthService) parse(tokenString string, validateClaims bool) (*jwt.RegisteredClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if !validateClaims {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

func generateTokenKey() (string, error) {
	b := make([]byte, tokenKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func validateRegistration(username, email, password string) error {
	switch {
	case username == "":
		return domain.NewValidationError("username", "this field is required")
	case len(username) > maxUsernameLength:
		return domain.NewValidationError("username", fmt.Sprintf("ensure this field has no more than %d characters", maxUsernameLength))
	case !validUsername(username):
		return domain.NewValidationError("username", "may contain only letters, numbers, and @/./+/-/_ characters")
	case email == "":
		return domain.NewValidationError("email", "this field is required")
	case password == "":
		return domain.NewValidationError("password", "this field is required")
	case len(password) < minPasswordLength:
		return domain.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.NewValidationError("email", "enter a valid email address")
	}
	return nil
}

func validUsername(username string) bool {
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '@', '.', '+', '-', '_':
			continue
		}
		return false
	}
	return true
}
