package auth

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidCredentials is returned when the join password doesn't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidName is returned when the player name doesn't meet constraints.
	ErrInvalidName = errors.New("invalid player name")
	// ErrDisabled is returned by Issue when no signing secret is configured.
	ErrDisabled = errors.New("auth disabled")
)

const maxNameLen = 32

// Service issues and validates join tokens.
type Service struct {
	jwtConfig    *JWTConfig
	passwordHash string
}

// NewService creates a new authentication service. An empty secret disables
// token checks; an empty passwordHash lets anyone obtain a token.
func NewService(jwtConfig *JWTConfig, passwordHash string) *Service {
	return &Service{
		jwtConfig:    jwtConfig,
		passwordHash: passwordHash,
	}
}

// Enabled reports whether joins require a token.
func (s *Service) Enabled() bool {
	return s != nil && s.jwtConfig != nil && len(s.jwtConfig.Secret) > 0
}

// Issue checks the join password and returns a token for name.
func (s *Service) Issue(name, password string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}

	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return "", ErrInvalidName
	}

	if s.passwordHash != "" {
		if err := ComparePassword(s.passwordHash, password); err != nil {
			return "", ErrInvalidCredentials
		}
	}

	return GenerateToken(s.jwtConfig, name)
}

// ValidateToken validates a token and returns its claims.
func (s *Service) ValidateToken(token string) (*Claims, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	return ValidateToken(s.jwtConfig, token)
}
