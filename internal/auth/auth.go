// Package auth issues and checks the bearer tokens that guard simulator
// control endpoints. Operators are configured as username to bcrypt hash.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/unklstewy/ads-bsim/pkg/config"
)

// Roles for role-based access control
const (
	RoleAdmin    = "admin"    // Full control, including configuration
	RoleOperator = "operator" // May reset simulators
	RoleViewer   = "viewer"   // Read-only access
)

const issuer = "ads-bsim"

var (
	// ErrInvalidCredentials is returned when authentication fails
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when token validation fails
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnauthorized is returned when user lacks required permissions
	ErrUnauthorized = errors.New("unauthorized access")
)

// Claims represents the JWT claims for an operator session
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Config holds authentication configuration
type Config struct {
	JWTSecret     string            // Secret key for signing JWTs
	TokenDuration time.Duration     // How long tokens are valid
	BCryptCost    int               // BCrypt hashing cost (default: bcrypt.DefaultCost)
	Operators     map[string]string // Username to bcrypt hash
	Admins        []string          // Operators granted RoleAdmin
}

// Service provides authentication operations
type Service struct {
	config Config
	admins map[string]bool
	now    func() time.Time
}

// NewService creates a new authentication service
func NewService(cfg Config) *Service {
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = 24 * time.Hour
	}

	admins := make(map[string]bool, len(cfg.Admins))
	for _, a := range cfg.Admins {
		admins[a] = true
	}

	return &Service{
		config: cfg,
		admins: admins,
		now:    time.Now,
	}
}

// FromConfig builds a service from the auth section of the config file.
// It returns nil when auth is disabled.
func FromConfig(cfg config.AuthConfig) *Service {
	if !cfg.Enabled {
		return nil
	}
	return NewService(Config{
		JWTSecret:     cfg.JWTSecret,
		TokenDuration: time.Duration(cfg.TokenHours) * time.Hour,
		Operators:     cfg.Operators,
		Admins:        cfg.Admins,
	})
}

// HashPassword hashes a plaintext password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BCryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword compares a plaintext password with a hashed password
func (s *Service) ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// Authenticate checks an operator's password and returns a signed token.
func (s *Service) Authenticate(username, password string) (string, *Claims, error) {
	hash, ok := s.config.Operators[username]
	if !ok {
		return "", nil, ErrInvalidCredentials
	}
	if err := s.ComparePassword(hash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	role := RoleOperator
	if s.admins[username] {
		role = RoleAdmin
	}
	token, err := s.GenerateToken(username, role)
	if err != nil {
		return "", nil, err
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// GenerateToken generates a JWT token for an operator
func (s *Service) GenerateToken(username, role string) (string, error) {
	now := s.now()
	claims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// HasRole checks if a user has a specific role or higher
// Role hierarchy: Admin > Operator > Viewer
func HasRole(userRole, requiredRole string) bool {
	roleLevel := map[string]int{
		RoleAdmin:    2,
		RoleOperator: 1,
		RoleViewer:   0,
	}

	userLevel, ok1 := roleLevel[userRole]
	requiredLevel, ok2 := roleLevel[requiredRole]

	if !ok1 || !ok2 {
		return false
	}

	return userLevel >= requiredLevel
}

// CanReset checks if a role can reset a simulator
func CanReset(role string) bool {
	return HasRole(role, RoleOperator)
}
