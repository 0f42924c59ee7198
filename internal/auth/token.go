package auth

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yourorg/shesafe/internal/apperrors"
)

const defaultTokenTTL = 24 * time.Hour

// TokenManager emite y verifica los JWT de sesión (HS256).
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: secret, ttl: ttl}
}

// TokenManagerFromEnv construye el manager desde JWT_SECRET / JWT_TTL.
// En producción el secret es obligatorio; en dev hay fallback con warning.
func TokenManagerFromEnv() *TokenManager {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("ENV") == "production" || os.Getenv("ENVIRONMENT") == "production" {
			log.Fatal("❌ CRITICAL: JWT_SECRET must be set in production environment")
		}
		log.Println("⚠️ WARNING: Using default JWT secret (development only)")
		secret = "dev-secret-change-me-32-characters!"
	}

	if len(secret) < 32 {
		log.Fatalf("❌ CRITICAL: JWT_SECRET must be at least 32 characters long (current: %d)", len(secret))
	}

	ttl := defaultTokenTTL
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		dur, err := time.ParseDuration(raw)
		if err != nil || dur <= 0 {
			log.Printf("invalid JWT_TTL=%q, using default %s", raw, ttl)
		} else {
			ttl = dur
		}
	}

	return NewTokenManager([]byte(secret), ttl)
}

type userClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issue firma un token para el usuario y devuelve también su expiración.
func (m *TokenManager) Issue(userID int64, username string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(m.ttl)
	claims := userClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	return signed, expires, err
}

// Verify valida firma y vigencia, y devuelve el id de usuario del subject.
func (m *TokenManager) Verify(tokenString string) (int64, error) {
	var claims userClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, apperrors.Unauthenticated("invalid or expired token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, apperrors.Unauthenticated("invalid token subject")
	}
	return userID, nil
}
