package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidMediaToken = errors.New("storage: invalid media token")

// Signer issues short-lived links for backends that cannot presign their own
// URLs. The token's subject is the object path.
type Signer struct {
	secret  []byte
	baseURL string
}

func NewSigner(secret, baseURL string) *Signer {
	return &Signer{
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type mediaClaims struct {
	jwt.RegisteredClaims
}

func (s *Signer) Sign(path string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := mediaClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   path,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign media link: %w", err)
	}

	return s.baseURL + "/media/" + escapePath(path) + "?token=" + url.QueryEscape(token), nil
}

// Verify checks that token was issued for path and has not expired.
func (s *Signer) Verify(path, token string) error {
	var claims mediaClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return ErrInvalidMediaToken
	}
	if claims.Subject != path {
		return ErrInvalidMediaToken
	}
	return nil
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
