// Package auth issues and verifies the HS256 session tokens that identify
// the signed-in user on API requests.
package auth

import (
	"errors"
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
)

// ErrInvalidToken is returned for tokens that fail signature or claim
// validation.
var ErrInvalidToken = errors.New("auth: invalid session token")

const issuer = "integration-hub"

// Verifier signs and validates session tokens with a shared secret.
type Verifier struct {
	secret []byte
	ttl    time.Duration
}

func NewVerifier(secret string, ttl time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), ttl: ttl}
}

// Issue produces a signed session token whose subject is the user identifier.
func (v *Verifier) Issue(user string) (string, error) {
	signer, err := gojose.NewSigner(gojose.SigningKey{Algorithm: gojose.HS256, Key: v.secret}, (&gojose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	claims := gojwt.Claims{
		Subject:   user,
		Issuer:    issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		Expiry:    gojwt.NewNumericDate(now.Add(v.ttl)),
		NotBefore: gojwt.NewNumericDate(now),
	}

	token, err := gojwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return token, nil
}

// Verify checks the token's signature and validity window and returns the
// user identifier it was issued for.
func (v *Verifier) Verify(token string) (string, error) {
	parsed, err := gojwt.ParseSigned(token, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return "", ErrInvalidToken
	}

	var claims gojwt.Claims
	if err := parsed.Claims(v.secret, &claims); err != nil {
		return "", ErrInvalidToken
	}
	if err := claims.Validate(gojwt.Expected{Issuer: issuer, Time: time.Now().UTC()}); err != nil {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
