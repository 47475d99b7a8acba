package auth

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "bookmanage"
	tokenAudience = "bookmanage-client"

	// PASETO v4 symmetric key requirements.
	tokenKeyBytes   = 32
	tokenKeyHexSize = 64
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the session token contents.
type Claims struct {
	UID          string    `json:"uid"`
	Name         string    `json:"name"`
	IdentityType uint      `json:"identity_type"`
	ExpiresAt    time.Time `json:"exp"`
}

// TokenService issues and verifies PASETO v4.local session tokens.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	ttl          time.Duration
	now          func() time.Time
}

func NewTokenService(keyHex string, ttl time.Duration) (*TokenService, error) {
	if len(keyHex) != tokenKeyHexSize {
		return nil, fmt.Errorf("token key must be exactly %d hex characters (%d bytes), got %d", tokenKeyHexSize, tokenKeyBytes, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for token key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create token key: %w", err)
	}

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &TokenService{symmetricKey: key, ttl: ttl, now: time.Now}, nil
}

// Issue creates an encrypted token for the borrower, valid for the
// configured TTL.
func (s *TokenService) Issue(uid, name string, identityType uint) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(uid)
	token.SetJti(uuid.NewString())
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)

	if err := token.Set("uid", uid); err != nil {
		return "", time.Time{}, err
	}
	if err := token.Set("name", name); err != nil {
		return "", time.Time{}, err
	}
	if err := token.Set("identity_type", identityType); err != nil {
		return "", time.Time{}, err
	}

	return token.V4Encrypt(s.symmetricKey, nil), expires, nil
}

// Verify decrypts the token and checks issuer, audience and expiry.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %v", ErrInvalidToken, err)
	}
	if claims.UID == "" {
		return nil, fmt.Errorf("%w: missing uid", ErrInvalidToken)
	}
	return &claims, nil
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
