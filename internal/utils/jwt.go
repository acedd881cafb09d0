package utils // utils holds token creation and hashing helpers shared by the auth stack

import (
    "crypto/rand"   // secure randomness for refresh tokens
    "crypto/sha256" // refresh tokens are stored hashed
    "encoding/hex"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // signed access tokens
)

// AccessToken is a signed HS256 JWT plus its expiry. Access tokens are
// short-lived and travel in the Authorization header.
type AccessToken struct {
    Token string
    Exp   time.Time // UTC
}

// RefreshToken is the long-lived opaque token used to mint new access
// tokens. Only Raw is ever shown to the client; the database keeps the
// SHA-256 hash so a leaked table cannot be replayed.
type RefreshToken struct {
    Raw string
    Exp time.Time // UTC
}

// accessClaims is the payload of every access token: the registered
// sub/exp/iat claims with the user id as subject, plus the role used by
// the authorization middleware.
type accessClaims struct {
    Role string `json:"role"`
    jwt.RegisteredClaims
}

// NewAccessToken signs an HS256 access token for the given user and
// role, valid for ttlMin minutes.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := accessClaims{
        Role: role,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(userID, 10),
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a fresh random refresh token valid for
// ttlDays days. 48 random bytes hex-encode to a 96 character string.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    buf := make([]byte, 48)
    if _, err := rand.Read(buf); err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: hex.EncodeToString(buf),
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw is the storage form of a refresh token: hex-encoded
// SHA-256 of the raw string.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}
