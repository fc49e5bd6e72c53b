package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const cookieIssuer = "web-bff"

var ErrInvalidCookie = errors.New("session: invalid cookie")

// CookieCodec signs the session id into the browser cookie so a client can
// neither forge nor guess another session's id.
type CookieCodec struct {
	secret []byte
	name   string
	secure bool
	maxAge time.Duration
}

func NewCookieCodec(secret, name string, secure bool, maxAge time.Duration) *CookieCodec {
	return &CookieCodec{
		secret: []byte(secret),
		name:   name,
		secure: secure,
		maxAge: maxAge,
	}
}

func (c *CookieCodec) Name() string { return c.name }

// Encode returns the cookie carrying sid.
func (c *CookieCodec) Encode(sid string) (*http.Cookie, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        sid,
		Issuer:    cookieIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     c.name,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Decode extracts the session id from r's cookie.
func (c *CookieCodec) Decode(r *http.Request) (string, error) {
	ck, err := r.Cookie(c.name)
	if err != nil {
		return "", ErrInvalidCookie
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(ck.Value, &claims, func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidCookie
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return "", ErrInvalidCookie
	}
	return claims.ID, nil
}

// Clear returns a cookie that removes the session cookie from the browser.
func (c *CookieCodec) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
