package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/infrastructure/config"
)

type claims struct {
	jwt.RegisteredClaims
	Role entity.Role `json:"role"`
}

// Issuer signs and verifies learner identity tokens with HS256.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an issuer from the auth config section.
func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{
		secret: []byte(cfg.Auth.Secret),
		issuer: cfg.Auth.Issuer,
		ttl:    cfg.Auth.TokenTTL,
		now:    time.Now,
	}
}

// Issue returns a signed token for the principal.
func (i *Issuer) Issue(p entity.Principal) (string, error) {
	now := i.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(p.LearnerID, 10),
			Issuer:   i.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Role: p.Role,
	}
	if i.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}
	tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tk, nil
}

// Verify parses a raw token, with or without the Bearer prefix.
func (i *Issuer) Verify(raw string) (entity.Principal, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return entity.Principal{}, entity.ErrUnauthenticated
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return entity.Principal{}, fmt.Errorf("%w: %w", entity.ErrUnauthenticated, err)
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return entity.Principal{}, fmt.Errorf("%w: bad subject", entity.ErrUnauthenticated)
	}
	return entity.Principal{LearnerID: id, Role: c.Role}, nil
}

type ctxKey struct{}

// WithPrincipal stores the authenticated caller on the context.
func WithPrincipal(ctx context.Context, p entity.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the caller stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (entity.Principal, error) {
	p, ok := ctx.Value(ctxKey{}).(entity.Principal)
	if !ok {
		return entity.Principal{}, entity.ErrUnauthenticated
	}
	return p, nil
}

// Authenticator resolves a raw token into a principal whose account still exists.
type Authenticator struct {
	issuer   *Issuer
	resolver PrincipalResolver
}

// PrincipalResolver confirms a token's principal against the learner directory.
type PrincipalResolver interface {
	Authenticate(ctx context.Context, p entity.Principal) (entity.Principal, error)
}

// NewAuthenticator combines token verification with a directory lookup.
func NewAuthenticator(issuer *Issuer, resolver PrincipalResolver) *Authenticator {
	return &Authenticator{issuer: issuer, resolver: resolver}
}

// Authenticate verifies the Authorization header value.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (entity.Principal, error) {
	p, err := a.issuer.Verify(header)
	if err != nil {
		return entity.Principal{}, err
	}
	p, err = a.resolver.Authenticate(ctx, p)
	if err != nil {
		if errors.Is(err, entity.ErrUnauthenticated) || errors.Is(err, entity.ErrLearnerNotFound) {
			return entity.Principal{}, entity.ErrUnauthenticated
		}
		return entity.Principal{}, err
	}
	return p, nil
}
