package iam

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"immunization-scheduler/internal/ports/auth"
)

var (
	ErrTokenEmpty         = errors.New("token is empty")
	ErrStaffIncomplete    = errors.New("iam claims missing staff id")
	ErrFacilityNotAllowed = errors.New("staff facility not allowed")
)

// Verifier resuelve el token del personal de salud contra el IAM.
// Con Facilities no vacío solo acepta personal de esos vacunatorios.
type Verifier struct {
	client     *Client
	facilities map[string]struct{}
}

var _ auth.AuthVerifier = (*Verifier)(nil)

type VerifierOptions struct {
	Facilities []string
}

func NewVerifier(client *Client, opts ...VerifierOptions) *Verifier {
	v := &Verifier{client: client}
	for _, o := range opts {
		for _, f := range o.Facilities {
			if f = strings.TrimSpace(f); f == "" {
				continue
			}
			if v.facilities == nil {
				v.facilities = map[string]struct{}{}
			}
			v.facilities[f] = struct{}{}
		}
	}
	return v
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrIAMNotConfigured
	}
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("iam verify failed: %w", err)
	}
	if claims.UserID == "" {
		return auth.Claims{}, ErrStaffIncomplete
	}

	if v.facilities != nil {
		if _, ok := v.facilities[claims.FacilityID]; !ok {
			return auth.Claims{}, fmt.Errorf("%w: %q", ErrFacilityNotAllowed, claims.FacilityID)
		}
	}

	// el historial guarda el nombre del actor; sin nombre, el email
	if claims.Name == "" {
		claims.Name = claims.Email
	}
	return claims, nil
}
