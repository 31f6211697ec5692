package security

import "context"

type claimsKey struct{}

// WithClaims attaches validated operator claims to ctx
func WithClaims(ctx context.Context, claims *OperatorClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims set by the transport auth layer, if any
func ClaimsFromContext(ctx context.Context) (*OperatorClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*OperatorClaims)
	return claims, ok && claims != nil
}
