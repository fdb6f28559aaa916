// Package reqctx carries request-scoped values through context.Context.
//
// HTTP middleware sets the values; services read them without depending on
// the web framework.
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: "abc-123"})
//	ctx = reqctx.WithClaims(ctx, claims)
//	ctx = reqctx.WithPrincipal(ctx, principal)
//
// Contracts:
//
//   - RequestMeta is set for every HTTP request
//   - Claims is set only for requests with a valid bearer token
//   - Principal is set once the token's user has been loaded and is active
package reqctx
