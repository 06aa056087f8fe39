// Package auth implements credential verification and identity resolution
// for password and external-provider sign-in.
//
// The package exposes two cooperating pieces:
//
//   - Resolver maps validated external identities to local users inside a
//     single storage transaction, creating and linking accounts as needed.
//     Concurrent resolutions are reconciled through the storage layer's
//     unique constraints rather than locks.
//
//   - Service orchestrates the user-facing operations: Register,
//     AuthenticatePassword, AuthenticateExternal, ValidateToken,
//     RefreshToken, and DeactivateAccount. Every operation returns a
//     sentinel from errors.go, validation errors, or a pkg/jwt token error;
//     nothing else escapes.
//
// Storage is abstracted behind the Storage, UnitOfWork, and IdentityStore
// interfaces; pkg/pgstore provides the PostgreSQL implementation. External
// providers plug in through ExternalValidator; NewGoogleValidator adapts
// pkg/google.
//
// Example wiring:
//
//	tokens, _ := jwt.NewFromString(cfg.SigningKey)
//	resolver, _ := auth.NewResolver(store)
//	svc, _ := auth.NewService(store, resolver, tokens,
//	    auth.NewGoogleValidator(googleValidator),
//	    auth.WithTokenTTL(cfg.AccessTokenTTL),
//	    auth.WithLogger(log),
//	)
package auth
