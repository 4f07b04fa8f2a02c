// Package librarian implements a digital library catalog API: session
// lifecycle (register, login, refresh, logout) backed by dual JWT token
// families, a refresh-token store with revocation, and catalog resources
// for books, authors, and categories.
//
// Session lifecycle:
//   - Login issues a short-lived access token (identity claims, secret A)
//     and a long-lived refresh token (secret B) that is persisted so it
//     can be revoked. Refresh exchanges a stored token for a new access
//     token without rotating the refresh token. Logout deletes the stored
//     row; deleting an unknown token is still a successful logout.
//   - Expiry of a stored refresh token is detected lazily at refresh time
//     by the persisted timestamp, before any signature verification, and
//     the row is deleted on detection.
//
// Guarding:
//   - RouteGuard wraps the middleware/jwtware validator: Protected
//     requires a valid access token, AdminOnly additionally requires the
//     ADMIN role. Validated claims are exposed through the router context
//     and the standard context helpers in ctx.go.
//
// Catalog copy generation:
//   - The ai subpackage talks to an OpenAI-compatible chat-completions
//     endpoint to generate book descriptions, summaries, and similar-book
//     recommendations. Every generation is best effort and degrades to a
//     fallback value; catalog operations never fail because of it.
package librarian
