// Package webcore implements cookie based JWT authentication with refresh
// token rotation, plus the storage layer behind it.
//
// A successful login mints a short lived access token and a long lived
// refresh token, both delivered as httpOnly SameSite=Strict cookies so script
// code never touches token material. Refresh tokens rotate: each one can mint
// a successor exactly once, and replaying a consumed token revokes the whole
// family. State changing endpoints are additionally guarded by a
// session-bound CSRF token using the double submit pattern, see the
// middleware/csrf package.
package webcore
