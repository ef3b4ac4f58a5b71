// Package auth provides authentication and authorisation for CareLink Core.
//
// It implements a 4-role model (patient, caretaker, farmer, ringer) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Stateless HS256 JWT access tokens carrying the user's role
//   - Principal resolution in the API middleware, so domain services
//     only ever see an authenticated identity, never a raw token
//
// Device scoping follows an "own device by default" model: every role
// except caretaker is registered together with exactly one device and
// may only act on it. Caretakers own no device and are instead scoped
// to all patient-owned devices.
package auth
