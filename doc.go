// Package auth implements the account lifecycle for an email-first product:
// registration with verification codes, code-based email confirmation, and
// JWT issuance for password and code logins.
//
// Verification codes:
//   - Codes are six decimal digits drawn uniformly from crypto/rand, stored
//     alongside the user with an absolute expiry (five minutes by default).
//     At most one code is outstanding per user; issuing a new one replaces
//     the old.
//   - Consuming a code is a single atomic statement, so a code can never be
//     redeemed twice even under concurrent requests.
//
// Login paths:
//   - Password login requires a verified email and answers every credential
//     failure with the same ErrInvalidCredentials, never revealing whether
//     the account exists.
//   - Code login redeems an outstanding verification code in place of a
//     password and intentionally does not require (nor set) the verified
//     flag, so a user mid-verification can still reach their account.
//
// Activity sinks:
//   - ActivitySink is a best-effort audit emitter used by Auther and the
//     state machine for registration, verification, login, and status
//     change events. Sink errors are logged, never propagated.
package auth
