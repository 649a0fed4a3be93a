// Package portal is a server rendered account portal in front of a remote
// better-auth style service. It owns no credentials: every submit is relayed
// to the auth service with the browser's cookies and the response cookies are
// relayed back.
//
// Flows:
//   - Flows drives sign in, sign up, social sign in, forgot and reset password
//     and sign out. Each submit validates locally first, then settles into an
//     Outcome the HTTP layer turns into a redirect or a re-rendered form.
//   - A SubmissionTracker discards results of submits that a newer submit of
//     the same form on the same browser replaced.
//
// Session:
//   - SessionObserver asks the auth service who the browser is and answers
//     with a three valued SessionView (unknown, absent, present). Unknown
//     means the service could not be reached; protected screens show a
//     loading page instead of bouncing to sign in.
//   - SessionCache optionally keeps the last present view in a signed cookie
//     bound to the auth cookies it was observed with.
//
// Two factor:
//   - TwoFactorFlow walks the enrollment state machine on the profile screen
//     (password confirmation, TOTP QR code and backup codes, code check) and
//     verifies login challenges. Enrollment state lives in an EnrollmentStore,
//     in memory or in redis.
//
// Activity sinks:
//   - ActivitySink receives one event per settled submit. Sinks are best
//     effort; failures are logged and never block the flow.
package portal
