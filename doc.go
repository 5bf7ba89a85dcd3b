// Package auth implements the account lifecycle and access control for the
// tours backend: signup with email confirmation, login, password reset and
// update, self-service deactivation and reactivation, plus JWT based
// authentication and role checks for HTTP routes.
//
// Account lifecycle:
//   - An Account is unconfirmed until its email is confirmed, then active.
//     Deactivation only clears the active flag so the record can be
//     reactivated with the original password.
//   - Lifecycle exposes one method per operation. Operations that send email
//     persist their token first and roll the write back when delivery fails.
//   - AccountStateMachine owns the state graph and emits
//     account.state.changed events for every transition.
//
// Tokens:
//   - Access tokens are HS256 JWTs carrying the account ID in sub. A token
//     issued before the last password change is rejected by the Guard.
//   - Confirmation and reset tokens are 32 random bytes, sent to the user in
//     hex and stored as their SHA-256 digest.
//
// Activity sinks:
//   - ActivitySink receives signup, login, password and state change events.
//     Sinks run best effort, errors are logged and never fail the operation.
package auth
