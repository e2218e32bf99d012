// Package auth provides the authentication and authorization layer for a
// role-based team management application: credential storage, JWT issuance
// and validation, session resolution, and HTTP middleware.
//
// Identity and roles:
//   - Users carry a UserRole drawn from a fixed hierarchy (user < qc < hr <
//     manager < admin). RoleIsAtLeast and the claims helpers let callers gate
//     behavior on the hierarchy instead of comparing strings.
//   - Users also carry a UserStatus (active, locked, archived) persisted via
//     Bun. UserStateMachine centralizes the transition graph, timestamp
//     handling, hooks, and persistence. Invoke Transition with ActorRef
//     metadata whenever an operator moves an account.
//
// Login flow:
//   - UserProvider verifies credentials against the Users repository with
//     bcrypt, tracks failed attempts with a cooldown window, and refuses
//     locked accounts. Auther turns a verified identity into a signed JWT
//     and collapses credential failures into a single uniform error so the
//     response never reveals whether an email exists.
//
// HTTP surface:
//   - AuthController exposes register, login, logout, verify, me, and
//     password reset endpoints over go-router. ProtectedRoute guards routes
//     with the tokenware middleware, and routeguard steers browser traffic
//     between the admin and user surfaces.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther and the
//     state machine to record lifecycle, login, impersonation, and password
//     reset events. Sinks run best-effort so failures never block a login.
package auth
