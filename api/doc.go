// Package api provides the HTTP REST API for pair-matching sessions.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({profile, difficulty, mode, auto_start})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&profile=NAME)
//   - GET /api/sessions/{id} - Get a session snapshot
//   - DELETE /api/sessions/{id} - Abandon and remove a session
//
// Lifecycle:
//   - POST /api/sessions/{id}/start
//   - POST /api/sessions/{id}/pause
//   - POST /api/sessions/{id}/resume
//   - POST /api/sessions/{id}/end
//
// Game Operations:
//   - POST /api/sessions/{id}/turn - Play one turn ({first, second})
//   - POST /api/sessions/{id}/bulk-turns - Play several turns ({turns: [...]})
//   - POST /api/sessions/{id}/flip - Turn up one token ({row, col}); the second flip plays the turn
//   - POST /api/sessions/{id}/hint - Spend a hint
//
// Configuration:
//   - GET /api/difficulties
//   - POST /api/difficulties - Save a custom tier
//   - GET /api/modes
//
// Profiles:
//   - GET /api/profiles
//   - POST /api/profiles ({name})
//   - GET /api/profiles/{name}
//   - PATCH /api/profiles/{name} - Set preferred_difficulty or preferred_mode
//   - GET /api/profiles/{name}/session - The profile's live session
//   - DELETE /api/profiles/{name}
//
// Real-time:
//   - GET /ws?session={id} - WebSocket stream of session events
//
// Errors are returned as {"error": "..."} with 404 for unknown sessions or
// profiles, 400 for invalid input, 409 for operations the session state does
// not allow, and 500 otherwise.
package api
