// Package mcp exposes pair-matching sessions to AI agents over the Model
// Context Protocol.
//
// Client is a thin proxy: every tool call becomes a request against the REST
// API, and the JSON response is rendered as text an agent can read, including
// an indexed drawing of the board.
//
// MCP Tools:
//   - create_session, get_session, list_sessions
//   - start_session, pause_session, resume_session, end_session
//   - take_turn, bulk_turns, flip_token, use_hint
//   - list_difficulties, list_modes
//   - create_profile, get_profile, list_profiles
//   - game_instructions
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
