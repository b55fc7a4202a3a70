// Package websocket streams game session events to browser clients.
//
// A central Hub owns every connection. Clients subscribe to one session by ID
// (case-insensitive) and receive JSON messages of the form
//
//	{"session_id": "ab12", "event": "match_found", "data": {...}}
//
// where event is either an event type from the game (session_started,
// token_flipped, match_found, hint_used, session_paused, session_resumed,
// session_ended) or state_update, which carries a full session snapshot. The
// first message on a new connection is always a state_update.
//
// Hub.Publish matches the game service's event publisher, so wiring the hub
// into the service is enough for every session event to reach its watchers.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	gameService := service.NewGameService(sessions, configs, profiles, hub)
//
// Each connection runs a read pump, which only keeps the connection alive, and
// a write pump, which sends queued messages and pings. A client that falls
// behind is disconnected.
package websocket
