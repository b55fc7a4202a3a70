// Package service provides the business logic layer of the pair-matching game.
//
// GameService sits between the transports (REST, WebSocket and MCP) and the
// session package. It resolves difficulty and mode names through a
// ConfigManager, binds each session to its player's profile so finished games
// update the profile statistics, and forwards every session event to an
// EventPublisher such as the WebSocket hub.
//
// Usage:
//
//	sessions := session.NewManager()
//	configs, _ := config.NewManager("configs")
//	profiles, _ := profile.NewFileStore("data/profiles")
//	gameService := service.NewGameService(sessions, configs, profiles, hub)
//
//	info, err := gameService.CreateSession(ctx, service.CreateSessionRequest{
//		Profile:    "ada",
//		Difficulty: "medium",
//		Mode:       "timed",
//		AutoStart:  true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.ProcessTurn(ctx, info.ID,
//		engine.Position{Row: 0, Col: 0}, engine.Position{Row: 1, Col: 3})
package service
