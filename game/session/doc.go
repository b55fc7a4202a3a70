// Package session runs pair-matching game sessions.
//
// A Session owns a board, a player, a timer and an event bus, and moves
// through a small lifecycle:
//
//	Idle --Start--> Active <--Pause/Resume--> Paused
//	  \               |                        |
//	   \--End--> Ended <--End/expiry/complete--/
//
// Every mutation runs under the session lock, including the background expiry
// check driven by the timer. Events are queued on the bus after the lock is
// released and delivered to subscribers in emission order on the bus
// goroutine, so subscribers may call back into the session.
//
// Ending is idempotent: exactly one report reaches the statistics sink per
// session, and only sessions that were started produce one.
//
// Manager keeps sessions in memory under short case-insensitive IDs and
// guarantees one live session per profile.
//
// Usage:
//
//	manager := session.NewManager(session.WithSink(recorder))
//
//	sess, err := manager.Create(session.Options{
//		Profile: "ada",
//		Tier:    tier,
//		Mode:    engine.ModeTimed,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess.Start()
//	matched, err := sess.ProcessTurn(engine.Position{Row: 0, Col: 0}, engine.Position{Row: 0, Col: 1})
package session
