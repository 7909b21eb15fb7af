// Package session drives the authorize → fetch → aggregate pipeline and exposes it as an observable state machine.
//
// # States
//
//	Disconnected ──Receive/Start──▶ LoadingGenres ──ok──▶ Ready(table)
//	      ▲                               │
//	      └─────────Disconnect────────────┴──err──▶ Failed(message)
//
// [Controller.Connect] never changes state; it hands the authorization URL to a [Navigator].
// Entering LoadingGenres bumps a generation counter. A load commits its result only while its generation is
// still current, so a reconnect, disconnect or [Controller.Close] makes any outstanding fetch harmless.
// The fetch itself is allowed to finish.
//
// # Subscriptions
//
// [Controller.Subscribe] registers a callback that receives the current [State] and then every change, in order,
// from a single dispatch goroutine. Callbacks may call back into the controller but must not call [Controller.Close].
package session
