// Package ws streams workspace change events over WebSocket.
//
// Message Types (Server → Client):
//   - system: sent once on connect; message is the connection id, data the status
//   - event: a workspace.Event
//   - snapshot, session, status: replies to the matching request
//   - closing: the workspace shut down
//   - error: the request type was not understood
//
// Message Types (Client → Server):
//   - ping: answered with pong
//   - snapshot: full project
//   - session: open files
//   - status: persistence state
//
// Example Usage:
//
//	handler := ws.NewHandler(workspace, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
