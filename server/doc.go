// Package server exposes a docchat session as a JSON HTTP API.
//
// Routes:
//
//	GET    /api/health     liveness and version
//	POST   /api/documents  multipart "files"; 200, or 422 when nothing was processed
//	POST   /api/ask        {"question": "..."}; 409 when the question is rejected
//	GET    /api/session    files, turns and flags
//	DELETE /api/session    clear documents and chat
//
// Errors are rendered as {"code", "message", "details"}.
package server
