// Package http exposes the workspace over a JSON REST API.
//
// Handlers never return model pointers; every response is a copy taken
// under the workspace lock. Domain errors map to status codes by kind:
//
//	NotFound, UnknownTemplate            404
//	RootDeletionForbidden                403
//	CycleDetected                        409
//	InvalidParent, NotAFile, NotAFolder,
//	EmptyName, BinaryContent,
//	DeserializationFailed                400
//	invalid settings                     422
//	StoreWriteFailed                     503
//
// Error bodies are {"error": message, "kind": kind}.
package http
