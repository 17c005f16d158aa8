// Package handlers implements the HTTP API of the batch tone mapper.
//
// Handlers delegate to the services layer and only deal with request binding,
// response conversion and HTTP semantics.
//
//	┌────────────────────────────────────────────┐
//	│            HTTP Request (Gin)              │
//	└────────────────────────────────────────────┘
//	                     │
//	                     ▼
//	┌────────────────────────────────────────────┐
//	│          Handler (this package)            │
//	│  - body and query binding                  │
//	│  - error mapping to status codes           │
//	│  - model to API conversion                 │
//	└────────────────────────────────────────────┘
//	                     │
//	                     ▼
//	┌────────────────────────────────────────────┐
//	│    BatchService   │   HistoryService       │
//	└────────────────────────────────────────────┘
//
// # Error Mapping
//
//	ConfigurationError, MalformedSettingsError  → 400 Bad Request
//	ResourceNotFoundError                       → 404 Not Found
//	BatchInProgressError                        → 409 Conflict
//	anything else                               → 500 Internal Server Error
//
// Error bodies are always {"error": "<message>"}.
//
// # Batch Defaults
//
// POST /tonemap may omit threads, format and quality; the values configured
// for the process fill them in.
//
// # History Pagination
//
// GET /history takes page (1-based, default 1) and pageSize (default 20,
// capped at 100), plus optional batch, outcome (repeatable) and input filters.
package handlers
