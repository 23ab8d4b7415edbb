// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Context

The router wraps the whole mux, outermost first:

	handler := middleware.WithRequestID(
		middleware.WithSession(sessions, repo)(
			middleware.WithMetrics(mux)))

WithRequestID reuses or mints an X-Request-ID. WithSession resolves the
session cookie; handlers read the result with CurrentUser(r.Context()),
which is nil for anonymous requests. WithMetrics must sit directly on the
mux so it can label requests with the matched route pattern.

# Request Logging

Wrap individual handlers with request logging:

	mux.HandleFunc("GET /forum", middleware.WithLogging(forum.List))

Logs request start (method, path, remote, request_id) and completion
(duration_ms).

# CORS

CORS(origins) is applied to the /api/ routes only. Origins outside the
list get no CORS headers.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

	var req models.CreateReportRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Handles X-Forwarded-For and X-Real-IP. Used in request logs.
*/
package middleware
