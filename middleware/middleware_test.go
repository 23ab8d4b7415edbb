// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/campusboard/models"
)

func TestWithLogging(t *testing.T) {
	// Create a simple handler that returns OK
	handlerCalled := false
	testHandler := func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	}

	// Wrap with logging middleware
	wrappedHandler := WithLogging(testHandler)

	// Create test request and recorder
	req := httptest.NewRequest("GET", "/forum?tag=Events", nil)
	w := httptest.NewRecorder()

	// Execute
	wrappedHandler(w, req)

	// Verify handler was called
	if !handlerCalled {
		t.Error("Expected handler to be called")
	}

	// Verify response was written correctly
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "success" {
		t.Errorf("Expected body 'success', got '%s'", w.Body.String())
	}
}

func TestWithLogging_PreservesResponse(t *testing.T) {
	// Test that logging doesn't interfere with various response codes
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"id":"123"}`},
		{"BadRequest", http.StatusBadRequest, `{"error":"bad request"}`},
		{"NotFound", http.StatusNotFound, "not found"},
		{"InternalError", http.StatusInternalServerError, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/api/reports", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "simple struct",
			statusCode: http.StatusOK,
			data:       map[string]string{"message": "hello"},
			expected:   `{"message":"hello"}`,
		},
		{
			name:       "created response",
			statusCode: http.StatusCreated,
			data:       models.CreateReportResponse{ReportID: "abc123"},
			expected:   `{"report_id":"abc123"}`,
		},
		{
			name:       "error response",
			statusCode: http.StatusBadRequest,
			data:       models.ErrorResponse{Error: "Bad Request", Message: "missing field"},
			expected:   `{"error":"Bad Request","message":"missing field"}`,
		},
		{
			name:       "array data",
			statusCode: http.StatusOK,
			data:       []string{"a", "b", "c"},
			expected:   `["a","b","c"]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			JSONResponse(w, tc.statusCode, tc.data)

			// Check status code
			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			// Check Content-Type header
			contentType := w.Header().Get("Content-Type")
			if contentType != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", contentType)
			}

			// Check body (trim newline added by Encode)
			body := strings.TrimSpace(w.Body.String())
			if body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	testCases := []struct {
		name          string
		statusCode    int
		message       string
		expectedError string
	}{
		{
			name:          "bad request",
			statusCode:    http.StatusBadRequest,
			message:       "title is required",
			expectedError: "Bad Request",
		},
		{
			name:          "unauthorized",
			statusCode:    http.StatusUnauthorized,
			message:       "login required",
			expectedError: "Unauthorized",
		},
		{
			name:          "not found",
			statusCode:    http.StatusNotFound,
			message:       "post not found",
			expectedError: "Not Found",
		},
		{
			name:          "conflict",
			statusCode:    http.StatusConflict,
			message:       "report already pending",
			expectedError: "Conflict",
		},
		{
			name:          "internal error",
			statusCode:    http.StatusInternalServerError,
			message:       "database error",
			expectedError: "Internal Server Error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			ErrorResponse(w, tc.statusCode, tc.message)

			// Check status code
			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			// Check Content-Type
			if w.Header().Get("Content-Type") != "application/json" {
				t.Error("Expected Content-Type 'application/json'")
			}

			// Decode and verify error response
			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}

			if resp.Error != tc.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectedError, resp.Error)
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	testCases := []struct {
		name      string
		body      string
		wantErr   bool
		wantID    string
		wantWhy   string
		wantNotes string
	}{
		{"report with details", `{"message_id":"msg-42","reason":"Harassment","details":"third time today"}`, false, "msg-42", "Harassment", "third time today"},
		{"report without details", `{"message_id":"msg-7","reason":"Spam"}`, false, "msg-7", "Spam", ""},
		{"unknown fields ignored", `{"message_id":"msg-9","reason":"Other","channel":"general"}`, false, "msg-9", "Other", ""},
		{"unicode details", `{"message_id":"msg-3","reason":"Hate Speech","details":"見てください"}`, false, "msg-3", "Hate Speech", "見てください"},
		{"form body sent as JSON", "message_id=msg-1&reason=Spam", true, "", "", ""},
		{"truncated object", `{"message_id":"msg-1",`, true, "", "", ""},
		{"empty body", "", true, "", "", ""},
		{"wrong type", `{"message_id":42,"reason":"Spam"}`, true, "", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/reports", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")

			var parsed models.CreateReportRequest
			err := ParseJSONBody(req, &parsed)

			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected error for body %q", tc.body)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if parsed.MessageID != tc.wantID || parsed.Reason != tc.wantWhy || parsed.Details != tc.wantNotes {
				t.Errorf("Unexpected report %+v", parsed)
			}
		})
	}

	t.Run("vote body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/forum/p1/vote", strings.NewReader(`{"vote_type":"down"}`))

		var vote models.VoteForm
		if err := ParseJSONBody(req, &vote); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if vote.VoteType != models.VoteDown {
			t.Errorf("Expected vote_type 'down', got '%s'", vote.VoteType)
		}
	})

	t.Run("body is consumed", func(t *testing.T) {
		body := io.NopCloser(bytes.NewReader([]byte(`{"message_id":"msg-42","reason":"Spam"}`)))
		req := httptest.NewRequest("POST", "/api/reports", body)

		var parsed models.CreateReportRequest
		_ = ParseJSONBody(req, &parsed)

		remaining, _ := io.ReadAll(req.Body)
		if len(remaining) > 0 {
			t.Error("Expected body to be consumed")
		}
	})
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})

	corsHandler := CORS([]string{"http://localhost:5173", "https://campus.example.edu/"})(nextHandler)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/api/reports", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("Expected status 204, got %d", w.Code)
		}
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}
		if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
			t.Error("Expected Access-Control-Allow-Credentials to be 'true'")
		}
	})

	t.Run("trailing slash in config is ignored", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/reports", nil)
		req.Header.Set("Origin", "https://campus.example.edu")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "https://campus.example.edu" {
			t.Error("Expected Access-Control-Allow-Origin to reflect request origin")
		}
	})

	t.Run("unknown origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/reports", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("Expected no Access-Control-Allow-Origin for unknown origin")
		}
		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
	})

	t.Run("allows required methods and headers", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/api/reports", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		allowedMethods := w.Header().Get("Access-Control-Allow-Methods")
		for _, method := range []string{"GET", "POST", "OPTIONS"} {
			if !strings.Contains(allowedMethods, method) {
				t.Errorf("Expected %s in allowed methods", method)
			}
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "Content-Type") {
			t.Error("Expected Content-Type in allowed headers")
		}
	})
}

func TestGetClientIP(t *testing.T) {
	// Campusboard runs behind the campus reverse proxy; chat sockets and
	// report submissions are logged with the first forwarded address
	testCases := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		expectedIP string
	}{
		{"student behind the proxy", "10.20.31.7", "", "172.17.0.1:51234", "10.20.31.7"},
		{"dorm NAT through two proxies", "10.40.2.15, 172.17.0.1", "", "127.0.0.1:40000", "10.40.2.15"},
		{"chain without spaces", "10.40.2.16,172.17.0.1", "", "127.0.0.1:40000", "10.40.2.16"},
		{"nginx real IP only", "", "10.20.31.8", "172.17.0.1:51234", "10.20.31.8"},
		{"forwarded wins over real IP", "10.20.31.9", "10.99.99.99", "172.17.0.1:51234", "10.20.31.9"},
		{"direct connection on the lab network", "", "", "192.168.50.23:60111", "192.168.50.23"},
		{"direct connection without port", "", "", "192.168.50.23", "192.168.50.23"},
		{"IPv6 loopback from a dev machine", "", "", "[::1]:3318", "[::1]"},
		{"IPv6 campus Wi-Fi client", "2001:db8:ca:1::42", "", "127.0.0.1:40000", "2001:db8:ca:1::42"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws/general", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}

			if got := GetClientIP(req); got != tc.expectedIP {
				t.Errorf("Expected IP '%s', got '%s'", tc.expectedIP, got)
			}
		})
	}
}
