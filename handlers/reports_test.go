// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/danielhkuo/campusboard/models"
	"github.com/danielhkuo/campusboard/testutil"
)

func TestCreateReport(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReportHandler(env.repo, env.cfg, renderer)
	alice := testutil.CreateTestUser(t, env.repo, "alice")
	bob := testutil.CreateTestUser(t, env.repo, "bob")
	msg := testutil.CreateTestMessage(t, env.repo, bob.ID, "general", "buy now")

	testCases := []struct {
		name         string
		body         interface{}
		anonymous    bool
		expectStatus int
	}{
		{"anonymous", models.CreateReportRequest{MessageID: msg.ID, Reason: "Spam"}, true, http.StatusUnauthorized},
		{"invalid json", "not an object", false, http.StatusBadRequest},
		{"unknown reason", models.CreateReportRequest{MessageID: msg.ID, Reason: "Boring"}, false, http.StatusBadRequest},
		{"missing message id", models.CreateReportRequest{Reason: "Spam"}, false, http.StatusBadRequest},
		{"unknown message", models.CreateReportRequest{MessageID: "nope", Reason: "Spam"}, false, http.StatusNotFound},
		{"created", models.CreateReportRequest{MessageID: msg.ID, Reason: "Spam", Details: "ads"}, false, http.StatusCreated},
		{"duplicate pending", models.CreateReportRequest{MessageID: msg.ID, Reason: "Other"}, false, http.StatusConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/api/reports", tc.body, nil)
			if !tc.anonymous {
				req = asUser(req, alice)
			}
			w := httptest.NewRecorder()

			handler.CreateReport(w, req)

			testutil.AssertStatus(t, w, tc.expectStatus)
			if tc.expectStatus == http.StatusCreated {
				var resp models.CreateReportResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.ReportID == "" {
					t.Error("Expected report_id")
				}
			}
		})
	}
}

func TestReportQueue(t *testing.T) {
	env := newTestEnv(t)
	handler := NewReportHandler(env.repo, env.cfg, renderer)
	alice := testutil.CreateTestUser(t, env.repo, "alice")
	mod := testutil.CreateTestUser(t, env.repo, "moderator")
	msg := testutil.CreateTestMessage(t, env.repo, alice.ID, "general", "offensive words")

	reportID, err := env.repo.CreateReport(context.Background(), msg.ID, mod.ID, "Harassment", nil)
	if err != nil {
		t.Fatalf("Failed to seed report: %v", err)
	}

	t.Run("list requires moderator", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListReports(w, httptest.NewRequest("GET", "/reports", nil))
		assertRedirect(t, w, http.StatusFound, "/login")

		w = httptest.NewRecorder()
		handler.ListReports(w, asUser(httptest.NewRequest("GET", "/reports", nil), alice))
		testutil.AssertStatus(t, w, http.StatusForbidden)
	})

	t.Run("moderator sees pending", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListReports(w, asUser(httptest.NewRequest("GET", "/reports", nil), mod))
		testutil.AssertStatus(t, w, http.StatusOK)
		if !strings.Contains(w.Body.String(), "offensive words") {
			t.Error("Expected reported message text")
		}
	})

	resolve := func(id, status string, user *models.User) *httptest.ResponseRecorder {
		req := testutil.MakeFormRequest("POST", "/reports/"+id+"/resolve", url.Values{"status": {status}})
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.ResolveReport(w, asUser(req, user))
		return w
	}

	t.Run("resolve", func(t *testing.T) {
		testutil.AssertStatus(t, resolve(reportID, "resolved", alice), http.StatusForbidden)
		testutil.AssertStatus(t, resolve(reportID, "pending", mod), http.StatusBadRequest)
		testutil.AssertStatus(t, resolve("nope", "dismissed", mod), http.StatusNotFound)
		assertRedirect(t, resolve(reportID, "dismissed", mod), http.StatusSeeOther, "/reports")

		pending, err := env.repo.ListPendingReports(context.Background())
		if err != nil {
			t.Fatalf("Failed to list reports: %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("Expected empty queue, got %d", len(pending))
		}
	})
}
