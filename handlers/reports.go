// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/campusboard/cliparse"
	"github.com/danielhkuo/campusboard/db"
	"github.com/danielhkuo/campusboard/middleware"
	"github.com/danielhkuo/campusboard/models"
	"github.com/danielhkuo/campusboard/views"
)

type ReportHandler struct {
	base
}

func NewReportHandler(repo *db.Repository, cfg cliparse.Config, v *views.Renderer) *ReportHandler {
	return &ReportHandler{base: base{repo: repo, cfg: cfg, views: v}}
}

// requireModerator renders 403 for signed-in users outside the
// moderator list and redirects anonymous ones to the login page
func (h *ReportHandler) requireModerator(w http.ResponseWriter, r *http.Request) *models.User {
	user := requireUser(w, r)
	if user == nil {
		return nil
	}
	if !h.cfg.IsModerator(user.Username) {
		h.renderError(w, r, http.StatusForbidden, "Moderators only")
		return nil
	}
	return user
}

// CreateReport handles POST /api/reports
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	user := requireUserJSON(w, r)
	if user == nil {
		return
	}

	var req models.CreateReportRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.MessageID = strings.TrimSpace(req.MessageID)
	req.Details = strings.TrimSpace(req.Details)

	if err := models.Validate(req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	reportID, err := h.repo.CreateReport(r.Context(), req.MessageID, user.ID, req.Reason, optionalString(req.Details))
	switch {
	case errors.Is(err, db.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Message not found")
		return
	case errors.Is(err, db.ErrDuplicateReport):
		middleware.ErrorResponse(w, http.StatusConflict, "You have already reported this message")
		return
	case err != nil:
		slog.Error("failed to insert report", "message_id", req.MessageID, "reporter_id", user.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create report")
		return
	}

	slog.Info("report created", "report_id", reportID, "message_id", req.MessageID, "reason", req.Reason)
	middleware.JSONResponse(w, http.StatusCreated, models.CreateReportResponse{ReportID: reportID})
}

// ListReports handles GET /reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	if h.requireModerator(w, r) == nil {
		return
	}

	reports, err := h.repo.ListPendingReports(r.Context())
	if err != nil {
		slog.Error("failed to list reports", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to load reports")
		return
	}
	h.render(w, r, http.StatusOK, "reports", "Reports", views.ReportsData{Reports: reports})
}

// ResolveReport handles POST /reports/{id}/resolve
func (h *ReportHandler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	user := h.requireModerator(w, r)
	if user == nil {
		return
	}

	reportID := r.PathValue("id")
	form := models.ResolveReportForm{Status: strings.TrimSpace(r.FormValue("status"))}
	if err := models.Validate(form); err != nil {
		h.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	err := h.repo.UpdateReportStatus(r.Context(), reportID, form.Status)
	if errors.Is(err, db.ErrNotFound) {
		h.renderError(w, r, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		slog.Error("failed to update report", "report_id", reportID, "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Failed to update report")
		return
	}

	slog.Info("report resolved", "report_id", reportID, "status", form.Status, "moderator_id", user.ID)
	seeOther(w, r, "/reports")
}
