// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/danielhkuo/campusboard/models"
)

// CreateReport files a moderation report against a chat message. Returns
// ErrNotFound for an unknown message and ErrDuplicateReport when the
// reporter already has a pending report on it.
func (repo *Repository) CreateReport(ctx context.Context, messageID, reporterID, reason string, details *string) (string, error) {
	tx, err := repo.dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, tx.Rebind(`SELECT COUNT(*) FROM messages WHERE id = ?`), messageID); err != nil {
		return "", fmt.Errorf("checking message %s: %w", messageID, err)
	}
	if count == 0 {
		return "", ErrNotFound
	}

	err = tx.GetContext(ctx, &count, tx.Rebind(`
		SELECT COUNT(*) FROM reports WHERE message_id = ? AND reporter_id = ? AND status = ?
	`), messageID, reporterID, models.ReportPending)
	if err != nil {
		return "", fmt.Errorf("checking pending reports: %w", err)
	}
	if count > 0 {
		return "", ErrDuplicateReport
	}

	id, err := newID()
	if err != nil {
		return "", err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO reports (id, message_id, reporter_id, reason, details, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), id, messageID, reporterID, reason, details, models.ReportPending, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("inserting report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing report: %w", err)
	}
	return id, nil
}

// ListPendingReports returns open reports, oldest first, with the reported
// message and both usernames attached
func (repo *Repository) ListPendingReports(ctx context.Context) ([]models.Report, error) {
	query := repo.dbConn.Rebind(`
		SELECT r.id, r.message_id, r.reporter_id, r.reason, r.details, r.status, r.created_at,
		       m.content AS message_content, m.channel AS message_channel,
		       author.username AS message_author, reporter.username AS reporter_username
		FROM reports r
		JOIN messages m ON m.id = r.message_id
		JOIN users author ON author.id = m.user_id
		JOIN users reporter ON reporter.id = r.reporter_id
		WHERE r.status = ?
		ORDER BY r.created_at, r.id
	`)

	reports := []models.Report{}
	if err := repo.dbConn.SelectContext(ctx, &reports, query, models.ReportPending); err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

func (repo *Repository) UpdateReportStatus(ctx context.Context, id, status string) error {
	query := repo.dbConn.Rebind(`UPDATE reports SET status = ? WHERE id = ?`)
	res, err := repo.dbConn.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("updating report %s: %w", id, err)
	}
	return expectRow(res)
}
