// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/campusboard/models"
)

const messageSelect = `
	SELECT m.id, m.content, m.channel, m.user_id, u.username, m.parent_message_id, m.created_at,
	       pm.content AS parent_content, pu.username AS parent_username
	FROM messages m
	JOIN users u ON u.id = m.user_id
	LEFT JOIN messages pm ON pm.id = m.parent_message_id
	LEFT JOIN users pu ON pu.id = pm.user_id
`

// CreateMessage persists a chat message and returns it with author and
// parent details filled in. A parent that does not exist in the same
// channel is dropped and the message is stored top-level.
func (repo *Repository) CreateMessage(ctx context.Context, userID, channel, content string, parentID *string) (*models.Message, error) {
	if parentID != nil {
		var count int
		query := repo.dbConn.Rebind(`SELECT COUNT(*) FROM messages WHERE id = ? AND channel = ?`)
		if err := repo.dbConn.GetContext(ctx, &count, query, *parentID, channel); err != nil {
			return nil, fmt.Errorf("checking parent message: %w", err)
		}
		if count == 0 {
			parentID = nil
		}
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	query := repo.dbConn.Rebind(`
		INSERT INTO messages (id, content, channel, user_id, parent_message_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err = repo.dbConn.ExecContext(ctx, query, id, content, channel, userID, parentID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	return repo.GetMessage(ctx, id)
}

func (repo *Repository) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	query := repo.dbConn.Rebind(messageSelect + ` WHERE m.id = ?`)
	err := repo.dbConn.GetContext(ctx, &msg, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting message %s: %w", id, err)
	}
	return &msg, nil
}

// ListChannelMessages returns a channel's history, oldest first
func (repo *Repository) ListChannelMessages(ctx context.Context, channel string) ([]models.Message, error) {
	query := repo.dbConn.Rebind(messageSelect + ` WHERE m.channel = ? ORDER BY m.created_at, m.id`)
	messages := []models.Message{}
	if err := repo.dbConn.SelectContext(ctx, &messages, query, channel); err != nil {
		return nil, fmt.Errorf("listing messages for %s: %w", channel, err)
	}
	return messages, nil
}

// ListChannels returns distinct channel names that carry messages or
// polls, sorted. A limit of zero returns all of them.
func (repo *Repository) ListChannels(ctx context.Context, limit int) ([]string, error) {
	query := `SELECT channel FROM messages UNION SELECT channel FROM polls ORDER BY channel`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	channels := []string{}
	if err := repo.dbConn.SelectContext(ctx, &channels, repo.dbConn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	return channels, nil
}
