// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/campusboard/models"
)

const pollSelect = `
	SELECT p.id, p.title, p.description, p.channel, p.creator_id, u.username AS creator_username, p.ends_at, p.created_at
	FROM polls p
	JOIN users u ON u.id = p.creator_id
`

const optionSelect = `
	SELECT o.id, o.poll_id, o.text, o.sort_order,
	       (SELECT COUNT(*) FROM poll_votes v WHERE v.option_id = o.id) AS votes_count
	FROM poll_options o
`

// CreatePoll inserts a poll and its options in one transaction. Options
// keep the order they were given in.
func (repo *Repository) CreatePoll(ctx context.Context, creatorID, channel, title string, description *string, endsAt *time.Time, options []string) (*models.Poll, error) {
	pollID, err := newID()
	if err != nil {
		return nil, err
	}

	tx, err := repo.dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if endsAt != nil {
		utc := endsAt.UTC()
		endsAt = &utc
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO polls (id, title, description, channel, creator_id, ends_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), pollID, title, description, channel, creatorID, endsAt, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("inserting poll: %w", err)
	}

	insertOption := tx.Rebind(`INSERT INTO poll_options (id, poll_id, text, sort_order) VALUES (?, ?, ?, ?)`)
	for i, text := range options {
		optionID, err := newID()
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, insertOption, optionID, pollID, text, i); err != nil {
			return nil, fmt.Errorf("inserting poll option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing poll: %w", err)
	}
	return repo.GetPoll(ctx, pollID, creatorID)
}

// GetPoll loads a poll with its options, their counts and the viewer's vote
func (repo *Repository) GetPoll(ctx context.Context, id, viewerID string) (*models.Poll, error) {
	var poll models.Poll
	err := repo.dbConn.GetContext(ctx, &poll, repo.dbConn.Rebind(pollSelect+` WHERE p.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting poll %s: %w", id, err)
	}

	if err := repo.fillPoll(ctx, &poll, viewerID); err != nil {
		return nil, err
	}
	return &poll, nil
}

// ListChannelPolls returns the polls of a channel, newest first
func (repo *Repository) ListChannelPolls(ctx context.Context, channel, viewerID string) ([]models.Poll, error) {
	polls := []models.Poll{}
	query := repo.dbConn.Rebind(pollSelect + ` WHERE p.channel = ? ORDER BY p.created_at DESC, p.id`)
	if err := repo.dbConn.SelectContext(ctx, &polls, query, channel); err != nil {
		return nil, fmt.Errorf("listing polls for %s: %w", channel, err)
	}

	for i := range polls {
		if err := repo.fillPoll(ctx, &polls[i], viewerID); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

func (repo *Repository) fillPoll(ctx context.Context, poll *models.Poll, viewerID string) error {
	options, err := pollOptions(ctx, repo.dbConn, poll.ID)
	if err != nil {
		return err
	}
	poll.Options = options

	if viewerID == "" {
		return nil
	}
	vote, err := userPollVote(ctx, repo.dbConn, poll.ID, viewerID)
	if err != nil {
		return err
	}
	poll.UserVote = vote
	return nil
}

// GetPollOption returns ErrNotFound unless the option belongs to the poll
func (repo *Repository) GetPollOption(ctx context.Context, pollID, optionID string) (*models.PollOption, error) {
	var option models.PollOption
	query := repo.dbConn.Rebind(optionSelect + ` WHERE o.id = ? AND o.poll_id = ?`)
	err := repo.dbConn.GetContext(ctx, &option, query, optionID, pollID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting poll option %s: %w", optionID, err)
	}
	return &option, nil
}

// CastPollVote toggles a user's poll choice: with no vote the option is
// chosen, choosing the current option again withdraws the vote, and any
// other option moves it. Returns the fresh tally.
func (repo *Repository) CastPollVote(ctx context.Context, pollID, optionID, userID string) (*models.PollVoteResponse, error) {
	tx, err := repo.dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := userPollVote(ctx, tx, pollID, userID)
	if err != nil {
		return nil, err
	}

	switch {
	case current == nil:
		id, err := newID()
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO poll_votes (id, poll_id, option_id, user_id, created_at) VALUES (?, ?, ?, ?, ?)
		`), id, pollID, optionID, userID, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("inserting poll vote: %w", err)
		}
	case *current == optionID:
		_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM poll_votes WHERE poll_id = ? AND user_id = ?`), pollID, userID)
		if err != nil {
			return nil, fmt.Errorf("removing poll vote: %w", err)
		}
	default:
		_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE poll_votes SET option_id = ? WHERE poll_id = ? AND user_id = ?`),
			optionID, pollID, userID)
		if err != nil {
			return nil, fmt.Errorf("moving poll vote: %w", err)
		}
	}

	options, err := pollOptions(ctx, tx, pollID)
	if err != nil {
		return nil, err
	}
	vote, err := userPollVote(ctx, tx, pollID, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing poll vote: %w", err)
	}

	resp := &models.PollVoteResponse{
		PollID:   pollID,
		Options:  make([]models.OptionCount, 0, len(options)),
		UserVote: vote,
	}
	for _, o := range options {
		resp.Options = append(resp.Options, models.OptionCount{ID: o.ID, VotesCount: o.VotesCount})
		resp.TotalVotes += o.VotesCount
	}
	return resp, nil
}

func pollOptions(ctx context.Context, q sqlx.ExtContext, pollID string) ([]models.PollOption, error) {
	options := []models.PollOption{}
	query := q.Rebind(optionSelect + ` WHERE o.poll_id = ? ORDER BY o.sort_order, o.id`)
	if err := sqlx.SelectContext(ctx, q, &options, query, pollID); err != nil {
		return nil, fmt.Errorf("listing options for poll %s: %w", pollID, err)
	}
	return options, nil
}

func userPollVote(ctx context.Context, q sqlx.ExtContext, pollID, userID string) (*string, error) {
	var optionID string
	query := q.Rebind(`SELECT option_id FROM poll_votes WHERE poll_id = ? AND user_id = ?`)
	err := sqlx.GetContext(ctx, q, &optionID, query, pollID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading poll vote: %w", err)
	}
	return &optionID, nil
}
