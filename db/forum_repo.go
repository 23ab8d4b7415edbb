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

// Post list orderings
const (
	SortNew   = "new"
	SortTop   = "top"
	SortViews = "views"
)

const (
	postUpvotesExpr   = `(SELECT COUNT(*) FROM post_votes v WHERE v.post_id = p.id AND v.vote_type = 'up')`
	postDownvotesExpr = `(SELECT COUNT(*) FROM post_votes v WHERE v.post_id = p.id AND v.vote_type = 'down')`

	// The viewer ID is the first bind parameter of every post query
	postSelect = `
		SELECT p.id, p.title, p.content, p.tag, p.views, p.author_id, u.username AS author_username, p.created_at,
		       ` + postUpvotesExpr + ` AS upvotes,
		       ` + postDownvotesExpr + ` AS downvotes,
		       (SELECT COUNT(*) FROM forum_comments c WHERE c.post_id = p.id) AS comment_count,
		       (SELECT v.vote_type FROM post_votes v WHERE v.post_id = p.id AND v.user_id = ?) AS user_vote
		FROM forum_posts p
		JOIN users u ON u.id = p.author_id
	`

	commentSelect = `
		SELECT c.id, c.content, c.post_id, c.parent_id, c.author_id, u.username AS author_username, c.created_at,
		       (SELECT COUNT(*) FROM comment_votes v WHERE v.comment_id = c.id AND v.vote_type = 'up') AS upvotes,
		       (SELECT COUNT(*) FROM comment_votes v WHERE v.comment_id = c.id AND v.vote_type = 'down') AS downvotes,
		       (SELECT v.vote_type FROM comment_votes v WHERE v.comment_id = c.id AND v.user_id = ?) AS user_vote
		FROM forum_comments c
		JOIN users u ON u.id = c.author_id
	`
)

// PostFilter narrows and orders ListPosts
type PostFilter struct {
	Tag      string
	Sort     string
	ViewerID string
	Limit    int
}

func (repo *Repository) CreatePost(ctx context.Context, authorID, title, content, tag string) (*models.ForumPost, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	query := repo.dbConn.Rebind(`
		INSERT INTO forum_posts (id, title, content, tag, views, author_id, created_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`)
	_, err = repo.dbConn.ExecContext(ctx, query, id, title, content, tag, authorID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}
	return repo.GetPost(ctx, id, authorID)
}

// GetPost loads a post with its scores and the viewer's own vote
func (repo *Repository) GetPost(ctx context.Context, id, viewerID string) (*models.ForumPost, error) {
	var post models.ForumPost
	query := repo.dbConn.Rebind(postSelect + ` WHERE p.id = ?`)
	err := repo.dbConn.GetContext(ctx, &post, query, viewerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting post %s: %w", id, err)
	}
	return &post, nil
}

func (repo *Repository) ListPosts(ctx context.Context, f PostFilter) ([]models.ForumPost, error) {
	query := postSelect
	args := []interface{}{f.ViewerID}

	if f.Tag != "" {
		query += ` WHERE p.tag = ?`
		args = append(args, f.Tag)
	}

	switch f.Sort {
	case SortTop:
		query += ` ORDER BY (` + postUpvotesExpr + ` - ` + postDownvotesExpr + `) DESC, p.created_at DESC`
	case SortViews:
		query += ` ORDER BY p.views DESC, p.created_at DESC`
	default:
		query += ` ORDER BY p.created_at DESC`
	}

	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	posts := []models.ForumPost{}
	if err := repo.dbConn.SelectContext(ctx, &posts, repo.dbConn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// DeletePost removes a post; comments, votes and views cascade
func (repo *Repository) DeletePost(ctx context.Context, id string) error {
	query := repo.dbConn.Rebind(`DELETE FROM forum_posts WHERE id = ?`)
	res, err := repo.dbConn.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting post %s: %w", id, err)
	}
	return expectRow(res)
}

// RecordView counts the first visit of a user to a post. Returns true
// when the view was new.
func (repo *Repository) RecordView(ctx context.Context, postID, userID string) (bool, error) {
	tx, err := repo.dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var seen int
	err = tx.GetContext(ctx, &seen, tx.Rebind(`SELECT COUNT(*) FROM post_views WHERE post_id = ? AND user_id = ?`), postID, userID)
	if err != nil {
		return false, fmt.Errorf("checking view: %w", err)
	}
	if seen > 0 {
		return false, nil
	}

	id, err := newID()
	if err != nil {
		return false, err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO post_views (id, post_id, user_id, viewed_at) VALUES (?, ?, ?, ?)`),
		id, postID, userID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("inserting view: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE forum_posts SET views = views + 1 WHERE id = ?`), postID)
	if err != nil {
		return false, fmt.Errorf("incrementing views: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing view: %w", err)
	}
	return true, nil
}

// CreateComment adds a comment to a post. parentID, when set, must name
// a comment on the same post; otherwise ErrNotFound is returned.
func (repo *Repository) CreateComment(ctx context.Context, postID, authorID, content string, parentID *string) (*models.ForumComment, error) {
	if parentID != nil {
		var count int
		query := repo.dbConn.Rebind(`SELECT COUNT(*) FROM forum_comments WHERE id = ? AND post_id = ?`)
		if err := repo.dbConn.GetContext(ctx, &count, query, *parentID, postID); err != nil {
			return nil, fmt.Errorf("checking parent comment: %w", err)
		}
		if count == 0 {
			return nil, ErrNotFound
		}
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	query := repo.dbConn.Rebind(`
		INSERT INTO forum_comments (id, content, post_id, parent_id, author_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err = repo.dbConn.ExecContext(ctx, query, id, content, postID, parentID, authorID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}
	return repo.GetComment(ctx, id, authorID)
}

func (repo *Repository) GetComment(ctx context.Context, id, viewerID string) (*models.ForumComment, error) {
	var comment models.ForumComment
	query := repo.dbConn.Rebind(commentSelect + ` WHERE c.id = ?`)
	err := repo.dbConn.GetContext(ctx, &comment, query, viewerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting comment %s: %w", id, err)
	}
	return &comment, nil
}

// ListCommentTree returns the top-level comments of a post with replies
// nested beneath their parents, each level ordered by creation time
func (repo *Repository) ListCommentTree(ctx context.Context, postID, viewerID string) ([]*models.ForumComment, error) {
	query := repo.dbConn.Rebind(commentSelect + ` WHERE c.post_id = ? ORDER BY c.created_at, c.id`)
	var flat []*models.ForumComment
	if err := repo.dbConn.SelectContext(ctx, &flat, query, viewerID, postID); err != nil {
		return nil, fmt.Errorf("listing comments for %s: %w", postID, err)
	}

	byID := make(map[string]*models.ForumComment, len(flat))
	for _, c := range flat {
		c.Replies = []*models.ForumComment{}
		byID[c.ID] = c
	}

	roots := []*models.ForumComment{}
	for _, c := range flat {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots, nil
}

// VotePost toggles a user's vote on a post: a new vote is added, the same
// vote again is removed, the opposite vote replaces the old one
func (repo *Repository) VotePost(ctx context.Context, postID, userID, voteType string) (*models.VoteResponse, error) {
	return repo.toggleVote(ctx, voteTarget{
		table:     "post_votes",
		column:    "post_id",
		itemTable: "forum_posts",
	}, postID, userID, voteType)
}

// VoteComment toggles a user's vote on a comment, like VotePost
func (repo *Repository) VoteComment(ctx context.Context, commentID, userID, voteType string) (*models.VoteResponse, error) {
	return repo.toggleVote(ctx, voteTarget{
		table:     "comment_votes",
		column:    "comment_id",
		itemTable: "forum_comments",
	}, commentID, userID, voteType)
}

type voteTarget struct {
	table     string
	column    string
	itemTable string
}

func (repo *Repository) toggleVote(ctx context.Context, t voteTarget, itemID, userID, voteType string) (*models.VoteResponse, error) {
	tx, err := repo.dbConn.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, tx.Rebind(`SELECT COUNT(*) FROM `+t.itemTable+` WHERE id = ?`), itemID)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", t.itemTable, err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	var current string
	err = tx.GetContext(ctx, &current,
		tx.Rebind(`SELECT vote_type FROM `+t.table+` WHERE `+t.column+` = ? AND user_id = ?`), itemID, userID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		id, err := newID()
		if err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO `+t.table+` (id, `+t.column+`, user_id, vote_type, created_at) VALUES (?, ?, ?, ?, ?)`),
			id, itemID, userID, voteType, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("inserting vote: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("reading vote: %w", err)
	case current == voteType:
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`DELETE FROM `+t.table+` WHERE `+t.column+` = ? AND user_id = ?`), itemID, userID)
		if err != nil {
			return nil, fmt.Errorf("removing vote: %w", err)
		}
	default:
		_, err = tx.ExecContext(ctx,
			tx.Rebind(`UPDATE `+t.table+` SET vote_type = ? WHERE `+t.column+` = ? AND user_id = ?`), voteType, itemID, userID)
		if err != nil {
			return nil, fmt.Errorf("switching vote: %w", err)
		}
	}

	result, err := voteTally(ctx, tx, t, itemID, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing vote: %w", err)
	}
	return result, nil
}

func voteTally(ctx context.Context, tx *sqlx.Tx, t voteTarget, itemID, userID string) (*models.VoteResponse, error) {
	result := &models.VoteResponse{ID: itemID}

	query := tx.Rebind(`
		SELECT
		    COALESCE(SUM(CASE WHEN vote_type = 'up' THEN 1 ELSE 0 END), 0),
		    COALESCE(SUM(CASE WHEN vote_type = 'down' THEN 1 ELSE 0 END), 0)
		FROM ` + t.table + ` WHERE ` + t.column + ` = ?`)
	if err := tx.QueryRowxContext(ctx, query, itemID).Scan(&result.Upvotes, &result.Downvotes); err != nil {
		return nil, fmt.Errorf("tallying votes: %w", err)
	}
	result.Score = result.Upvotes - result.Downvotes

	var mine string
	err := tx.GetContext(ctx, &mine,
		tx.Rebind(`SELECT vote_type FROM `+t.table+` WHERE `+t.column+` = ? AND user_id = ?`), itemID, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("reading vote: %w", err)
	default:
		result.UserVote = &mine
	}
	return result, nil
}
