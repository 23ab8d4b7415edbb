package models

import "time"

// DefaultChannel is where users land after login
const DefaultChannel = "general"

// Vote types for posts and comments
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Report status constants
const (
	ReportPending   = "pending"
	ReportResolved  = "resolved"
	ReportDismissed = "dismissed"
)

// PostTags lists every forum tag in display order
var PostTags = []string{
	"Education",
	"Technology",
	"Programming",
	"Career",
	"Campus Life",
	"Events",
	"Projects",
	"Internships",
	"Academics",
	"General",
}

// DefaultTag is applied when a post is created without one
const DefaultTag = "General"

// ReportReasons lists every accepted moderation reason
var ReportReasons = []string{
	"Harassment",
	"Spam",
	"Inappropriate Content",
	"Hate Speech",
	"Other",
}

// IsPostTag reports whether tag is a known forum tag
func IsPostTag(tag string) bool {
	return contains(PostTags, tag)
}

// IsReportReason reports whether reason is a known report reason
func IsReportReason(reason string) bool {
	return contains(ReportReasons, reason)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Domain types

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"` // Never expose in JSON
	Email        *string   `db:"email" json:"email,omitempty"`
	Bio          *string   `db:"bio" json:"bio,omitempty"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserStats carries activity counts alongside a user
type UserStats struct {
	User
	MessageCount int `db:"message_count" json:"message_count"`
	PostCount    int `db:"post_count" json:"post_count"`
	CommentCount int `db:"comment_count" json:"comment_count"`
}

// TotalInteractions is messages + posts + comments
func (s UserStats) TotalInteractions() int {
	return s.MessageCount + s.PostCount + s.CommentCount
}

type Message struct {
	ID              string    `db:"id" json:"id"`
	Content         string    `db:"content" json:"content"`
	Channel         string    `db:"channel" json:"channel"`
	UserID          string    `db:"user_id" json:"user_id"`
	Username        string    `db:"username" json:"username"`
	ParentMessageID *string   `db:"parent_message_id" json:"parent_message_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`

	// Filled from a join when the message is a reply
	ParentContent  *string `db:"parent_content" json:"-"`
	ParentUsername *string `db:"parent_username" json:"-"`
}

// Parent returns a summary of the replied-to message, or nil
func (m Message) Parent() *ParentSummary {
	if m.ParentMessageID == nil || m.ParentContent == nil || m.ParentUsername == nil {
		return nil
	}
	return &ParentSummary{
		ID:       *m.ParentMessageID,
		Content:  *m.ParentContent,
		Username: *m.ParentUsername,
	}
}

type ParentSummary struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Username string `json:"username"`
}

type ForumPost struct {
	ID             string    `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Content        string    `db:"content" json:"content"`
	Tag            string    `db:"tag" json:"tag"`
	Views          int       `db:"views" json:"views"`
	AuthorID       string    `db:"author_id" json:"author_id"`
	AuthorUsername string    `db:"author_username" json:"author_username"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	Upvotes        int       `db:"upvotes" json:"upvotes"`
	Downvotes      int       `db:"downvotes" json:"downvotes"`
	CommentCount   int       `db:"comment_count" json:"comment_count"`
	UserVote       *string   `db:"user_vote" json:"user_vote"`
}

func (p ForumPost) Score() int {
	return p.Upvotes - p.Downvotes
}

type ForumComment struct {
	ID             string    `db:"id" json:"id"`
	Content        string    `db:"content" json:"content"`
	PostID         string    `db:"post_id" json:"post_id"`
	ParentID       *string   `db:"parent_id" json:"parent_id,omitempty"`
	AuthorID       string    `db:"author_id" json:"author_id"`
	AuthorUsername string    `db:"author_username" json:"author_username"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	Upvotes        int       `db:"upvotes" json:"upvotes"`
	Downvotes      int       `db:"downvotes" json:"downvotes"`
	UserVote       *string   `db:"user_vote" json:"user_vote"`

	Replies []*ForumComment `db:"-" json:"replies"`
}

func (c ForumComment) Score() int {
	return c.Upvotes - c.Downvotes
}

type Poll struct {
	ID              string     `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	Description     *string    `db:"description" json:"description,omitempty"`
	Channel         string     `db:"channel" json:"channel"`
	CreatorID       string     `db:"creator_id" json:"creator_id"`
	CreatorUsername string     `db:"creator_username" json:"creator_username"`
	EndsAt          *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`

	Options  []PollOption `db:"-" json:"options"`
	UserVote *string      `db:"-" json:"user_vote"`
}

// IsActive reports whether the poll is still running at now
func (p Poll) IsActive(now time.Time) bool {
	return p.EndsAt == nil || now.Before(*p.EndsAt)
}

// AcceptsVotes reports whether a vote cast at now lands inside the
// voting window, which extends grace past EndsAt
func (p Poll) AcceptsVotes(now time.Time, grace time.Duration) bool {
	return p.EndsAt == nil || !now.After(p.EndsAt.Add(grace))
}

func (p Poll) TotalVotes() int {
	total := 0
	for _, o := range p.Options {
		total += o.VotesCount
	}
	return total
}

type PollOption struct {
	ID         string `db:"id" json:"id"`
	PollID     string `db:"poll_id" json:"-"`
	Text       string `db:"text" json:"text"`
	SortOrder  int    `db:"sort_order" json:"-"`
	VotesCount int    `db:"votes_count" json:"votes_count"`
}

type Report struct {
	ID               string    `db:"id" json:"id"`
	MessageID        string    `db:"message_id" json:"message_id"`
	ReporterID       string    `db:"reporter_id" json:"reporter_id"`
	Reason           string    `db:"reason" json:"reason"`
	Details          *string   `db:"details" json:"details,omitempty"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	MessageContent   string    `db:"message_content" json:"message_content"`
	MessageChannel   string    `db:"message_channel" json:"message_channel"`
	MessageAuthor    string    `db:"message_author" json:"message_author"`
	ReporterUsername string    `db:"reporter_username" json:"reporter_username"`
}

// Chat wire types

// ChatInbound is a frame sent by a chat client
type ChatInbound struct {
	Content         string  `json:"content"`
	ParentMessageID *string `json:"parent_message_id"`
}

// ChatMessage is the serialized copy pushed to every socket of a channel
type ChatMessage struct {
	ID            string         `json:"id"`
	Content       string         `json:"content"`
	Username      string         `json:"username"`
	Channel       string         `json:"channel"`
	Timestamp     string         `json:"timestamp"`
	ParentMessage *ParentSummary `json:"parent_message"`
}

// TimestampLayout is the display and wire format for message times
const TimestampLayout = "2006-01-02 15:04:05"

// NewChatMessage converts a stored message to its wire form
func NewChatMessage(m Message) ChatMessage {
	return ChatMessage{
		ID:            m.ID,
		Content:       m.Content,
		Username:      m.Username,
		Channel:       m.Channel,
		Timestamp:     m.CreatedAt.UTC().Format(TimestampLayout),
		ParentMessage: m.Parent(),
	}
}

// Response types

type OptionCount struct {
	ID         string `json:"id"`
	VotesCount int    `json:"votes_count"`
}

type PollVoteResponse struct {
	PollID     string        `json:"poll_id"`
	Options    []OptionCount `json:"options"`
	TotalVotes int           `json:"total_votes"`
	UserVote   *string       `json:"user_vote"`
}

type VoteResponse struct {
	ID        string  `json:"id"`
	Upvotes   int     `json:"upvotes"`
	Downvotes int     `json:"downvotes"`
	Score     int     `json:"score"`
	UserVote  *string `json:"user_vote"`
}

type GenerateUsernameResponse struct {
	Username string `json:"username"`
}

type CreateReportResponse struct {
	ReportID string `json:"report_id"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
