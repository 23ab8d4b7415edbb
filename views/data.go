// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package views

import "github.com/danielhkuo/campusboard/models"

// Page payloads, one per template

type ChannelList struct {
	Channels []string
}

type ChatLine struct {
	models.Message
	IsOwn bool
}

type ChannelData struct {
	Channel  string
	Messages []ChatLine
	Polls    []PollView
	Reasons  []string
}

type PollView struct {
	models.Poll
	Active bool
	Total  int
}

type PollsData struct {
	Channel string
	Polls   []PollView
}

type ForumData struct {
	Posts []models.ForumPost
	Tags  []string
	Tag   string
	Sort  string
}

type PostData struct {
	Post     *models.ForumPost
	Comments []*models.ForumComment
	IsAuthor bool
}

type NewPostData struct {
	Tags  []string
	Title string
	Body  string
	Tag   string
}

type AuthData struct {
	Username string
}

type ProfileData struct {
	Stats *models.UserStats
}

type LeaderboardData struct {
	Entries []models.UserStats
}

type ReportsData struct {
	Reports []models.Report
}
