// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// Request types. Form-backed types carry `form` tags naming the field in
// the submitted form; validation messages use the same names.

type RegisterForm struct {
	Username string `form:"username" validate:"required,min=2,max=50,username"`
	Password string `form:"password" validate:"required,min=6,bcryptlen"`
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type CreatePostForm struct {
	Title   string `form:"title" validate:"required,max=200"`
	Content string `form:"content" validate:"required,max=20000"`
	Tag     string `form:"tag" validate:"posttag"`
}

type CommentForm struct {
	Content  string `form:"content" validate:"required,max=5000"`
	ParentID string `form:"parent_id"`
}

type VoteForm struct {
	VoteType string `form:"vote_type" json:"vote_type" validate:"required,oneof=up down"`
}

type CreatePollForm struct {
	Title         string   `form:"title" validate:"required,max=200"`
	Description   string   `form:"description" validate:"max=2000"`
	DurationHours *int     `form:"duration_hours" validate:"omitempty,gt=0,lte=8760"`
	Options       []string `form:"options" validate:"min=2,max=20,dive,required,max=200"`
}

type ProfileForm struct {
	Email     string `form:"email" validate:"omitempty,email,max=254"`
	Bio       string `form:"bio" validate:"max=500"`
	AvatarURL string `form:"avatar_url" validate:"omitempty,url,max=500"`
}

type UsernameForm struct {
	Username string `form:"username" validate:"required,min=2,max=50,username"`
}

type PasswordForm struct {
	CurrentPassword string `form:"current_password" validate:"required"`
	NewPassword     string `form:"new_password" validate:"required,min=6,bcryptlen"`
	ConfirmPassword string `form:"confirm_password" validate:"required"`
}

type CreateReportRequest struct {
	MessageID string `json:"message_id" validate:"required"`
	Reason    string `json:"reason" validate:"required,reportreason"`
	Details   string `json:"details" validate:"max=1000"`
}

type ResolveReportForm struct {
	Status string `form:"status" validate:"required,oneof=resolved dismissed"`
}
