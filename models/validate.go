// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// MaxPasswordBytes is the longest password bcrypt accepts
const MaxPasswordBytes = 72

var (
	validate     *validator.Validate
	validateOnce sync.Once

	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	chatPolicy = bluemonday.StrictPolicy()
	postPolicy = bluemonday.UGCPolicy()
)

// Validator returns the shared validator with the custom tags registered
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report field names the way clients send them
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, key := range []string{"form", "json"} {
				name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return fld.Name
		})

		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		// bcrypt rejects passwords over 72 bytes, however few runes they hold
		_ = validate.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= MaxPasswordBytes
		})
		_ = validate.RegisterValidation("posttag", func(fl validator.FieldLevel) bool {
			return IsPostTag(fl.Field().String())
		})
		_ = validate.RegisterValidation("reportreason", func(fl validator.FieldLevel) bool {
			return IsReportReason(fl.Field().String())
		})
	})
	return validate
}

// Validate checks s against its validate tags. The returned error message
// is safe to show to users.
func Validate(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return errors.New(describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("at least %s %s are required", fe.Param(), field)
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("at most %s %s are allowed", fe.Param(), field)
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt", "lte":
		return field + " is out of range"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	case "username":
		return field + " may only contain letters, digits and underscores"
	case "bcryptlen":
		return fmt.Sprintf("%s must be at most %d bytes", field, MaxPasswordBytes)
	case "posttag":
		return field + " must be one of: " + strings.Join(PostTags, ", ")
	case "reportreason":
		return field + " must be one of: " + strings.Join(ReportReasons, ", ")
	}
	return field + " is invalid"
}

// SanitizeChat strips all markup from a chat message. The result is plain
// text; templates and the client escape it on output.
func SanitizeChat(s string) string {
	return strings.TrimSpace(html.UnescapeString(chatPolicy.Sanitize(s)))
}

// SanitizePost keeps the basic formatting allowed in forum posts and comments
func SanitizePost(s string) string {
	return strings.TrimSpace(postPolicy.Sanitize(s))
}
