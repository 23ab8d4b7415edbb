// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package views renders the embedded HTML pages. Every page shares
// templates/layout.html and receives a Page; page-specific payloads are
// the structs in data.go.
package views
