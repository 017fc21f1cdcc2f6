// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// htmlSanitizer strips dangerous elements from rendered post bodies.
// Drafts hold author markdown verbatim; sanitization happens once, at
// publish time, so the public API serves HTML that is safe to embed.
var htmlSanitizer = bluemonday.UGCPolicy()

// RenderBody converts draft markdown to sanitized HTML.
func RenderBody(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}
