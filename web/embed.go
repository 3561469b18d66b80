// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package web provides embedded static assets (CSS, JS) for the admin area
// and the public site. In development, templates load Tailwind and HTMX from
// a CDN; in production, the compiled and vendored files are embedded here
// and served at /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree. Release builds add the
// compiled Tailwind stylesheets and the vendored HTMX file next to the
// sources kept in the repository.
//
//go:embed all:static
var StaticFS embed.FS
