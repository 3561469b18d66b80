// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"html/template"
	"strings"

	"mvdan.cc/xurls/v2"
)

var urlPattern = xurls.Strict()

// linkify escapes plain text and turns http(s) URLs in it into links.
func linkify(s string) template.HTML {
	var b strings.Builder
	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(s, -1) {
		u := s[loc[0]:loc[1]]
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			continue
		}
		b.WriteString(template.HTMLEscapeString(s[last:loc[0]]))
		b.WriteString(`<a href="`)
		b.WriteString(template.HTMLEscapeString(u))
		b.WriteString(`" class="text-lavender-600 underline" rel="noopener noreferrer" target="_blank">`)
		b.WriteString(template.HTMLEscapeString(u))
		b.WriteString(`</a>`)
		last = loc[1]
	}
	b.WriteString(template.HTMLEscapeString(s[last:]))
	return template.HTML(b.String())
}
