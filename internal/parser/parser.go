// Package parser extracts frontmatter, aliases, headings, block anchors,
// wikilinks, and tags from Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	embedRe    = regexp.MustCompile(`!\[\[.*?\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	headingRe  = regexp.MustCompile(`^#{1,6}\s+`)
	blockIDRe  = regexp.MustCompile(`\^([A-Za-z0-9-]+)\s*$`)
	emphasisRe = regexp.MustCompile("[*_~`]|==")
	bracketRe  = regexp.MustCompile(`[\[\]]`)
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Aliases     []string
	Headings    []string
	BlockIDs    []string
	Links       []string
	Tags        []string
	Title       string
}

// Parse extracts frontmatter and derived metadata from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Aliases:     extractAliases(fm),
		Headings:    extractHeadings(body),
		BlockIDs:    extractBlockIDs(body),
		Links:       extractLinks(body),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter — treat everything as body.
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML — return body only, no error.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// extractAliases collects alternate names from frontmatter. The "alias" and
// "aliases" keys are recognized case-insensitively; values may be a string,
// a list, or a comma-separated string, all of which are flattened.
func extractAliases(fm map[string]interface{}) []string {
	if fm == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string

	add := func(raw string) {
		for _, part := range strings.Split(raw, ",") {
			a := strings.TrimSpace(part)
			if a == "" {
				continue
			}
			if _, dup := seen[a]; dup {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}

	for key, raw := range fm {
		lower := strings.ToLower(key)
		if lower != "alias" && lower != "aliases" {
			continue
		}
		switch v := raw.(type) {
		case string:
			add(v)
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
	}

	return out
}

// extractHeadings returns the sanitized text of every ATX heading in order.
func extractHeadings(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !headingRe.MatchString(trimmed) {
			continue
		}
		if h := SanitizeHeading(trimmed); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// SanitizeHeading strips markup from a raw heading line: image embeds first,
// then wikilinks (replaced by their alias text, falling back to the target),
// then emphasis markers, then the leading ATX markers, then any stray
// bracket remnants.
func SanitizeHeading(line string) string {
	s := embedRe.ReplaceAllString(line, "")
	s = wikilinkRe.ReplaceAllStringFunc(s, func(m string) string {
		inner := strings.TrimSuffix(strings.TrimPrefix(m, "[["), "]]")
		if i := strings.Index(inner, "|"); i >= 0 {
			return strings.TrimSpace(inner[i+1:])
		}
		return strings.TrimSpace(inner)
	})
	s = emphasisRe.ReplaceAllString(s, "")
	s = headingRe.ReplaceAllString(strings.TrimSpace(s), "")
	s = bracketRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// extractBlockIDs returns deduplicated ^block-id anchors found at line ends.
func extractBlockIDs(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, line := range strings.Split(body, "\n") {
		m := blockIDRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		id := m[1]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		raw := m[1]
		// Handle aliases: [[Target|Alias]] → Target.
		target := raw
		if i := strings.Index(raw, "|"); i >= 0 {
			target = raw[:i]
		}
		// Strip heading/block fragments: [[Target#Heading]] → Target.
		if i := strings.Index(target, "#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects #tags from body and from frontmatter "tags" field.
func extractTags(body string, fm map[string]interface{}) []string {
	seen := make(map[string]struct{})
	var out []string

	addTag := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if fm != nil {
		if raw, ok := fm["tags"]; ok {
			switch v := raw.(type) {
			case []interface{}:
				for _, item := range v {
					if s, ok := item.(string); ok {
						addTag(s)
					}
				}
			case string:
				for _, part := range strings.Split(v, ",") {
					addTag(part)
				}
			}
		}
	}

	matches := tagRe.FindAllStringSubmatch(body, -1)
	for _, m := range matches {
		addTag(m[1])
	}

	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
