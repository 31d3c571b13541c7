// internal/agent/ignore.go
package agent

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ignoreRule is one parsed gitignore-style pattern.
type ignoreRule struct {
	// pattern is a path.Match pattern, without gitignore decorations.
	pattern string
	// anyDepth matches the pattern against the base name at any depth
	// instead of the full relative path.
	anyDepth bool
	// dirOnly restricts the rule to directories.
	dirOnly bool
}

// ignoreSet holds the paths the repository tools skip while walking a
// target. Rules come from the target's .gitignore when present, on top of
// a default set that always applies. Negation patterns are not supported.
type ignoreSet struct {
	rules []ignoreRule
}

var defaultIgnoreRules = []ignoreRule{
	{pattern: ".git", anyDepth: true, dirOnly: true},
	{pattern: "node_modules", anyDepth: true, dirOnly: true},
	{pattern: "__pycache__", anyDepth: true, dirOnly: true},
	{pattern: "vendor", anyDepth: true, dirOnly: true},
}

// newIgnoreSet builds the skip rules for one target root. An unreadable or
// missing .gitignore degrades to the defaults; tools never fail a session
// over it.
func newIgnoreSet(root string) *ignoreSet {
	s := &ignoreSet{rules: defaultIgnoreRules}

	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return s
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if rule, ok := parseIgnoreLine(sc.Text()); ok {
			s.rules = append(s.rules, rule)
		}
	}
	return s
}

// parseIgnoreLine converts one gitignore line into a rule. Comments, blank
// lines and negation patterns yield no rule.
func parseIgnoreLine(line string) (ignoreRule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return ignoreRule{}, false
	}

	var rule ignoreRule
	if strings.HasSuffix(line, "/") {
		rule.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	// A leading slash anchors the pattern at the root; without an inner
	// slash the pattern matches its base name at any depth.
	anchored := strings.HasPrefix(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return ignoreRule{}, false
	}
	rule.anyDepth = !anchored && !strings.Contains(line, "/")
	rule.pattern = line
	return rule, true
}

// Match reports whether a slash-separated path relative to the root should
// be skipped. Directory rules prune whole subtrees via the walk, so files
// are only tested against file-applicable rules.
func (s *ignoreSet) Match(rel string, isDir bool) bool {
	for _, rule := range s.rules {
		if rule.dirOnly && !isDir {
			continue
		}
		target := rel
		if rule.anyDepth {
			target = path.Base(rel)
		}
		if ok, _ := path.Match(rule.pattern, target); ok {
			return true
		}
	}
	return false
}
