// internal/agent/tools.go
package agent

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const (
	maxFileBytes   = 256 << 10
	maxGrepMatches = 200
	maxGlobResults = 500
)

var errOutsideRoot = errors.New("path escapes the target directory")

// toolbox exposes the three read-only tools of an agent session, all
// confined to root. Paths given by the model are interpreted relative to
// root; anything resolving outside it is rejected.
type toolbox struct {
	root    string
	ignores *ignoreSet
}

func newToolbox(root string) *toolbox {
	root = filepath.Clean(root)
	if real, err := filepath.EvalSymlinks(root); err == nil {
		root = real
	}
	return &toolbox{root: root, ignores: newIgnoreSet(root)}
}

// resolve maps a model-supplied path to an absolute path under root.
// Symlinks are resolved before the containment check so a link inside the
// tree cannot point back out of it.
func (t *toolbox) resolve(rel string) (string, error) {
	if rel == "" {
		return t.root, nil
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", errOutsideRoot, rel)
	}
	abs := filepath.Join(t.root, rel)
	if !within(t.root, abs) {
		return "", fmt.Errorf("%w: %s", errOutsideRoot, rel)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing paths surface as not-found from the caller's stat.
			return abs, nil
		}
		return "", err
	}
	if !within(t.root, real) {
		return "", fmt.Errorf("%w: %s", errOutsideRoot, rel)
	}
	return real, nil
}

func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}

// ReadFile returns the contents of one file, truncated at maxFileBytes.
func (t *toolbox) ReadFile(rel string) (string, error) {
	abs, err := t.resolve(rel)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", rel)
	}
	f, err := os.Open(abs)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, maxFileBytes+1)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	if n > maxFileBytes {
		return string(buf[:maxFileBytes]) + "\n[truncated]", nil
	}
	return string(buf[:n]), nil
}

// Glob returns relative paths under root matching pattern. Patterns may use
// a leading "**/" segment to match at any depth; otherwise standard
// path.Match syntax applies per path segment.
func (t *toolbox) Glob(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, errors.New("empty glob pattern")
	}
	if strings.Contains(pattern, "..") {
		return nil, fmt.Errorf("%w: %s", errOutsideRoot, pattern)
	}

	var out []string
	err := filepath.WalkDir(t.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(t.root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if t.ignores.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if t.ignores.Match(rel, false) {
			return nil
		}
		if globMatch(pattern, rel) {
			out = append(out, rel)
			if len(out) >= maxGlobResults {
				return filepath.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func globMatch(pattern, rel string) bool {
	if strings.HasPrefix(pattern, "**/") {
		suffix := strings.TrimPrefix(pattern, "**/")
		if ok, _ := path.Match(suffix, path.Base(rel)); ok {
			return true
		}
		if ok, _ := path.Match(suffix, rel); ok {
			return true
		}
		return false
	}
	ok, _ := path.Match(pattern, rel)
	return ok
}

// GrepMatch is one line hit from a Grep search.
type GrepMatch struct {
	Path string
	Line int
	Text string
}

// Grep searches file contents under root for the given regular expression.
// Binary files and oversized lines are skipped. Results are capped at
// maxGrepMatches.
func (t *toolbox) Grep(expr, relDir string) ([]GrepMatch, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	start, err := t.resolve(relDir)
	if err != nil {
		return nil, err
	}

	var out []GrepMatch
	err = filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(t.root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if t.ignores.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if t.ignores.Match(rel, false) {
			return nil
		}
		f, err := os.Open(p)
		if err != nil {
			return nil
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 64<<10), 64<<10)
		line := 0
		for sc.Scan() {
			line++
			text := sc.Text()
			if line == 1 && strings.ContainsRune(text, '\x00') {
				return nil // binary
			}
			if re.MatchString(text) {
				out = append(out, GrepMatch{Path: rel, Line: line, Text: text})
				if len(out) >= maxGrepMatches {
					return filepath.SkipAll
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
