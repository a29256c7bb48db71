package scan

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
)

// pathFilter decides which listed files are worth fingerprinting.
type pathFilter struct {
	extensions map[string]struct{}
	blacklist  []string
	fold       cases.Caser
}

func newPathFilter(extensions, blacklist []string) *pathFilter {
	f := &pathFilter{
		extensions: make(map[string]struct{}, len(extensions)),
		fold:       cases.Fold(),
	}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[ext] = struct{}{}
	}
	for _, term := range blacklist {
		if term = strings.TrimSpace(term); term != "" {
			f.blacklist = append(f.blacklist, f.fold.String(term))
		}
	}
	return f
}

// reason returns why path is filtered out, or "" when it should be scanned.
func (f *pathFilter) reason(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := f.extensions[ext]; !ok {
		return "extension"
	}
	folded := f.fold.String(path)
	for _, term := range f.blacklist {
		if strings.Contains(folded, term) {
			return "blacklisted"
		}
	}
	return ""
}
