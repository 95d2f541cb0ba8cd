// Package lint checks a FileSet for problems a model edit commonly leaves
// behind: a missing entry page and references to files that do not exist.
// Findings are warnings; nothing here blocks a turn.
package lint

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jorge-barreto/sitepatch/internal/grammar"
	"github.com/jorge-barreto/sitepatch/internal/patch"
	"github.com/jorge-barreto/sitepatch/internal/store"
)

// Warning is one finding.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}

// references are the element/attribute pairs that point at local files.
var references = []struct {
	selector, attr string
}{
	{"link[href]", "href"},
	{"script[src]", "src"},
	{"img[src]", "src"},
	{"source[src]", "src"},
}

// Check runs every check against files. entry is the expected first file.
func Check(files *patch.FileSet, entry string) []Warning {
	var out []Warning
	out = append(out, checkEntry(files, entry)...)
	for _, p := range files.Paths() {
		if p == store.ManifestName {
			out = append(out, Warning{Path: p, Message: "name is reserved for the files store manifest; the file is not saved there"})
		}
		if !isHTML(p) {
			continue
		}
		content, _ := files.Get(p)
		out = append(out, checkReferences(files, p, content)...)
	}
	return out
}

func checkEntry(files *patch.FileSet, entry string) []Warning {
	if files.Len() == 0 {
		return []Warning{{Message: "project has no files"}}
	}
	entry = grammar.NormalizePath(entry)
	if entry == "" {
		return nil
	}
	switch i := files.Lookup(entry); {
	case i < 0:
		return []Warning{{Path: entry, Message: "entry file is missing"}}
	case i > 0:
		first, _ := files.First()
		return []Warning{{Path: entry, Message: fmt.Sprintf("entry file is not first (first is %s)", first.Path)}}
	}
	return nil
}

func checkReferences(files *patch.FileSet, page, content string) []Warning {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return []Warning{{Path: page, Message: fmt.Sprintf("cannot parse HTML: %v", err)}}
	}
	var out []Warning
	seen := map[string]bool{}
	for _, ref := range references {
		doc.Find(ref.selector).Each(func(_ int, s *goquery.Selection) {
			raw := strings.TrimSpace(s.AttrOr(ref.attr, ""))
			target, ok := resolve(page, raw)
			if !ok || seen[target] {
				return
			}
			seen[target] = true
			if files.Lookup(target) < 0 {
				out = append(out, Warning{
					Path:    page,
					Message: fmt.Sprintf("<%s %s=%q> points at %s, which is not in the project", goquery.NodeName(s), ref.attr, raw, target),
				})
			}
		})
	}
	return out
}

// resolve maps a reference found in page to a project path. It reports
// false for references that leave the project: absolute URLs, data and
// other schemes, fragments and empty values.
func resolve(page, raw string) (string, bool) {
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "//") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	p := u.Path
	if strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	if !strings.HasPrefix(p, "/") {
		p = path.Join(path.Dir(page), p)
	}
	target := grammar.NormalizePath(p)
	return target, target != ""
}

func isHTML(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".html" || ext == ".htm"
}
