// Package identify classifies files into the tags hooks filter on with
// types, types_or and exclude_types.
package identify

import (
	"bytes"
	"io"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	TagFile          = "file"
	TagDirectory     = "directory"
	TagSymlink       = "symlink"
	TagExecutable    = "executable"
	TagNonExecutable = "non-executable"
	TagText          = "text"
	TagBinary        = "binary"
)

// extensionTags maps a lower-cased extension (without the dot) to its tags.
var extensionTags = map[string][]string{
	"py":       {"python"},
	"pyi":      {"pyi", "python"},
	"go":       {"go"},
	"mod":      {"go-mod"},
	"js":       {"javascript"},
	"mjs":      {"javascript"},
	"cjs":      {"javascript"},
	"jsx":      {"javascript", "jsx"},
	"ts":       {"ts"},
	"tsx":      {"ts", "tsx"},
	"json":     {"json"},
	"yaml":     {"yaml"},
	"yml":      {"yaml"},
	"toml":     {"toml"},
	"md":       {"markdown"},
	"markdown": {"markdown"},
	"rst":      {"rst"},
	"txt":      {"plain-text"},
	"sh":       {"shell", "sh"},
	"bash":     {"shell", "bash"},
	"zsh":      {"shell", "zsh"},
	"rs":       {"rust"},
	"rb":       {"ruby"},
	"java":     {"java"},
	"kt":       {"kotlin"},
	"c":        {"c"},
	"h":        {"c", "header"},
	"cc":       {"c++"},
	"cpp":      {"c++"},
	"hpp":      {"c++", "header"},
	"cs":       {"c#"},
	"lua":      {"lua"},
	"pl":       {"perl"},
	"r":        {"r"},
	"swift":    {"swift"},
	"dart":     {"dart"},
	"hs":       {"haskell"},
	"html":     {"html"},
	"css":      {"css"},
	"scss":     {"scss"},
	"sql":      {"sql"},
	"xml":      {"xml"},
	"proto":    {"proto"},
	"tf":       {"terraform"},
	"ini":      {"ini"},
	"cfg":      {"ini"},
	"png":      {"image", "png"},
	"jpg":      {"image", "jpeg"},
	"jpeg":     {"image", "jpeg"},
	"gif":      {"image", "gif"},
	"svg":      {"image", "svg", "xml"},
	"zip":      {"zip"},
	"gz":       {"gzip"},
	"pdf":      {"pdf"},
}

// nameTags matches well-known file names (by base name, glob syntax).
var nameTags = []struct {
	pattern string
	tags    []string
}{
	{"Dockerfile", []string{"dockerfile"}},
	{"Dockerfile.*", []string{"dockerfile"}},
	{"*.dockerfile", []string{"dockerfile"}},
	{"Makefile", []string{"makefile"}},
	{"GNUmakefile", []string{"makefile"}},
	{"go.sum", []string{"go-sum"}},
	{".pre-commit-config.yaml", []string{"pre-commit-config"}},
	{".pre-commit-hooks.yaml", []string{"pre-commit-hooks"}},
	{"Gemfile", []string{"ruby"}},
	{"Rakefile", []string{"ruby"}},
	{"Pipfile", []string{"toml"}},
	{"CMakeLists.txt", []string{"cmake"}},
	{"LICENSE*", []string{"plain-text"}},
	{".gitignore", []string{"gitignore"}},
	{".gitattributes", []string{"gitattributes"}},
}

// interpreterTags maps a shebang interpreter to tags.
var interpreterTags = map[string][]string{
	"python":  {"python"},
	"python3": {"python", "python3"},
	"node":    {"javascript"},
	"sh":      {"shell", "sh"},
	"bash":    {"shell", "bash"},
	"zsh":     {"shell", "zsh"},
	"ruby":    {"ruby"},
	"perl":    {"perl"},
}

// Tags returns the tag set for the file at p. Paths that cannot be stat'ed
// get only name-derived tags.
func Tags(p string) map[string]struct{} {
	tags := map[string]struct{}{}
	add := func(ts ...string) {
		for _, t := range ts {
			tags[t] = struct{}{}
		}
	}

	fi, err := os.Lstat(p)
	if err == nil {
		switch {
		case fi.Mode()&os.ModeSymlink != 0:
			add(TagSymlink)
			return tags
		case fi.IsDir():
			add(TagDirectory)
			return tags
		}
		add(TagFile)
		executable := fi.Mode()&0o111 != 0
		if executable {
			add(TagExecutable)
		} else {
			add(TagNonExecutable)
		}

		head := readHead(p)
		if isText(head) {
			add(TagText)
		} else {
			add(TagBinary)
		}
		if executable {
			add(shebangTags(head)...)
		}
	}

	add(NameTags(p)...)
	return tags
}

// NameTags returns tags derived from the file name alone.
func NameTags(p string) []string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	var out []string
	for _, nt := range nameTags {
		if ok, _ := doublestar.Match(nt.pattern, base); ok {
			out = append(out, nt.tags...)
		}
	}
	if i := strings.LastIndexByte(base, '.'); i >= 0 && i < len(base)-1 {
		out = append(out, extensionTags[strings.ToLower(base[i+1:])]...)
	}
	return out
}

func readHead(p string) []byte {
	f, err := os.Open(p) // #nosec G304 -- p is a tracked file in the project
	if err != nil {
		return nil
	}
	defer f.Close()
	buf := make([]byte, 1024)
	n, _ := io.ReadFull(f, buf)
	return buf[:n]
}

// isText treats content with NUL bytes or invalid UTF-8 as binary.
func isText(head []byte) bool {
	if bytes.IndexByte(head, 0) >= 0 {
		return false
	}
	// A multi-byte rune may be cut at the read boundary.
	for i := 0; i < utf8.UTFMax && len(head) > 0; i++ {
		if utf8.Valid(head) {
			return true
		}
		head = head[:len(head)-1]
	}
	return utf8.Valid(head)
}

func shebangTags(head []byte) []string {
	if !bytes.HasPrefix(head, []byte("#!")) {
		return nil
	}
	line := string(head[2:])
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	interp := path.Base(fields[0])
	if interp == "env" {
		args := fields[1:]
		for len(args) > 0 && strings.HasPrefix(args[0], "-") {
			args = args[1:]
		}
		if len(args) == 0 {
			return nil
		}
		interp = path.Base(args[0])
	}
	if tags, ok := interpreterTags[interp]; ok {
		return tags
	}
	return interpreterTags[strings.TrimRight(interp, "0123456789.")]
}

// Matches applies the three type filters: every tag in types, at least one of
// typesOr (when non-empty) and none of excludeTypes.
func Matches(tags map[string]struct{}, types, typesOr, excludeTypes []string) bool {
	for _, t := range types {
		if _, ok := tags[t]; !ok {
			return false
		}
	}
	if len(typesOr) > 0 {
		found := false
		for _, t := range typesOr {
			if _, ok := tags[t]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, t := range excludeTypes {
		if _, ok := tags[t]; ok {
			return false
		}
	}
	return true
}
