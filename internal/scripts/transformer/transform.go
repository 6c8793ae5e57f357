// Package transformer rewrites a raw effect script into a module that the
// generated entry point can import: hoisted imports, a metadata constant, a
// host predicate and a default export wrapping the script's top-level code.
package transformer

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lineasoftware/boredom/internal/scripts/types"
)

// Module is a script split into its module-level statements and its body
type Module struct {
	Imports []string // import and re-export statements, specifiers already resolved
	Body    string
	Async   bool // body uses top-level await
}

// TransformError reports a script the transformer cannot wrap safely
type TransformError struct {
	Path   string
	Offset int
	Reason string
}

func (e *TransformError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("transform %s at byte %d: %s", e.Path, e.Offset, e.Reason)
	}
	return fmt.Sprintf("transform %s: %s", e.Path, e.Reason)
}

type edit struct {
	start, end  int
	replacement string
}

// Split separates top-level import declarations and re-exports from the
// executable body of src. Relative specifiers are resolved against
// resolveDir so the result can be written anywhere; an empty resolveDir
// leaves them untouched.
func Split(path, src, resolveDir string) (*Module, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, &TransformError{Path: path, Offset: -1, Reason: err.Error()}
	}

	c := &cursor{tokens: tokens}
	m := &Module{}
	var edits []edit
	depth := 0

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.trivia() {
			continue
		}

		switch tok.text {
		case "{", "(", "[":
			depth++
			continue
		case "}", ")", "]":
			depth--
			continue
		case "await":
			if depth == 0 {
				m.Async = true
			}
			continue
		}

		if p := c.text(c.prev(i)); p == "." || p == "?." {
			// property access such as loader.import(...)
			continue
		}

		switch tok.text {
		case "import":
			n := c.next(i + 1)
			switch c.text(n) {
			case "(":
				// dynamic import stays in the body but keeps resolving from the original location
				if s := c.next(n + 1); s >= 0 && isString(tokens[s]) {
					if spec, ok := resolveSpecifier(tokens[s].text, resolveDir); ok {
						edits = append(edits, edit{tokens[s].start, tokens[s].end, spec})
					}
				}
				continue
			case ".":
				continue
			}
			if depth != 0 {
				continue
			}

			end, stmt, err := c.moduleStatement(path, src, i, resolveDir)
			if err != nil {
				return nil, err
			}
			m.Imports = append(m.Imports, stmt)
			edits = append(edits, edit{tok.start, tokens[end].end, ""})
			i = end

		case "export":
			if depth != 0 {
				continue
			}

			n := c.next(i + 1)
			head := n
			if c.text(n) == "type" {
				if t := c.next(n + 1); c.text(t) == "{" || c.text(t) == "*" {
					head = t
				}
			}

			switch c.text(head) {
			case "default":
				return nil, &TransformError{Path: path, Offset: tok.start, Reason: "export default is not allowed in a script body"}

			case "*":
				end, stmt, err := c.moduleStatement(path, src, i, resolveDir)
				if err != nil {
					return nil, err
				}
				m.Imports = append(m.Imports, stmt)
				edits = append(edits, edit{tok.start, tokens[end].end, ""})
				i = end

			case "{":
				closing := c.skipGroup(head)
				if closing < 0 {
					return nil, &TransformError{Path: path, Offset: tok.start, Reason: "unterminated export list"}
				}
				if c.text(c.next(closing+1)) == "from" {
					end, stmt, err := c.moduleStatement(path, src, i, resolveDir)
					if err != nil {
						return nil, err
					}
					m.Imports = append(m.Imports, stmt)
					edits = append(edits, edit{tok.start, tokens[end].end, ""})
					i = end
					continue
				}
				// a local export list has nothing to export once the body is wrapped
				end := closing
				if semi := c.next(closing + 1); c.text(semi) == ";" {
					end = semi
				}
				edits = append(edits, edit{tok.start, tokens[end].end, ""})
				i = end

			default:
				if n < 0 {
					return nil, &TransformError{Path: path, Offset: tok.start, Reason: "dangling export"}
				}
				// export const x = ... keeps the declaration, local to the wrapper
				edits = append(edits, edit{tok.start, tokens[n].start, ""})
				i = n - 1
			}
		}
	}

	m.Body = applyEdits(src, edits)
	return m, nil
}

// moduleStatement consumes an import or re-export starting at token i and
// returns the index of its last token and its source text.
func (c *cursor) moduleStatement(path, src string, i int, resolveDir string) (int, string, error) {
	start := c.tokens[i].start
	fail := func(reason string) (int, string, error) {
		return 0, "", &TransformError{Path: path, Offset: start, Reason: reason}
	}

	prev := c.text(i)
	spec := -1
	for j := c.next(i + 1); j >= 0; j = c.next(j + 1) {
		t := c.tokens[j]
		if isString(t) && (prev == "import" || prev == "from") {
			spec = j
			break
		}
		switch t.text {
		case "{":
			if j = c.skipGroup(j); j < 0 {
				return fail("unterminated import clause")
			}
			prev = "}"
			continue
		case ";":
			return fail("module statement without a module specifier")
		case "=":
			return fail("import assignments are not supported")
		}
		prev = t.text
	}
	if spec < 0 {
		return fail("module statement without a module specifier")
	}

	end := spec
	if k := c.next(spec + 1); c.text(k) == "with" || c.text(k) == "assert" {
		if open := c.next(k + 1); c.text(open) == "{" {
			if end = c.skipGroup(open); end < 0 {
				return fail("unterminated import attributes")
			}
		}
	}
	if semi := c.next(end + 1); c.text(semi) == ";" {
		end = semi
	}

	specTok := c.tokens[spec]
	stmt := src[start:c.tokens[end].end]
	if resolved, ok := resolveSpecifier(specTok.text, resolveDir); ok {
		stmt = src[start:specTok.start] + resolved + src[specTok.end:c.tokens[end].end]
	}

	return end, stmt, nil
}

func resolveSpecifier(raw, resolveDir string) (string, bool) {
	if resolveDir == "" {
		return "", false
	}
	spec, ok := unquote(raw)
	if !ok || !(strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")) {
		return "", false
	}
	abs := filepath.ToSlash(filepath.Join(resolveDir, filepath.FromSlash(spec)))
	return jsonString(abs), true
}

func applyEdits(src string, edits []edit) string {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	last := 0
	for _, e := range edits {
		if e.start < last {
			continue
		}
		b.WriteString(src[last:e.start])
		b.WriteString(e.replacement)
		last = e.end
	}
	b.WriteString(src[last:])
	return b.String()
}

// Transform splits script and renders the wrapped module source
func Transform(script types.Script, condition string) (string, error) {
	resolveDir := ""
	if script.Source.AbsPath != "" {
		resolveDir = filepath.Dir(script.Source.AbsPath)
	}

	m, err := Split(script.Source.RelPath, script.Source.Content, resolveDir)
	if err != nil {
		return "", err
	}

	return Render(m, script.Metadata, condition)
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
