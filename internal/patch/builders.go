package patch

import (
	"fmt"
	"regexp"
	"strings"
)

// InsertKeywordArg builds a Spec that injects a keyword argument into a
// specific call expression. The patch is anchored twice: on the line
// containing the call and on the line containing a known sibling argument
// within that call. The new argument lands directly after the sibling with
// the sibling's indentation.
func InsertKeywordArg(name, path, call, sibling, argName, argValue string) Spec {
	argPattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(argName) + `\s*=`)

	return Spec{
		Name: name,
		Path: path,
		Applied: func(content string) bool {
			start, end, ok := findCallBlock(content, call)
			if !ok {
				return false
			}
			lines := strings.Split(content, "\n")
			block := strings.Join(lines[start:end+1], "\n")
			return argPattern.MatchString(block)
		},
		Precondition: func(content string) (bool, string) {
			start, end, ok := findCallBlock(content, call)
			if !ok {
				return false, call
			}
			lines := strings.Split(content, "\n")
			if findLine(lines, start, end, sibling) < 0 {
				return false, sibling
			}
			return true, ""
		},
		Transform: func(content string) (string, error) {
			start, end, ok := findCallBlock(content, call)
			if !ok {
				return "", fmt.Errorf("call %q not found", call)
			}
			lines := strings.Split(content, "\n")
			sibIdx := findLine(lines, start, end, sibling)
			if sibIdx < 0 {
				return "", fmt.Errorf("sibling argument %q not found in call %q", sibling, call)
			}

			if start == end {
				// Single-line call: splice the argument in after the
				// sibling text so the call stays on one line.
				line := lines[sibIdx]
				pos := strings.Index(line, sibling)
				insertAt := pos + len(sibling)
				lines[sibIdx] = line[:insertAt] + ", " + argName + "=" + argValue + line[insertAt:]
				return strings.Join(lines, "\n"), nil
			}

			// Multi-line call: the sibling line needs a trailing comma
			// before a new argument line can follow it.
			sibLine := lines[sibIdx]
			if trimmed := strings.TrimRight(sibLine, " \t"); !strings.HasSuffix(trimmed, ",") {
				sibLine = trimmed + ","
				lines[sibIdx] = sibLine
			}

			indent := sibLine[:len(sibLine)-len(strings.TrimLeft(sibLine, " \t"))]
			inserted := indent + argName + "=" + argValue + ","

			out := make([]string, 0, len(lines)+1)
			out = append(out, lines[:sibIdx+1]...)
			out = append(out, inserted)
			out = append(out, lines[sibIdx+1:]...)
			return strings.Join(out, "\n"), nil
		},
	}
}

// AsyncifyFuncs builds a Spec that promotes a fixed list of function
// definitions from synchronous to asynchronous calling convention. The
// precondition fails naming the first function whose definition cannot be
// located.
func AsyncifyFuncs(name, path string, funcNames []string) Spec {
	type defPatterns struct {
		fn       string
		anyDef   *regexp.Regexp
		asyncDef *regexp.Regexp
		syncDef  *regexp.Regexp
	}

	patterns := make([]defPatterns, 0, len(funcNames))
	for _, fn := range funcNames {
		quoted := regexp.QuoteMeta(fn)
		patterns = append(patterns, defPatterns{
			fn:       fn,
			anyDef:   regexp.MustCompile(`(?m)^[ \t]*(async[ \t]+)?def[ \t]+` + quoted + `[ \t]*\(`),
			asyncDef: regexp.MustCompile(`(?m)^[ \t]*async[ \t]+def[ \t]+` + quoted + `[ \t]*\(`),
			syncDef:  regexp.MustCompile(`(?m)^([ \t]*)def([ \t]+` + quoted + `[ \t]*\()`),
		})
	}

	return Spec{
		Name: name,
		Path: path,
		Applied: func(content string) bool {
			for _, p := range patterns {
				if !p.asyncDef.MatchString(content) {
					return false
				}
			}
			return true
		},
		Precondition: func(content string) (bool, string) {
			for _, p := range patterns {
				if !p.anyDef.MatchString(content) {
					return false, "def " + p.fn + "("
				}
			}
			return true, ""
		},
		Transform: func(content string) (string, error) {
			for _, p := range patterns {
				if p.asyncDef.MatchString(content) {
					continue
				}
				content = p.syncDef.ReplaceAllString(content, "${1}async def${2}")
			}
			return content, nil
		},
	}
}

// findCallBlock locates the call expression: the first line containing the
// call anchor through the line where its parentheses balance out. Returns
// inclusive line indices.
func findCallBlock(content, call string) (start, end int, ok bool) {
	lines := strings.Split(content, "\n")

	start = -1
	for i, line := range lines {
		if strings.Contains(line, call) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, 0, false
	}

	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		tail := lines[i]
		if i == start {
			tail = tail[strings.Index(tail, call):]
		}
		for _, r := range tail {
			switch r {
			case '(':
				depth++
				opened = true
			case ')':
				depth--
			}
		}
		if opened && depth <= 0 {
			return start, i, true
		}
	}

	// Unbalanced call; treat the anchor line alone as the block.
	return start, start, true
}

// findLine returns the index of the first line in [start, end] containing
// needle, or -1.
func findLine(lines []string, start, end int, needle string) int {
	for i := start; i <= end && i < len(lines); i++ {
		if strings.Contains(lines[i], needle) {
			return i
		}
	}
	return -1
}
