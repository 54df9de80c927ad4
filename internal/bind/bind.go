// Package bind turns a command text with @Name parameters and an ordered
// parameter list into the text and arguments a database/sql driver accepts.
package bind

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Style selects how parameters reach the driver.
//
//   - Named    -> text untouched, sql.Named args (SQLite, SQL Server)
//   - Question -> @Name becomes ?        (MySQL)
//   - Dollar   -> @Name becomes $1, $2.. (PostgreSQL)
type Style int

const (
	Named Style = iota
	Question
	Dollar
)

func (s Style) String() string {
	switch s {
	case Question:
		return "question"
	case Dollar:
		return "dollar"
	default:
		return "named"
	}
}

// ParseStyle parses the textual form of a Style.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(s) {
	case "named", "":
		return Named, nil
	case "question", "?":
		return Question, nil
	case "dollar", "$":
		return Dollar, nil
	}
	return Named, fmt.Errorf("bind: unknown style %q", s)
}

// StyleFor picks a Style for a database/sql driver name.
func StyleFor(driverName string) Style {
	switch strings.ToLower(driverName) {
	case "pgx", "postgres", "postgresql", "pq":
		return Dollar
	case "mysql":
		return Question
	default:
		return Named
	}
}

// ErrMissingParam is returned when the text references a parameter that was
// not supplied.
var ErrMissingParam = errors.New("dbsession: missing parameter")

// Param is one named command parameter.
type Param struct {
	Name  string
	Value any
}

// Rewrite prepares query and params for the driver according to style.
// Nil values, including typed nil pointers, are bound as SQL NULL.
func Rewrite(query string, style Style, params []Param) (string, []any, error) {
	if style == Named {
		args := make([]any, 0, len(params))
		for _, p := range params {
			args = append(args, sql.Named(p.Name, nullable(p.Value)))
		}
		return query, args, nil
	}

	toks, err := findParams(query, style == Question)
	if err != nil {
		return "", nil, err
	}
	if len(toks) == 0 {
		return query, nil, nil
	}

	lookup := make(map[string]any, len(params))
	for _, p := range params {
		if _, dup := lookup[p.Name]; !dup {
			lookup[p.Name] = nullable(p.Value)
		}
	}

	var b strings.Builder
	b.Grow(len(query) + len(toks)*2)
	args := make([]any, 0, len(toks))
	assigned := map[string]int{}
	last := 0

	for _, t := range toks {
		b.WriteString(query[last:t.start])
		val, ok := lookup[t.name]
		if !ok {
			return "", nil, fmt.Errorf("%w: @%s", ErrMissingParam, t.name)
		}
		switch style {
		case Dollar:
			n, seen := assigned[t.name]
			if !seen {
				args = append(args, val)
				n = len(args)
				assigned[t.name] = n
			}
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			args = append(args, val)
			b.WriteByte('?')
		}
		last = t.end
	}
	b.WriteString(query[last:])
	return b.String(), args, nil
}

// nullable maps nil interfaces and nil pointers to an untyped nil.
func nullable(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	return v
}

type token struct {
	name  string
	start int
	end   int
}

// findParams locates @Name tokens outside of string literals, quoted
// identifiers, comments and dollar-quoted bodies. @@name is left alone.
// With backslash set, \x inside '...' and "..." escapes x, as MySQL does.
func findParams(query string, backslash bool) ([]token, error) {
	var out []token
	i := 0
	for i < len(query) {
		r, w := utf8.DecodeRuneInString(query[i:])
		switch r {
		case '\'':
			j, err := skipQuoted(query, i+w, '\'', backslash)
			if err != nil {
				return nil, err
			}
			i = j
			continue
		case '"':
			j, err := skipQuoted(query, i+w, '"', backslash)
			if err != nil {
				return nil, err
			}
			i = j
			continue
		case '`':
			j, err := skipQuoted(query, i+w, '`', false)
			if err != nil {
				return nil, err
			}
			i = j
			continue
		case '-':
			if strings.HasPrefix(query[i:], "--") {
				i = skipLineComment(query, i+2)
				continue
			}
		case '/':
			if strings.HasPrefix(query[i:], "/*") {
				j, err := skipBlockComment(query, i+2)
				if err != nil {
					return nil, err
				}
				i = j
				continue
			}
		case '$':
			j, ok, err := skipDollarQuoted(query, i)
			if err != nil {
				return nil, err
			}
			if ok {
				i = j
				continue
			}
		case '@':
			if strings.HasPrefix(query[i:], "@@") {
				_, end := parseIdent(query, i+2)
				i = end
				continue
			}
			name, end := parseIdent(query, i+1)
			if name != "" {
				out = append(out, token{name: name, start: i, end: end})
				i = end
				continue
			}
		}
		i += w
	}
	return out, nil
}

func skipQuoted(s string, i int, quote byte, backslash bool) (int, error) {
	for i < len(s) {
		if backslash && s[i] == '\\' {
			i += 2
			continue
		}
		if s[i] == quote {
			if i+1 < len(s) && s[i+1] == quote {
				i += 2
				continue
			}
			return i + 1, nil
		}
		i++
	}
	return 0, fmt.Errorf("bind: unterminated %c-quoted text", quote)
}

func skipLineComment(s string, i int) int {
	if j := strings.IndexByte(s[i:], '\n'); j >= 0 {
		return i + j + 1
	}
	return len(s)
}

func skipBlockComment(s string, i int) (int, error) {
	if j := strings.Index(s[i:], "*/"); j >= 0 {
		return i + j + 2, nil
	}
	return 0, errors.New("bind: unterminated block comment")
}

// skipDollarQuoted handles $$...$$ and $tag$...$tag$. ok is false when the
// text at i is not a dollar-quote opener (e.g. a $1 placeholder).
func skipDollarQuoted(s string, i int) (int, bool, error) {
	j := i + 1
	for j < len(s) && s[j] != '$' {
		r, w := utf8.DecodeRuneInString(s[j:])
		if !(r == '_' || unicode.IsLetter(r) || (j > i+1 && unicode.IsDigit(r))) {
			return 0, false, nil
		}
		j += w
	}
	if j >= len(s) {
		return 0, false, nil
	}
	tag := s[i : j+1]
	k := strings.Index(s[j+1:], tag)
	if k < 0 {
		return 0, true, errors.New("bind: unterminated dollar-quoted text")
	}
	return j + 1 + k + len(tag), true, nil
}

func parseIdent(s string, i int) (string, int) {
	start := i
	for i < len(s) {
		r, w := utf8.DecodeRuneInString(s[i:])
		if !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			break
		}
		i += w
	}
	return s[start:i], i
}
