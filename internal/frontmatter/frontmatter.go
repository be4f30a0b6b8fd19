package frontmatter

import (
	"strings"
	"unicode"
)

// Delimiter opens and closes a frontmatter block.
const Delimiter = "---"

// Field is a single `key: value` pair.
type Field struct {
	Key   string
	Value string
}

// Frontmatter is an ordered set of string fields. The zero value is empty and usable.
type Frontmatter struct {
	fields []Field
}

// Get returns the value stored under key.
func (f Frontmatter) Get(key string) (string, bool) {
	for _, fld := range f.fields {
		if fld.Key == key {
			return fld.Value, true
		}
	}
	return "", false
}

// Set replaces the value of an existing key in place or appends a new field.
func (f *Frontmatter) Set(key, value string) {
	for i := range f.fields {
		if f.fields[i].Key == key {
			f.fields[i].Value = value
			return
		}
	}
	f.fields = append(f.fields, Field{Key: key, Value: value})
}

// Fields returns a copy of the fields in document order.
func (f Frontmatter) Fields() []Field {
	out := make([]Field, len(f.fields))
	copy(out, f.fields)
	return out
}

// Len reports the number of fields.
func (f Frontmatter) Len() int { return len(f.fields) }

// Map returns the fields as a map.
func (f Frontmatter) Map() map[string]string {
	m := make(map[string]string, len(f.fields))
	for _, fld := range f.fields {
		m[fld.Key] = fld.Value
	}
	return m
}

// Split separates a leading `---` delimited block from the document body.
// Both delimiter lines must be exactly `---`, ignoring trailing whitespace.
//
// If the trimmed document does not start with the delimiter, or the block is
// never closed, had is false and body is the full input. Values are never
// coerced; every value is the trimmed text after the first colon.
func Split(content string) (fm Frontmatter, body string, had bool) {
	trimmed := strings.TrimLeftFunc(content, unicode.IsSpace)
	first, rest, ok := nextLine(trimmed)
	if !isDelimiter(first) || !ok {
		return Frontmatter{}, content, false
	}

	block := rest
	for len(rest) > 0 {
		line, next, _ := nextLine(rest)
		if isDelimiter(line) {
			return parseBlock(block[:len(block)-len(rest)]), next, true
		}
		rest = next
	}
	return Frontmatter{}, content, false
}

// nextLine splits s after its first newline. ok reports whether a newline
// was found.
func nextLine(s string) (line, rest string, ok bool) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

func isDelimiter(line string) bool {
	return strings.TrimRightFunc(line, unicode.IsSpace) == Delimiter
}

func parseBlock(block string) Frontmatter {
	var fm Frontmatter
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.IndexByte(line, ':')
		if i < 0 {
			continue
		}
		key := strings.TrimSpace(line[:i])
		if key == "" {
			continue
		}
		fm.Set(key, strings.TrimSpace(line[i+1:]))
	}
	return fm
}

// Join reassembles a document from frontmatter and body. The block is always
// emitted, even when fm is empty, so a document that had frontmatter keeps it.
func Join(fm Frontmatter, body string) string {
	var b strings.Builder
	b.WriteString(Delimiter)
	b.WriteByte('\n')
	for _, fld := range fm.fields {
		b.WriteString(fld.Key)
		b.WriteString(": ")
		b.WriteString(fld.Value)
		b.WriteByte('\n')
	}
	b.WriteString(Delimiter)
	b.WriteByte('\n')
	b.WriteString(body)
	return b.String()
}
