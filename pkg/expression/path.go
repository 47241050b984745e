package expression

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Undefined is the value of a path that does not exist. It interpolates as
// the empty string and marshals to JSON null.
var Undefined = undefined{}

type undefined struct{}

func (undefined) String() string { return "" }

func (undefined) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// IsUndefined reports whether v is the Undefined value.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)

	return ok
}

// PathSegment is one step of a path: a field name or a bracket index.
type PathSegment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path addresses a value inside a JSON-like tree.
type Path []PathSegment

func (p Path) String() string {
	var b strings.Builder

	for _, s := range p {
		if s.IsIndex {
			fmt.Fprintf(&b, "[%d]", s.Index)

			continue
		}

		b.WriteByte('.')
		b.WriteString(s.Key)
	}

	return b.String()
}

var errPath = errors.New("malformed path")

// ParsePath parses a path suffix such as ".data.items[0].name". The empty
// string is the empty path.
func ParsePath(s string) (Path, error) {
	var path Path

	for s != "" {
		switch s[0] {
		case '.':
			s = s[1:]

			end := strings.IndexAny(s, ".[")
			if end < 0 {
				end = len(s)
			}

			if end == 0 {
				return nil, fmt.Errorf("%w: empty field name", errPath)
			}

			path = append(path, PathSegment{Key: s[:end]})
			s = s[end:]
		case '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unclosed bracket", errPath)
			}

			idx, err := strconv.Atoi(strings.TrimSpace(s[1:end]))
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("%w: index %q is not a non-negative integer", errPath, s[1:end])
			}

			path = append(path, PathSegment{Index: idx, IsIndex: true})
			s = s[end+1:]
		default:
			return nil, fmt.Errorf("%w: unexpected %q", errPath, s[0])
		}
	}

	return path, nil
}

// Lookup applies path to v. Any step that cannot be followed yields Undefined.
func Lookup(v any, path Path) any {
	current := v

	for _, seg := range path {
		if IsUndefined(current) || current == nil {
			return Undefined
		}

		current = step(current, seg)
	}

	return current
}

func step(v any, seg PathSegment) any {
	switch val := v.(type) {
	case map[string]any:
		if seg.IsIndex {
			return lookupKey(val, strconv.Itoa(seg.Index))
		}

		return lookupKey(val, seg.Key)
	case []any:
		return index(len(val), seg, func(i int) any { return val[i] })
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Undefined
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Undefined
		}

		key := seg.Key
		if seg.IsIndex {
			key = strconv.Itoa(seg.Index)
		}

		item := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !item.IsValid() {
			return Undefined
		}

		return item.Interface()
	case reflect.Slice, reflect.Array:
		return index(rv.Len(), seg, func(i int) any { return rv.Index(i).Interface() })
	case reflect.Struct:
		generic, ok := normalize(rv.Interface())
		if !ok {
			return Undefined
		}

		return step(generic, seg)
	default:
		return Undefined
	}
}

func lookupKey(m map[string]any, key string) any {
	item, ok := m[key]
	if !ok {
		return Undefined
	}

	return item
}

func index(n int, seg PathSegment, at func(int) any) any {
	i := seg.Index
	if !seg.IsIndex {
		parsed, err := strconv.Atoi(seg.Key)
		if err != nil {
			return Undefined
		}

		i = parsed
	}

	if i < 0 || i >= n {
		return Undefined
	}

	return at(i)
}

// normalize turns a struct into its JSON-like generic form.
func normalize(v any) (any, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}

	return out, true
}
