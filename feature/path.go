package feature

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Segment is one step of an attribute path.
type Segment struct {
	// Name is the element name.
	Name string

	// Index is the 1-based position selector, 0 when absent.
	Index int
}

// Path is a parsed attribute path.
//
// Grammar:
//
//	path    := segment ("/" segment)*
//	segment := name ["[" index "]"]
//	name    := (letter | "_") (letter | digit | "_" | "-" | "." | ":")*
//	index   := [1-9][0-9]*
type Path []Segment

// String renders the path back to its textual form.
func (p Path) String() string {
	var sb strings.Builder
	for i, seg := range p {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(seg.Name)
		if seg.Index > 0 {
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(seg.Index))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}

// ParsePath validates and parses an attribute path.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	parts := strings.Split(s, "/")
	p := make(Path, 0, len(parts))
	for i, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q segment %d: %v", ErrInvalidPath, s, i+1, err)
		}
		p = append(p, seg)
	}
	return p, nil
}

// ValidatePath reports whether s follows the attribute path grammar.
func ValidatePath(s string) error {
	_, err := ParsePath(s)
	return err
}

func parseSegment(s string) (Segment, error) {
	if s == "" {
		return Segment{}, fmt.Errorf("empty segment")
	}

	name, index := s, 0
	if open := strings.IndexByte(s, '['); open >= 0 {
		if !strings.HasSuffix(s, "]") {
			return Segment{}, fmt.Errorf("unterminated index")
		}
		digits := s[open+1 : len(s)-1]
		if digits == "" || digits[0] == '0' {
			return Segment{}, fmt.Errorf("index must be a positive integer")
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return Segment{}, fmt.Errorf("index must be a positive integer")
		}
		name, index = s[:open], n
	}

	if name == "" {
		return Segment{}, fmt.Errorf("empty name")
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.' || r == ':'):
		default:
			return Segment{}, fmt.Errorf("invalid character %q in name %q", r, name)
		}
	}
	return Segment{Name: name, Index: index}, nil
}
