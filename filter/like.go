package filter

import (
	"regexp"
	"strings"

	"github.com/hugr-lab/geofilter/feature"
)

// compileLike translates a wildcard pattern into an anchored regular
// expression. An escaped character is literal; a trailing escape matches
// the escape character itself.
func compileLike(pattern string, multi, single, escape rune) *regexp.Regexp {
	var sb strings.Builder
	sb.WriteString(`(?s)^`)
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case escape != 0 && r == escape:
			if i+1 < len(runes) {
				i++
				r = runes[i]
			}
			sb.WriteString(regexp.QuoteMeta(string(r)))
		case r == multi:
			sb.WriteString(`.*`)
		case r == single:
			sb.WriteString(`.`)
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString(`$`)
	return regexp.MustCompile(sb.String())
}

// checkWildcards validates the wildcard and escape characters of a LIKE
// filter.
func checkWildcards(multi, single, escape rune) error {
	switch {
	case multi == 0 || single == 0:
		return illegal(FilterLike, "wildcards must be set")
	case multi == single:
		return illegal(FilterLike, "multi and single wildcards are both %q", multi)
	case escape != 0 && (escape == multi || escape == single):
		return illegal(FilterLike, "escape %q collides with a wildcard", escape)
	}
	return nil
}

// Matches renders the value as text and matches it against the pattern.
// A null value or pattern does not match.
func (l *LikeFilter) Matches(f feature.Feature) (bool, error) {
	v, err := l.value.Evaluate(f)
	if err != nil {
		return false, err
	}
	if v.IsNull {
		return false, nil
	}
	if v.Kind == feature.KindGeometry {
		return false, mismatch("LIKE on %s value", v.Kind)
	}

	re := l.compiled
	if re == nil {
		p, err := l.pattern.Evaluate(f)
		if err != nil {
			return false, err
		}
		if p.IsNull {
			return false, nil
		}
		if p.Kind == feature.KindGeometry {
			return false, mismatch("LIKE pattern is %s", p.Kind)
		}
		re = compileLike(p.String(), l.wildcardMulti, l.wildcardSingle, l.escape)
	}
	return re.MatchString(v.String()), nil
}
