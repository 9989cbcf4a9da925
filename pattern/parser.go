package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/arbormatch/treematcher/constraint"
	"github.com/arbormatch/treematcher/treeerr"
)

// Options controls pattern-string parsing.
type Options struct {
	// QuotedLabels requires every non-empty constraint label (after its
	// metacharacters are stripped) to be wrapped in double quotes; an
	// unquoted one is an ErrMalformedPattern. When false (the default)
	// bare labels are accepted too.
	QuotedLabels bool
}

var occurRange = regexp.MustCompile(`\{(\d+),(\d+)\}$`)

// Parse compiles a pattern string (parenthesized, Newick-shaped, with
// per-node constraint labels and metacharacter suffixes) into a Pattern.
func Parse(text string, opts Options) (*Pattern, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, &treeerr.ParseError{Sentinel: treeerr.ErrEmptyPattern, Msg: "pattern is empty"}
	}
	s = strings.TrimSuffix(s, ";")

	p := &patParser{s: s, opts: opts}
	root, rest, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, &treeerr.ParseError{
			Sentinel: treeerr.ErrMalformedPattern,
			Msg:      "unexpected trailing text",
			Snippet:  rest,
		}
	}
	return &Pattern{Root: root}, nil
}

type patParser struct {
	s    string
	opts Options
}

func (p *patParser) parseNode() (*Node, string, error) {
	s := p.s
	var children []*Node
	if strings.HasPrefix(s, "(") {
		s = s[1:]
		for {
			child, rest, err := (&patParser{s: s, opts: p.opts}).parseNode()
			if err != nil {
				return nil, "", err
			}
			children = append(children, child)
			s = strings.TrimSpace(rest)
			if strings.HasPrefix(s, ",") {
				s = s[1:]
				continue
			}
			if strings.HasPrefix(s, ")") {
				s = s[1:]
				break
			}
			return nil, "", &treeerr.ParseError{
				Sentinel: treeerr.ErrMalformedPattern,
				Msg:      "expected ',' or ')'",
				Snippet:  s,
			}
		}
	}
	label, rest := scanLabel(s, p.opts)
	node, err := buildNode(label, children, p.opts)
	if err != nil {
		return nil, "", err
	}
	return node, rest, nil
}

// scanLabel reads a node label up to the next structural character
// (',', '(', ')', or end of input), honoring a double-quoted region so labels
// may contain those characters.
func scanLabel(s string, opts Options) (label, rest string) {
	i := 0
	inQuote := false
	for i < len(s) {
		c := s[i]
		if c == '"' {
			inQuote = !inQuote
			i++
			continue
		}
		if !inQuote && (c == ',' || c == ')' || c == '(') {
			break
		}
		i++
	}
	return s[:i], s[i:]
}

func buildNode(rawLabel string, children []*Node, opts Options) (*Node, error) {
	loose, core1 := stripLeadingLoose(rawLabel)
	isRoot, isLeaf, core2, err := stripAnchor(core1)
	if err != nil {
		return nil, err
	}
	min, max, core3, err := stripOccurrence(core2)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(core3)
	if opts.QuotedLabels && trimmed != "" && !(len(trimmed) >= 2 && trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"') {
		return nil, &treeerr.ParseError{
			Sentinel: treeerr.ErrMalformedPattern,
			Msg:      "label must be wrapped in double quotes when QuotedLabels is set",
			Snippet:  rawLabel,
		}
	}
	core := unquote(trimmed, opts)

	if loose && len(children) == 0 {
		return nil, &treeerr.ParseError{
			Sentinel: treeerr.ErrLooseWithoutChildren,
			Msg:      "loose-children node must have at least one pattern child",
			Snippet:  rawLabel,
		}
	}

	expr, err := constraint.Parse(core)
	if err != nil {
		return nil, err
	}

	return &Node{
		ConstraintSource: core,
		Constraint:       expr,
		MinOccur:         min,
		MaxOccur:         max,
		LooseChildren:    loose,
		IsRootAnchor:     isRoot,
		IsLeafAnchor:     isLeaf,
		RequiresLeaf:     len(children) == 0,
		Children:         children,
	}, nil
}

// stripLeadingLoose strips a leading '^' marking this node's children as
// loosely connected (they may match any descendant, not only a direct
// child). Order: this runs first among the metacharacter strips, before
// stripAnchor and then stripOccurrence.
func stripLeadingLoose(s string) (loose bool, rest string) {
	if strings.HasPrefix(s, "^") {
		return true, s[1:]
	}
	return false, s
}

// stripAnchor strips a trailing '^' (root anchor) or '$' (leaf anchor).
// This runs before stripOccurrence: the anchor character is the outermost
// suffix, e.g. "A+$" anchors a one-or-more repeated "A" pattern to leaves.
func stripAnchor(s string) (isRoot, isLeaf bool, rest string, err error) {
	if s == "" {
		return false, false, s, nil
	}
	last := s[len(s)-1]
	switch last {
	case '^':
		return true, false, s[:len(s)-1], nil
	case '$':
		return false, true, s[:len(s)-1], nil
	}
	return false, false, s, nil
}

// stripOccurrence strips a trailing +, *, ?, or {m,n} occurrence
// metacharacter, defaulting to exactly-one when none is present.
func stripOccurrence(s string) (min, max int, rest string, err error) {
	if s == "" {
		return 1, 1, s, nil
	}
	switch s[len(s)-1] {
	case '+':
		return 1, Unbounded, s[:len(s)-1], nil
	case '*':
		return 0, Unbounded, s[:len(s)-1], nil
	case '?':
		return 0, 1, s[:len(s)-1], nil
	}
	if m := occurRange.FindStringSubmatch(s); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > hi {
			return 0, 0, "", &treeerr.ParseError{
				Sentinel: treeerr.ErrBadMetacharacter,
				Msg:      fmt.Sprintf("occurrence range {%d,%d} has min > max", lo, hi),
				Snippet:  s,
			}
		}
		return lo, hi, s[:len(s)-len(m[0])], nil
	}
	return 1, 1, s, nil
}

func unquote(s string, opts Options) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
