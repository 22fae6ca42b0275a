package loaders

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/df07/go-portal-raytracer/pkg/core"
)

// ErrMalformedPortalList is returned for portal lists ParsePortalList cannot read
var ErrMalformedPortalList = errors.New("malformed portal list")

// PortalSpec describes one axis-aligned portal rectangle
type PortalSpec struct {
	Lo, Hi        core.Vec3
	Axis          int
	FacingForward bool
}

// sexpr is an atom or a list
type sexpr struct {
	atom string
	list []sexpr
}

func (s sexpr) isList() bool { return s.list != nil }

// ParsePortalList parses a list of portals written as
//
//	((AA loX loY loZ hiX hiY hiZ axis +|-) ...)
//
// where + faces the portal normal along +axis and - along -axis.
func ParsePortalList(src string) ([]PortalSpec, error) {
	tokens := tokenizeSexpr(src)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedPortalList)
	}
	root, rest, err := parseSexpr(tokens)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: unexpected %q after the list", ErrMalformedPortalList, rest[0])
	}
	if !root.isList() {
		return nil, fmt.Errorf("%w: expected a list, got %q", ErrMalformedPortalList, root.atom)
	}

	specs := make([]PortalSpec, 0, len(root.list))
	for i, item := range root.list {
		spec, err := parsePortal(item)
		if err != nil {
			return nil, fmt.Errorf("portal %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parsePortal(item sexpr) (PortalSpec, error) {
	if !item.isList() || len(item.list) == 0 {
		return PortalSpec{}, fmt.Errorf("%w: portal must be a list", ErrMalformedPortalList)
	}
	for _, child := range item.list {
		if child.isList() {
			return PortalSpec{}, fmt.Errorf("%w: nested list in portal", ErrMalformedPortalList)
		}
	}
	if kind := item.list[0].atom; kind != "AA" {
		return PortalSpec{}, fmt.Errorf("%w: unknown portal type %q", ErrMalformedPortalList, kind)
	}
	if len(item.list) != 9 {
		return PortalSpec{}, fmt.Errorf("%w: AA portal needs 8 values, got %d", ErrMalformedPortalList, len(item.list)-1)
	}

	var coords [6]float64
	for i := range coords {
		v, err := strconv.ParseFloat(item.list[i+1].atom, 64)
		if err != nil {
			return PortalSpec{}, fmt.Errorf("%w: coordinate %q", ErrMalformedPortalList, item.list[i+1].atom)
		}
		coords[i] = v
	}
	axis, err := strconv.Atoi(item.list[7].atom)
	if err != nil || axis < 0 || axis > 2 {
		return PortalSpec{}, fmt.Errorf("%w: axis %q", ErrMalformedPortalList, item.list[7].atom)
	}
	var facing bool
	switch item.list[8].atom {
	case "+":
		facing = true
	case "-":
		facing = false
	default:
		return PortalSpec{}, fmt.Errorf("%w: facing %q must be + or -", ErrMalformedPortalList, item.list[8].atom)
	}

	return PortalSpec{
		Lo:            core.NewVec3(coords[0], coords[1], coords[2]),
		Hi:            core.NewVec3(coords[3], coords[4], coords[5]),
		Axis:          axis,
		FacingForward: facing,
	}, nil
}

// tokenizeSexpr splits src into parentheses and whitespace separated atoms
func tokenizeSexpr(src string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, char := range src {
		switch char {
		case '(', ')':
			flush()
			tokens = append(tokens, string(char))
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			current.WriteRune(char)
		}
	}
	flush()
	return tokens
}

// parseSexpr reads one expression from tokens and returns the rest
func parseSexpr(tokens []string) (sexpr, []string, error) {
	if len(tokens) == 0 {
		return sexpr{}, nil, fmt.Errorf("%w: unexpected end", ErrMalformedPortalList)
	}
	switch tok := tokens[0]; tok {
	case ")":
		return sexpr{}, nil, fmt.Errorf("%w: unbalanced )", ErrMalformedPortalList)
	case "(":
		list := []sexpr{}
		rest := tokens[1:]
		for {
			if len(rest) == 0 {
				return sexpr{}, nil, fmt.Errorf("%w: missing )", ErrMalformedPortalList)
			}
			if rest[0] == ")" {
				return sexpr{list: list}, rest[1:], nil
			}
			var child sexpr
			var err error
			child, rest, err = parseSexpr(rest)
			if err != nil {
				return sexpr{}, nil, err
			}
			list = append(list, child)
		}
	default:
		return sexpr{atom: tok}, tokens[1:], nil
	}
}
