package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// ErrUnknownDirective is returned for statements the scene format does not define
var ErrUnknownDirective = errors.New("unknown directive")

// Statement represents a parsed scene statement
type Statement struct {
	Type    string    // Statement type (Camera, Material, Shape, etc.)
	Subtype string    // Subtype (perspective, diffuse, sphere, etc.)
	Params  ParamSet  // Named parameters
	Values  []float64 // Positional arguments of LookAt, Translate, Rotate and Scale
	Line    int       // Line the statement starts on
}

// statementTypes are the directives that take arguments
var statementTypes = []string{
	"Camera", "Film", "Sampler", "Integrator", "LookAt",
	"Material", "Shape", "LightSource", "AreaLightSource", "MakeNamedMedium",
	"Translate", "Rotate", "Scale",
}

// positionalTypes take bare numbers instead of a subtype and parameters
var positionalTypes = map[string]int{
	"LookAt":    9,
	"Translate": 3,
	"Rotate":    4,
	"Scale":     3,
}

// blockDirectives stand alone on their line
var blockDirectives = []string{"WorldBegin", "WorldEnd", "AttributeBegin", "AttributeEnd"}

// statementHandler receives statements in file order
type statementHandler interface {
	block(directive string, line int) error
	statement(stmt *Statement) error
}

// parser accumulates multi-line statements and hands complete ones to a handler
type parser struct {
	handler        statementHandler
	statementLines []string
	statementStart int
	lineNumber     int
}

// parse reads a scene description from reader
func parse(reader io.Reader, handler statementHandler) error {
	p := &parser{handler: handler}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.lineNumber++
		if err := p.processLine(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", p.lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	// Process any remaining accumulated statement
	if err := p.processAccumulatedStatement(); err != nil {
		return fmt.Errorf("at end of file: %w", err)
	}
	return nil
}

// processLine processes a single line of input
func (p *parser) processLine(line string) error {
	line = strings.TrimSpace(stripComment(line))

	// Skip empty lines and comments
	if line == "" {
		return nil
	}

	for _, directive := range blockDirectives {
		if line == directive {
			if err := p.processAccumulatedStatement(); err != nil {
				return err
			}
			return p.handler.block(directive, p.lineNumber)
		}
	}

	// Check if this line starts a new statement or continues the previous one
	if isStatementStart(line) {
		if err := p.processAccumulatedStatement(); err != nil {
			return err
		}
		p.statementLines = []string{line}
		p.statementStart = p.lineNumber
		return nil
	}

	if first := []rune(line)[0]; unicode.IsUpper(first) {
		return fmt.Errorf("%w: %s", ErrUnknownDirective, strings.Fields(line)[0])
	}
	if len(p.statementLines) == 0 {
		return fmt.Errorf("unexpected continuation line: %s", line)
	}
	p.statementLines = append(p.statementLines, line)
	return nil
}

// processAccumulatedStatement parses the accumulated statement lines, if any
func (p *parser) processAccumulatedStatement() error {
	if len(p.statementLines) == 0 {
		return nil
	}
	fullStatement := strings.Join(p.statementLines, " ")
	p.statementLines = nil

	stmt, err := parseStatement(fullStatement)
	if err != nil {
		return fmt.Errorf("statement on line %d '%s': %w", p.statementStart, fullStatement, err)
	}
	stmt.Line = p.statementStart
	if err := p.handler.statement(stmt); err != nil {
		return fmt.Errorf("%s on line %d: %w", stmt.Type, p.statementStart, err)
	}
	return nil
}

// stripComment removes a # comment that is not inside a quoted string
func stripComment(line string) string {
	inQuotes := false
	for i, char := range line {
		switch char {
		case '"':
			inQuotes = !inQuotes
		case '#':
			if !inQuotes {
				return line[:i]
			}
		}
	}
	return line
}

// isStatementStart determines if a line starts a new statement
func isStatementStart(line string) bool {
	for _, stmt := range statementTypes {
		if strings.HasPrefix(line, stmt+" ") || strings.HasPrefix(line, stmt+"\t") || line == stmt {
			return true
		}
	}
	return false
}

// tokenize splits a statement respecting quoted strings and brackets
func tokenize(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	inBrackets := false

	for _, char := range line {
		switch char {
		case '"':
			current.WriteRune(char)
			if !inBrackets {
				if inQuotes {
					// End of quoted string
					tokens = append(tokens, current.String())
					current.Reset()
				}
			}
			inQuotes = !inQuotes
		case '[':
			if !inQuotes {
				if current.Len() > 0 {
					tokens = append(tokens, current.String())
					current.Reset()
				}
				inBrackets = true
			}
			current.WriteRune(char)
		case ']':
			current.WriteRune(char)
			if !inQuotes && inBrackets {
				tokens = append(tokens, current.String())
				current.Reset()
				inBrackets = false
			}
		case ' ', '\t':
			if inQuotes || inBrackets {
				current.WriteRune(char)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	// Add final token if any
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// splitValues splits the inside of a bracketed array on whitespace outside
// quotes and removes the quotes
func splitValues(s string) []string {
	var values []string
	var current strings.Builder
	inQuotes, quoted := false, false
	for _, char := range s {
		switch {
		case char == '"':
			inQuotes = !inQuotes
			quoted = true
		case (char == ' ' || char == '\t') && !inQuotes:
			if current.Len() > 0 || quoted {
				values = append(values, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(char)
		}
	}
	if current.Len() > 0 || quoted {
		values = append(values, current.String())
	}
	return values
}

func isQuoted(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"")
}

// parseStatement parses a single statement
func parseStatement(line string) (*Statement, error) {
	parts := tokenize(line)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty statement")
	}
	stmt := &Statement{Type: parts[0], Params: make(ParamSet)}

	// LookAt and the transforms take bare numbers
	if n, ok := positionalTypes[stmt.Type]; ok {
		if len(parts)-1 != n {
			return nil, fmt.Errorf("%s requires %d values, got %d", stmt.Type, n, len(parts)-1)
		}
		for _, s := range parts[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid %s value '%s': %w", stmt.Type, s, err)
			}
			stmt.Values = append(stmt.Values, v)
		}
		return stmt, nil
	}

	// Regular statements: Type "subtype" "param type" value ...
	if len(parts) < 2 || !isQuoted(parts[1]) {
		return nil, fmt.Errorf("%s requires a quoted type", stmt.Type)
	}
	stmt.Subtype = strings.Trim(parts[1], "\"")
	parts = parts[2:]

	for i := 0; i < len(parts); i++ {
		if !isQuoted(parts[i]) {
			return nil, fmt.Errorf("expected a quoted parameter declaration, got '%s'", parts[i])
		}
		paramParts := strings.Fields(strings.Trim(parts[i], "\""))
		if len(paramParts) != 2 {
			return nil, fmt.Errorf("parameter declaration '%s' must be \"type name\"", parts[i])
		}
		if i+1 >= len(parts) {
			return nil, fmt.Errorf("parameter '%s' has no value", paramParts[1])
		}
		i++

		var values []string
		if strings.HasPrefix(parts[i], "[") && strings.HasSuffix(parts[i], "]") {
			values = splitValues(parts[i][1 : len(parts[i])-1])
		} else {
			values = []string{strings.Trim(parts[i], "\"")}
		}
		stmt.Params[paramParts[1]] = Param{Type: paramParts[0], Values: values}
	}
	return stmt, nil
}
