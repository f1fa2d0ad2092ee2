package npy

import (
	"strconv"
)

// header is the decoded dict literal NumPy writes after the preamble, e.g.
// {'descr': '<U1', 'fortran_order': False, 'shape': (3,), }
type header struct {
	descr        string
	fortranOrder bool
	shape        []int
}

// parseHeader reads the restricted Python dict-literal grammar NumPy's header
// writer produces:
//
//	dict  = "{" [ entry { "," entry } [ "," ] ] "}"
//	entry = string ":" value
//	value = string | "True" | "False" | int | tuple | list
//	tuple = "(" [ int { "," int } [ "," ] ] ")"
//
// A list (the descr of a structured dtype) is kept as its source text.
func parseHeader(src string) (header, error) {
	p := &headerParser{src: src}

	entries, err := p.parseDict()
	if err != nil {
		return header{}, err
	}

	p.skipSpace()

	if p.pos != len(p.src) {
		return header{}, headerErrorf("unexpected %q after header dict", p.src[p.pos:])
	}

	var hdr header

	switch descr := entries["descr"].(type) {
	case string:
		hdr.descr = descr
	case listLiteral:
		hdr.descr = string(descr)
	default:
		return header{}, headerErrorf("missing or non-string 'descr'")
	}

	fortran, ok := entries["fortran_order"].(bool)
	if !ok {
		return header{}, headerErrorf("missing or non-bool 'fortran_order'")
	}

	hdr.fortranOrder = fortran

	shape, ok := entries["shape"].([]int)
	if !ok {
		return header{}, headerErrorf("missing or non-tuple 'shape'")
	}

	hdr.shape = shape

	return hdr, nil
}

// listLiteral is the unparsed source of a bracketed list value.
type listLiteral string

type headerParser struct {
	src string
	pos int
}

func (p *headerParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// peek returns the next non-space byte, or 0 at end of input.
func (p *headerParser) peek() byte {
	p.skipSpace()

	if p.pos >= len(p.src) {
		return 0
	}

	return p.src[p.pos]
}

func (p *headerParser) expect(c byte) error {
	if p.peek() != c {
		return headerErrorf("expected %q at offset %d", c, p.pos)
	}

	p.pos++

	return nil
}

func (p *headerParser) parseDict() (map[string]any, error) {
	err := p.expect('{')
	if err != nil {
		return nil, err
	}

	entries := make(map[string]any)

	for p.peek() != '}' {
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}

		if _, dup := entries[key]; dup {
			return nil, headerErrorf("duplicate key %q", key)
		}

		err = p.expect(':')
		if err != nil {
			return nil, err
		}

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		entries[key] = value

		if p.peek() != ',' {
			break
		}

		p.pos++
	}

	err = p.expect('}')
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (p *headerParser) parseValue() (any, error) {
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.parseString()
	case c == '(':
		return p.parseTuple()
	case c == '[':
		return p.parseList()
	case c == '-' || isDigit(c):
		return p.parseInt()
	case c == 'T' || c == 'F':
		return p.parseBool()
	default:
		return nil, headerErrorf("unexpected value at offset %d", p.pos)
	}
}

// parseString reads a single- or double-quoted literal. Escapes are not part of
// the grammar NumPy emits for header keys and descriptors.
func (p *headerParser) parseString() (string, error) {
	quote := p.peek()
	if quote != '\'' && quote != '"' {
		return "", headerErrorf("expected string at offset %d", p.pos)
	}

	start := p.pos + 1

	for i := start; i < len(p.src); i++ {
		switch p.src[i] {
		case quote:
			p.pos = i + 1

			return p.src[start:i], nil
		case '\\':
			return "", headerErrorf("escape sequences are not supported (offset %d)", i)
		}
	}

	return "", headerErrorf("unterminated string at offset %d", p.pos)
}

func (p *headerParser) parseBool() (bool, error) {
	rest := p.src[p.pos:]

	switch {
	case len(rest) >= 4 && rest[:4] == "True":
		p.pos += 4

		return true, nil
	case len(rest) >= 5 && rest[:5] == "False":
		p.pos += 5

		return false, nil
	default:
		return false, headerErrorf("expected True or False at offset %d", p.pos)
	}
}

func (p *headerParser) parseInt() (int, error) {
	p.skipSpace()

	start := p.pos
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		p.pos++
	}

	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}

	// Python 2 headers may carry a long suffix.
	end := p.pos
	if p.pos < len(p.src) && p.src[p.pos] == 'L' {
		p.pos++
	}

	n, err := strconv.Atoi(p.src[start:end])
	if err != nil {
		return 0, headerErrorf("invalid integer %q", p.src[start:end])
	}

	return n, nil
}

func (p *headerParser) parseTuple() ([]int, error) {
	err := p.expect('(')
	if err != nil {
		return nil, err
	}

	dims := []int{}

	for p.peek() != ')' {
		n, err := p.parseInt()
		if err != nil {
			return nil, err
		}

		if n < 0 {
			return nil, headerErrorf("negative dimension %d", n)
		}

		dims = append(dims, n)

		if p.peek() != ',' {
			break
		}

		p.pos++
	}

	err = p.expect(')')
	if err != nil {
		return nil, err
	}

	return dims, nil
}

// parseList consumes a bracketed list, nested brackets and parentheses
// included, and returns its source text.
func (p *headerParser) parseList() (listLiteral, error) {
	start := p.pos
	depth := 0

	for p.pos < len(p.src) {
		switch c := p.src[p.pos]; c {
		case '\'', '"':
			_, err := p.parseString()
			if err != nil {
				return "", err
			}

			continue
		case '[', '(':
			depth++
		case ']', ')':
			depth--
			if depth == 0 {
				p.pos++

				return listLiteral(p.src[start:p.pos]), nil
			}
		}

		p.pos++
	}

	return "", headerErrorf("unterminated list at offset %d", start)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
