package json22

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"
)

const maxDepth = 10000

// ParseOptions controls Unmarshal.
type ParseOptions struct {
	// Context resolves constructor names. Date is built in.
	Context Context
}

// Unmarshal decodes JSON22 text into a generic value tree made of
// map[string]any, []any, string, float64, bool, nil, time.Time, *big.Int and
// whatever the context's constructors return.
//
// Empty or whitespace-only text decodes to nil.
func Unmarshal(text string, opts ParseOptions) (any, error) {
	p := &parser{s: text, ctx: opts.Context}
	p.skipSpace()
	if p.pos == len(p.s) {
		return nil, nil
	}
	v, err := p.value(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.s) {
		return nil, p.errorf("unexpected character %q after top-level value", p.s[p.pos])
	}
	return v, nil
}

type parser struct {
	s   string
	pos int
	ctx Context
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return p.errorf("unexpected end of input, expected %q", c)
	}
	if p.s[p.pos] != c {
		return p.errorf("unexpected character %q, expected %q", p.s[p.pos], c)
	}
	p.pos++
	return nil
}

func (p *parser) value(depth int) (any, error) {
	if depth > maxDepth {
		return nil, p.errorf("exceeded max depth")
	}
	p.skipSpace()
	if p.pos >= len(p.s) {
		return nil, p.errorf("unexpected end of input")
	}
	switch c := p.s[p.pos]; {
	case c == '{':
		return p.object(depth)
	case c == '[':
		return p.array(depth)
	case c == '"':
		return p.str()
	case c == '-' || isDigit(c):
		return p.number()
	case isIdentStart(c):
		return p.identifier(depth)
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *parser) object(depth int) (any, error) {
	p.pos++ // {
	obj := make(map[string]any)
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == '}' {
		p.pos++
		return obj, nil
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != '"' {
			if p.pos >= len(p.s) {
				return nil, p.errorf("unexpected end of input in object")
			}
			return nil, p.errorf("unexpected character %q, expected object key", p.s[p.pos])
		}
		key, err := p.str()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		obj[key] = v

		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, p.errorf("unexpected end of input in object")
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, p.errorf("unexpected character %q in object", p.s[p.pos])
		}
	}
}

func (p *parser) array(depth int) (any, error) {
	p.pos++ // [
	arr := make([]any, 0)
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ']' {
		p.pos++
		return arr, nil
	}
	for {
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)

		p.skipSpace()
		if p.pos >= len(p.s) {
			return nil, p.errorf("unexpected end of input in array")
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return arr, nil
		default:
			return nil, p.errorf("unexpected character %q in array", p.s[p.pos])
		}
	}
}

// str scans a quoted string literal and hands it to jsoniter for unescaping.
func (p *parser) str() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	escaped := false
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		switch {
		case c == '\\':
			escaped = true
			p.pos += 2
			continue
		case c == '"':
			p.pos++
			lit := p.s[start:p.pos]
			if !escaped {
				return lit[1 : len(lit)-1], nil
			}
			var out string
			if err := mapper.UnmarshalFromString(lit, &out); err != nil {
				return "", &SyntaxError{Offset: start, Msg: "invalid string literal: " + err.Error()}
			}
			return out, nil
		case c < 0x20:
			return "", p.errorf("invalid control character in string")
		}
		p.pos++
	}
	return "", &SyntaxError{Offset: start, Msg: "unterminated string"}
}

func (p *parser) number() (any, error) {
	start := p.pos
	if p.s[p.pos] == '-' {
		p.pos++
		if p.pos < len(p.s) && p.s[p.pos] == 'I' {
			if err := p.keyword("Infinity"); err != nil {
				return nil, err
			}
			return math.Inf(-1), nil
		}
	}
	intStart := p.pos
	digits := p.digits()
	if digits == 0 {
		return nil, p.errorf("invalid number")
	}
	if digits > 1 && p.s[intStart] == '0' {
		return nil, &SyntaxError{Offset: start, Msg: "invalid number " + p.s[start:p.pos] + ": leading zero"}
	}
	integer := true
	if p.pos < len(p.s) && p.s[p.pos] == '.' {
		integer = false
		p.pos++
		if p.digits() == 0 {
			return nil, p.errorf("invalid number")
		}
	}
	if p.pos < len(p.s) && (p.s[p.pos] == 'e' || p.s[p.pos] == 'E') {
		integer = false
		p.pos++
		if p.pos < len(p.s) && (p.s[p.pos] == '+' || p.s[p.pos] == '-') {
			p.pos++
		}
		if p.digits() == 0 {
			return nil, p.errorf("invalid number exponent")
		}
	}
	lit := p.s[start:p.pos]

	if integer && p.pos < len(p.s) && p.s[p.pos] == 'n' {
		p.pos++
		n, ok := new(big.Int).SetString(lit, 10)
		if !ok {
			return nil, &SyntaxError{Offset: start, Msg: "invalid bigint " + lit}
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, &SyntaxError{Offset: start, Msg: "invalid number " + lit}
	}
	return f, nil
}

func (p *parser) digits() int {
	n := 0
	for p.pos < len(p.s) && isDigit(p.s[p.pos]) {
		p.pos++
		n++
	}
	return n
}

func (p *parser) keyword(word string) error {
	if len(p.s)-p.pos < len(word) || p.s[p.pos:p.pos+len(word)] != word {
		return p.errorf("invalid literal")
	}
	p.pos += len(word)
	return nil
}

func (p *parser) identifier(depth int) (any, error) {
	start := p.pos
	for p.pos < len(p.s) && isIdentPart(p.s[p.pos]) {
		p.pos++
	}
	name := p.s[start:p.pos]

	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == '(' {
		if _, reserved := literals[name]; reserved {
			return nil, &SyntaxError{Offset: start, Msg: "literal " + name + " is not a constructor"}
		}
		return p.construct(name, depth)
	}

	switch name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	}
	return nil, &SyntaxError{Offset: start, Msg: "unexpected identifier " + name}
}

var literals = map[string]struct{}{
	"true": {}, "false": {}, "null": {}, "undefined": {}, "NaN": {}, "Infinity": {},
}

func (p *parser) construct(name string, depth int) (any, error) {
	p.pos++ // (
	var arg any
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ')' {
		p.pos++
	} else {
		v, err := p.value(depth + 1)
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		arg = v
	}

	if ctor, ok := p.ctx[name]; ok && ctor != nil {
		v, err := ctor(arg)
		if err != nil {
			return nil, &ConstructorError{Name: name, Err: err}
		}
		return v, nil
	}
	if name == "Date" {
		return newDate(arg)
	}
	return nil, &UnresolvedTypeError{Name: name}
}

func newDate(arg any) (any, error) {
	switch v := arg.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &ConstructorError{Name: "Date", Err: fmt.Errorf("invalid time value %v", v)}
		}
		return time.UnixMilli(int64(v)).UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, &ConstructorError{Name: "Date", Err: err}
		}
		return t.UTC(), nil
	default:
		return nil, &ConstructorError{Name: "Date", Err: fmt.Errorf("unsupported argument %T", arg)}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
