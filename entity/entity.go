// Package entity decodes character references found in markup text and
// attribute values.
package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"
)

// ErrUnrecognizedEntity is returned (wrapped) when reference cannot be resolved.
var ErrUnrecognizedEntity = errors.New("unrecognized entity")

// frequent entities are checked first.
var frequent = map[string]rune{
	"amp":  '&',
	"lt":   '<',
	"gt":   '>',
	"quot": '"',
	"apos": '\'',
	"nbsp": 0xA0,
}

// latin1 covers U+00A0..U+00FF in code point order.
var latin1 = [...]string{
	"nbsp", "iexcl", "cent", "pound", "curren", "yen", "brvbar", "sect",
	"uml", "copy", "ordf", "laquo", "not", "shy", "reg", "macr",
	"deg", "plusmn", "sup2", "sup3", "acute", "micro", "para", "middot",
	"cedil", "sup1", "ordm", "raquo", "frac14", "frac12", "frac34", "iquest",
	"Agrave", "Aacute", "Acirc", "Atilde", "Auml", "Aring", "AElig", "Ccedil",
	"Egrave", "Eacute", "Ecirc", "Euml", "Igrave", "Iacute", "Icirc", "Iuml",
	"ETH", "Ntilde", "Ograve", "Oacute", "Ocirc", "Otilde", "Ouml", "times",
	"Oslash", "Ugrave", "Uacute", "Ucirc", "Uuml", "Yacute", "THORN", "szlig",
	"agrave", "aacute", "acirc", "atilde", "auml", "aring", "aelig", "ccedil",
	"egrave", "eacute", "ecirc", "euml", "igrave", "iacute", "icirc", "iuml",
	"eth", "ntilde", "ograve", "oacute", "ocirc", "otilde", "ouml", "divide",
	"oslash", "ugrave", "uacute", "ucirc", "uuml", "yacute", "thorn", "yuml",
}

const latin1First = 0xA0

var latin1Index = func() map[string]rune {
	m := make(map[string]rune, len(latin1))
	for i, name := range latin1 {
		m[name] = rune(latin1First + i)
	}
	return m
}()

// Table resolves character references. The user part of the table may be
// extended at any time; lookups are safe to run concurrently with each other
// and with registration.
type Table struct {
	mu   sync.RWMutex
	user map[string]rune
}

// NewTable returns table with built-in entities only.
func NewTable() *Table {
	return &Table{user: make(map[string]rune)}
}

// Register adds (or replaces) user entity.
func (t *Table) Register(name string, r rune) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.user[name] = r
}

// RegisterRange registers names for consecutive code points starting with
// first. Empty names are holes: the code point is skipped.
func (t *Table) RegisterRange(names []string, first rune) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, name := range names {
		if name == "" {
			continue
		}
		t.user[name] = first + rune(i)
	}
}

// Reset drops all user entities.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.user)
}

// Decode resolves symbol (reference without enclosing '&' and ';'). Numeric
// references start with '#' (decimal) or '#x' (hexadecimal).
func (t *Table) Decode(symbol string) (rune, error) {
	if symbol == "" {
		return 0, fmt.Errorf("empty reference: %w", ErrUnrecognizedEntity)
	}
	if num, ok := strings.CutPrefix(symbol, "#"); ok {
		return decodeNumeric(num)
	}
	if r, ok := frequent[symbol]; ok {
		return r, nil
	}
	if r, ok := latin1Index[symbol]; ok {
		return r, nil
	}
	if t != nil {
		t.mu.RLock()
		r, ok := t.user[symbol]
		t.mu.RUnlock()
		if ok {
			return r, nil
		}
	}
	return 0, fmt.Errorf("&%s;: %w", symbol, ErrUnrecognizedEntity)
}

func decodeNumeric(num string) (rune, error) {
	base := 10
	digits := num
	if len(num) > 0 && (num[0] == 'x' || num[0] == 'X') {
		base, digits = 16, num[1:]
	}
	if digits == "" {
		return 0, fmt.Errorf("&#%s;: %w", num, ErrUnrecognizedEntity)
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil || v == 0 || !utf8.ValidRune(rune(v)) {
		return 0, fmt.Errorf("&#%s;: %w", num, ErrUnrecognizedEntity)
	}
	return rune(v), nil
}

// Names returns all names known to the table for code point r, built-ins first.
func (t *Table) Names(r rune) []string {
	var names []string
	for name, v := range frequent {
		if v == r && name != "nbsp" {
			names = append(names, name)
		}
	}
	if r >= latin1First && int(r-latin1First) < len(latin1) {
		names = append(names, latin1[r-latin1First])
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for name, v := range t.user {
		if v == r {
			names = append(names, name)
		}
	}
	return names
}
