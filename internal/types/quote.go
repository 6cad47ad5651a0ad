package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// QuoteStyle selects how string literals are written for a target language
type QuoteStyle string

const (
	QuoteC      QuoteStyle = "c"
	QuotePython QuoteStyle = "python"
	QuoteGo     QuoteStyle = "go"
)

func (q QuoteStyle) quoter() (func(string) string, error) {
	switch q {
	case QuoteC:
		return quoteC, nil
	case QuotePython:
		return quotePython, nil
	case QuoteGo:
		return strconv.Quote, nil
	}
	return nil, errors.Wrapf(ErrInvalidTable, "unsupported quote style %q", string(q))
}

// Quote renders s as a double-quoted literal of the table's target language
func (t *Table) Quote(s string) string {
	fn, err := t.quote.quoter()
	if err != nil {
		// NewTable rejects unknown styles
		panic(err)
	}
	return fn(s)
}

func quoteC(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				// octal escapes stop after three digits, unlike \x
				fmt.Fprintf(&b, `\%03o`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func quotePython(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
