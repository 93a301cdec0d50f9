// Package format renders money and Brazilian document numbers the way the
// storefront shows them.
package format

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonDigit = regexp.MustCompile(`\D`)

// BRL formats an amount as Brazilian reais, e.g. "R$ 1.234,56".
func BRL(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	return sign + "R$ " + groupThousands(whole) + "," + cents
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Digits strips everything that is not a decimal digit.
func Digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

var (
	phoneArea   = regexp.MustCompile(`(\d{2})(\d)`)
	phoneSuffix = regexp.MustCompile(`(\d{4,5})(\d{4})$`)

	cpfGroup  = regexp.MustCompile(`(\d{3})(\d)`)
	cpfSuffix = regexp.MustCompile(`(\d{3})(\d{1,2})$`)
)

// Phone masks a partial or complete phone number: "(11) 98765-4321" for
// mobiles, "(11) 8765-4321" for landlines. Extra digits are dropped.
func Phone(raw string) string {
	v := truncate(Digits(raw), 11)
	v = replaceFirst(phoneArea, v, "($1) $2")
	return replaceFirst(phoneSuffix, v, "$1-$2")
}

// CPF masks a partial or complete CPF as "123.456.789-01".
func CPF(raw string) string {
	v := truncate(Digits(raw), 11)
	v = replaceFirst(cpfGroup, v, "$1.$2")
	v = replaceFirst(cpfGroup, v, "$1.$2")
	return replaceFirst(cpfSuffix, v, "$1-$2")
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func replaceFirst(re *regexp.Regexp, s, template string) string {
	m := re.FindStringSubmatchIndex(s)
	if m == nil {
		return s
	}
	var dst []byte
	dst = re.ExpandString(dst, template, s, m)
	return s[:m[0]] + string(dst) + s[m[1]:]
}
