package receipt

import (
	"math/big"
	"regexp"
	"strings"
)

var (
	nonDigits = regexp.MustCompile(`\D`)
	digitRuns = regexp.MustCompile(`\d+`)
)

// FormatTaxID formats a CPF (11 digits) or CNPJ (14 digits).
// Any other digit count returns the input unchanged.
func FormatTaxID(raw string) string {
	if raw == "" {
		return ""
	}
	d := nonDigits.ReplaceAllString(raw, "")
	switch len(d) {
	case 11:
		return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
	case 14:
		return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
	}
	return raw
}

// FormatSaleSequence renders the sale number as exactly three digits,
// keeping only the low-order digits of larger values.
func FormatSaleSequence(ref SaleRef) string {
	switch ref.Kind() {
	case SaleRefNumber:
		n := ref.Number()
		if n < 0 {
			n = -n
		}
		return lastThree(new(big.Int).SetInt64(n))
	case SaleRefText:
		runs := digitRuns.FindAllString(ref.Text(), -1)
		if len(runs) == 0 {
			return "000"
		}
		n, ok := new(big.Int).SetString(strings.Join(runs, ""), 10)
		if !ok {
			return "000"
		}
		return lastThree(n)
	}
	return "000"
}

func lastThree(n *big.Int) string {
	s := "00" + n.String()
	return s[len(s)-3:]
}

// FormatCurrency renders an amount with two decimals, no grouping and no
// symbol. Halves round away from zero. Absent amounts render as "0.00".
func FormatCurrency(a Amount) string {
	return a.Decimal().StringFixed(2)
}

// FormatQuantity renders a quantity without trailing zeros
func FormatQuantity(a Amount) string {
	return a.Decimal().String()
}
