package order

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/taproom-menu/internal/domain/cart"
	"github.com/xenking/taproom-menu/internal/domain/pricing"
)

// currencySuffix is the fixed currency label appended to every formatted
// price, regardless of language.
const currencySuffix = " VND"

// FormatPrice renders a stored price for display. Stored prices are
// thousands-of-VND multipliers: 25 displays as "25,000 VND". The expansion
// and grouping are identical for every language.
func FormatPrice(d decimal.Decimal) string {
	return groupThousands(d.Mul(decimal.NewFromInt(1000)).IntPart()) + currencySuffix
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Message renders the cart into the order message sent to the venue:
// a localized header, one numbered block per line in ledger order, a
// localized total, and a localized notes block when the notes are non-blank.
// Output is byte-deterministic for a given cart and language. An empty cart
// renders the header and a zero total with no item lines.
func Message(c cart.Cart, lang Language) string {
	t := stringsFor(lang)

	var b strings.Builder
	b.WriteString(t.NewOrder)
	b.WriteString("\n\n")

	for i, line := range c.Lines {
		unit := pricing.Resolve(&line.Product, line.Variant)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))

		size := ""
		if line.Variant != "" {
			size = fmt.Sprintf(" (%sL)", line.Variant)
		}
		fmt.Fprintf(&b, "%d. %s%s\n", i+1, line.Product.Name, size)
		fmt.Fprintf(&b, "   %dx × %s = %s\n\n", line.Quantity, FormatPrice(unit), FormatPrice(lineTotal))
	}

	fmt.Fprintf(&b, "%s: %s\n", t.Total, FormatPrice(c.Total()))

	if strings.TrimSpace(c.Notes) != "" {
		fmt.Fprintf(&b, "\n%s: %s\n", t.Notes, c.Notes)
	}

	return b.String()
}

// DispatchURL builds the URI that hands the message to WhatsApp. The phone is
// reduced to its digits (dropping the leading + and any separators) and the
// message is percent-encoded with spaces as %20. Opening the URI is the
// caller's responsibility; this performs no network call.
func DispatchURL(message, phone string) string {
	var digits strings.Builder
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits.WriteByte(phone[i])
		}
	}

	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits.String() + "?text=" + encoded
}
