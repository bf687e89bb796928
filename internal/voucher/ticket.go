package voucher

import (
	"fmt"
	"strings"

	"github.com/fruitcab/cabinet/internal/domain"
)

// RenderTicket formats a voucher as plain text for a 32-column thermal
// printer. Hardware drivers consume this verbatim.
func RenderTicket(v *domain.Voucher, code string) string {
	var b strings.Builder
	line := strings.Repeat("=", 32)

	b.WriteString(line + "\n")
	b.WriteString(center("CASHOUT VOUCHER") + "\n")
	b.WriteString(line + "\n")
	b.WriteString(fmt.Sprintf("AMOUNT:  %10.2f %s\n", v.Amount.Float64(), v.Amount.Currency))
	b.WriteString(fmt.Sprintf("ISSUED:  %s\n", v.IssuedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("EXPIRES: %s\n", v.ExpiresAt.Format("2006-01-02 15:04")))
	b.WriteString(line + "\n")
	b.WriteString(center(code) + "\n")
	b.WriteString(line + "\n")
	b.WriteString(center("KEEP THIS TICKET SAFE") + "\n")

	return b.String()
}

func center(s string) string {
	if len(s) >= 32 {
		return s
	}
	pad := (32 - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
