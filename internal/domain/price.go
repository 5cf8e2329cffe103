package domain

import "fmt"

// FormatPrice renders a price in cents as dollars, e.g. 12999 -> "$129.99".
func FormatPrice(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
