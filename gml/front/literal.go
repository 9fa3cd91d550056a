package front

import (
	"strconv"
	"strings"
)

// ParseReal converts the text of a Real token into its float64 value. Hex
// literals are written `$`-prefixed (spec.md §8 scenario 1: `$ff` == 255.0).
func ParseReal(text string) (float64, error) {
	if strings.HasPrefix(text, "$") {
		n, err := strconv.ParseUint(text[1:], 16, 64)
		if err != nil {
			return 0, err
		}
		return float64(n), nil
	}
	return strconv.ParseFloat(text, 64)
}
