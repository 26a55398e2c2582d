package audio

import (
	"strconv"
	"strings"
)

// HeadingPhrase returns the read-out for a whole-degree heading, one digit
// at a time: 130 becomes "heading 1 3 0".
func HeadingPhrase(deg int) string {
	digits := strconv.Itoa(deg)
	var b strings.Builder
	b.WriteString("heading")
	for _, r := range digits {
		b.WriteByte(' ')
		b.WriteRune(r)
	}
	return b.String()
}
