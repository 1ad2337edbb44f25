package receipt

import "strings"

// ThermalWidth is the column budget of 58 mm thermal paper at the fixed
// point size the print surface assumes.
const ThermalWidth = 32

// truncate cuts text to at most width runes.
func truncate(text string, width int) string {
	r := []rune(text)
	if len(r) > width {
		return string(r[:width])
	}
	return text
}

func padTo(text string, width int) string {
	text = truncate(text, width)
	return text + strings.Repeat(" ", width-len([]rune(text)))
}

func centerTo(text string, width int) string {
	text = truncate(text, width)
	left := (width - len([]rune(text))) / 2
	return padTo(strings.Repeat(" ", left)+text, width)
}

// rightAlign left-pads to width without truncating, like padStart.
func rightAlign(text string, width int) string {
	if n := width - len([]rune(text)); n > 0 {
		return strings.Repeat(" ", n) + text
	}
	return text
}

// splitTo lays out a label on the left and a value on the right, filling
// exactly width columns. The value is truncated to rightMax runes first and
// the label to whatever room remains minus one separating space, so a long
// label can never push an amount out of its column.
func splitTo(left, right string, width, rightMax int) string {
	right = truncate(right, rightMax)
	left = truncate(left, width-len([]rune(right))-1)
	gap := width - len([]rune(left)) - len([]rune(right))
	return left + strings.Repeat(" ", gap) + right
}

// Pad truncates to 32 runes and right-pads with spaces to exactly 32.
func Pad(text string) string {
	return padTo(text, ThermalWidth)
}

// Center centers text within 32 columns. The result is space-filled to
// exactly 32; trailing blanks cost nothing on thermal paper.
func Center(text string) string {
	return centerTo(text, ThermalWidth)
}

// SplitLine right-aligns a value (at most 15 runes) against a left label
// within exactly 32 columns.
func SplitLine(left, right string) string {
	return splitTo(left, right, ThermalWidth, 15)
}
