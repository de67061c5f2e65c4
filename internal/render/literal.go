package render

import (
	"strconv"
	"strings"
)

// Literal formatting for values interpolated into generated Python. Caller
// input only ever reaches a script through these functions.

func intLiteral(v int64) string {
	return strconv.FormatInt(v, 10)
}

func numberLiteral(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

func boolLiteral(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func stringLiteral(v string) string {
	return strconv.Quote(strings.ToValidUTF8(v, "\uFFFD"))
}
