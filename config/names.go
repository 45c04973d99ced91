package config

import (
	"os"
	"strings"
)

const badFileName = "_bad_file_name_"

// CleanFileName removes characters not allowed in file names on this
// platform.
func CleanFileName(in string) string {
	bad := forbiddenInNames + string(os.PathSeparator) + string(os.PathListSeparator)
	out := strings.Map(func(sym rune) rune {
		if sym == 0 || strings.ContainsRune(bad, sym) {
			return -1
		}
		return sym
	}, in)
	if trimLeadingDots {
		out = strings.TrimLeft(out, ".")
	}
	if len(out) == 0 {
		out = badFileName
	}
	return out
}
