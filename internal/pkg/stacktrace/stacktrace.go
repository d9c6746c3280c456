// Package stacktrace trims panic stacks down to this module's own frames so
// recovered panics log a short, readable location list.
package stacktrace

import (
	"bufio"
	"bytes"
	"strings"
)

const marker = "/internal/"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame of
// stack that lives under an internal/ directory, outermost call last.
func InternalPaths(stack []byte) []string {
	var paths []string

	sc := bufio.NewScanner(bytes.NewReader(stack))
	for sc.Scan() {
		line := sc.Text()
		// File lines are tab-indented: "\t/abs/path/file.go:42 +0x1d".
		if !strings.HasPrefix(line, "\t") {
			continue
		}

		loc, _, _ := strings.Cut(strings.TrimSpace(line), " ")
		i := strings.Index(loc, marker)
		if i < 0 || !strings.Contains(loc[i:], ".go:") {
			continue
		}
		paths = append(paths, loc[i+1:])
	}

	return paths
}
