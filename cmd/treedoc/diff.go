package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

var (
	delColor = color.RGB(0xd0, 0x40, 0x40).SprintfFunc()
	insColor = color.RGB(0x40, 0xb0, 0x40).SprintfFunc()
)

// diff writes a line diff of a and b.
func (cfg *MainConfig) diff(w io.Writer, a, b string) error {
	if cfg.colored(w) {
		color.NoColor = false
	} else {
		color.NoColor = true
	}
	for _, line := range diffLines(a, b) {
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("error writing: %w", err)
		}
	}
	return nil
}

func diffLines(a, b string) []string {
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	var res []string
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffpatch.DiffDelete:
				res = append(res, delColor("-%s", line))
			case diffpatch.DiffInsert:
				res = append(res, insColor("+%s", line))
			case diffpatch.DiffEqual:
				res = append(res, " "+line)
			}
		}
	}
	return res
}

// splitLines splits s keeping line terminators; a missing final one is
// added.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	res := strings.SplitAfter(s, "\n")
	if res[len(res)-1] == "" {
		res = res[:len(res)-1]
	} else {
		res[len(res)-1] += "\n"
	}
	return res
}
