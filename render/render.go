package render

import (
	"bytes"
	"fmt"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	structpatch "github.com/structpatch/go-structpatch"
)

// Config controls rendering.
type Config struct {
	Color bool
}

type Opt func(*Config)

// Color enables ANSI-colored output. The global color.NoColor switch still
// applies, so output degrades to plain text when not attached to a tty.
func Color(v bool) Opt {
	return func(c *Config) { c.Color = v }
}

var (
	typeColor   = color.RGB(74, 92, 138).SprintfFunc()
	fieldColor  = color.RGB(196, 96, 16).SprintfFunc()
	valueColor  = color.RGB(128, 216, 236).SprintfFunc()
	deleteColor = color.New(color.FgRed, color.CrossedOut).SprintfFunc()
	insertColor = color.New(color.FgGreen).SprintfFunc()
)

// Patch renders p for human consumption: a Patch<Type> header followed by
// one "path: value" line per entry in sorted order.
func Patch(p *structpatch.Patch, opts ...Opt) string {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	buf := bytes.NewBuffer(nil)
	if cfg.Color {
		fmt.Fprintf(buf, "%s", typeColor("Patch<%s>", p.Type()))
	} else {
		fmt.Fprintf(buf, "Patch<%s>", p.Type())
	}
	for _, pair := range p.Pairs() {
		val := pair.Value.String()
		if pair.Value.IsTombstone() {
			val = "!delete"
		}
		if cfg.Color {
			fmt.Fprintf(buf, "\n  %s: %s", fieldColor("%s", pair.Path), valueColor("%s", val))
			continue
		}
		fmt.Fprintf(buf, "\n  %s: %s", pair.Path, val)
	}
	return buf.String()
}

// StringDiff renders an inline word diff between two strings: deletions in
// red strikethrough and insertions in green, or wdiff-style [-..-] / {+..+}
// markers without color.
func StringDiff(from, to string, opts ...Opt) string {
	cfg := &Config{}
	for _, opt := range opts {
		opt(cfg)
	}
	dmp := diffpatch.New()
	diffs := dmp.DiffMain(from, to, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	buf := bytes.NewBuffer(nil)
	for _, d := range diffs {
		switch d.Type {
		case diffpatch.DiffDelete:
			if cfg.Color {
				buf.WriteString(deleteColor("%s", d.Text))
			} else {
				fmt.Fprintf(buf, "[-%s-]", d.Text)
			}
		case diffpatch.DiffInsert:
			if cfg.Color {
				buf.WriteString(insertColor("%s", d.Text))
			} else {
				fmt.Fprintf(buf, "{+%s+}", d.Text)
			}
		default:
			buf.WriteString(d.Text)
		}
	}
	return buf.String()
}
