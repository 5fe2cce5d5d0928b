package main

import (
	"fmt"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/scott-cotton/cli"

	structpatch "github.com/structpatch/go-structpatch"
)

func apply(cfg *ApplyConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Apply.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: apply needs a document and a patch file", cli.ErrUsage)
	}
	doc, err := cfg.readDoc(args[0])
	if err != nil {
		return err
	}
	d, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	p := &structpatch.Patch{}
	if err := gojson.Unmarshal(d, p); err != nil {
		return fmt.Errorf("parsing patch %s: %w", args[1], err)
	}
	if err := structpatch.Apply(&doc, p); err != nil {
		return err
	}
	return cfg.writeDoc(doc)
}
