package main

import (
	"fmt"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/scott-cotton/cli"

	structpatch "github.com/structpatch/go-structpatch"
	"github.com/structpatch/go-structpatch/render"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff needs two document files", cli.ErrUsage)
	}
	a, err := cfg.readDoc(args[0])
	if err != nil {
		return err
	}
	b, err := cfg.readDoc(args[1])
	if err != nil {
		return err
	}
	p, err := structpatch.Diff(a, b)
	if err != nil {
		return err
	}
	if cfg.JSON {
		d, err := gojson.Marshal(p)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(d, '\n'))
		return err
	}
	fmt.Println(render.Patch(p, render.Color(cfg.useColor())))
	return nil
}
