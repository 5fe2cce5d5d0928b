package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/structpatch/go-structpatch/journal"
	"github.com/structpatch/go-structpatch/render"
)

func logCmd(cfg *LogConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Log.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: log needs a journal database file", cli.ErrUsage)
	}
	j, err := journal.Open(args[0])
	if err != nil {
		return err
	}
	defer j.Close()
	recs, err := j.All()
	if err != nil {
		return err
	}
	useColor := cfg.useColor()
	for _, rec := range recs {
		fwd, _, err := rec.Patches()
		if err != nil {
			return err
		}
		fmt.Printf("%06d %s\n%s\n", rec.Seq, rec.At.Format("2006-01-02 15:04:05"),
			render.Patch(fwd, render.Color(useColor)))
	}
	return nil
}
