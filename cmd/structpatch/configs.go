package main

import (
	"fmt"
	"os"

	gojson "github.com/goccy/go-json"
	goyaml "github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
)

type MainConfig struct {
	Y     bool `cli:"name=y aliases=yaml desc='do document i/o in yaml'"`
	Color bool `cli:"name=color desc='force colored output'"`

	Main *cli.Command
}

type DiffConfig struct {
	*MainConfig
	JSON bool `cli:"name=json desc='output the patch as json instead of rendering it'"`

	Diff *cli.Command
}

type ApplyConfig struct {
	*MainConfig

	Apply *cli.Command
}

type LogConfig struct {
	*MainConfig

	Log *cli.Command
}

// useColor decides whether rendered output carries ANSI colors: forced by
// -color, otherwise on when stdout is a terminal.
func (cfg *MainConfig) useColor() bool {
	if cfg.Color {
		color.NoColor = false
		return true
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func (cfg *MainConfig) readDoc(path string) (any, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc any
	if cfg.Y {
		if err := goyaml.Unmarshal(d, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return doc, nil
	}
	if err := gojson.Unmarshal(d, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

func (cfg *MainConfig) writeDoc(doc any) error {
	var (
		d   []byte
		err error
	)
	if cfg.Y {
		d, err = goyaml.Marshal(doc)
	} else {
		d, err = gojson.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(d, '\n'))
	return err
}
