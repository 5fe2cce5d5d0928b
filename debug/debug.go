package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Diff     bool
	Apply    bool
	Validate bool
	History  bool
}

var d *debug

func init() {
	d = &debug{}
	d.Diff = boolEnv("SP_DEBUG_DIFF")
	d.Apply = boolEnv("SP_DEBUG_APPLY")
	d.Validate = boolEnv("SP_DEBUG_VALIDATE")
	d.History = boolEnv("SP_DEBUG_HISTORY")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Diff() bool {
	return d.Diff
}
func Apply() bool {
	return d.Apply
}
func Validate() bool {
	return d.Validate
}
func History() bool {
	return d.History
}
