package structpatch

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/structpatch/go-structpatch/codec"
	"github.com/structpatch/go-structpatch/kpath"
)

// Validator decides whether a (path, value) pair may be admitted into a
// patch. Validators are shared between a patch and its clones and may be
// called from independent diff calls running in parallel, so they must be
// side-effect-free.
type Validator interface {
	Validate(path string, value codec.Value) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(path string, value codec.Value) error

func (f ValidatorFunc) Validate(path string, value codec.Value) error {
	return f(path, value)
}

// AcceptAll returns the default validator, which admits every pair.
func AcceptAll() Validator {
	return ValidatorFunc(func(string, codec.Value) error {
		return nil
	})
}

// Fields returns a validator admitting only entries whose first path
// segment is one of the named fields, or the whole-value sentinel. This is
// the validator shape a per-type generator would produce for a record type.
func Fields(names ...string) Validator {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[kpath.FieldSegment(n)] = true
	}
	return ValidatorFunc(func(path string, _ codec.Value) error {
		if kpath.IsSelf(path) {
			return nil
		}
		first, _, err := kpath.Split(path)
		if err != nil {
			return err
		}
		if !known[first] {
			return fmt.Errorf("field %q is not known", first)
		}
		return nil
	})
}

// exprEnv is the environment a validator expression runs against.
type exprEnv struct {
	Path  string `expr:"path"`
	Value string `expr:"value"`
}

// Expr compiles src into a validator predicate with expr-lang. The program
// sees the entry as `path` and `value` strings and must yield a boolean;
// false rejects the entry.
//
//	v, err := structpatch.Expr(`path != "secret"`)
func Expr(src string) (Validator, error) {
	program, err := expr.Compile(src, expr.Env(exprEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling validator %q: %w", src, err)
	}
	return &exprValidator{src: src, program: program}, nil
}

type exprValidator struct {
	src     string
	program *vm.Program
}

func (v *exprValidator) Validate(path string, value codec.Value) error {
	out, err := expr.Run(v.program, exprEnv{Path: path, Value: value.String()})
	if err != nil {
		return fmt.Errorf("running validator %q: %w", v.src, err)
	}
	if ok, _ := out.(bool); !ok {
		return fmt.Errorf("rejected by %q", v.src)
	}
	return nil
}
