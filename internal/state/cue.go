package state

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// CompileCUEValidator compiles a CUE definition into a ValidateFunc.
//
// The source must evaluate to a single CUE value describing the accepted
// shape; a candidate value passes when it unifies with the definition and
// the result is concrete. This lets applications declare key schemas in
// configuration instead of writing Go predicates:
//
//	validate, err := state.CompileCUEValidator(`{title: string, done: bool}`)
//	store.RegisterSchema("todos", state.Schema{Version: 1, Validate: validate})
//
// Returns a SCHEMA_INVALID error if the source does not compile.
func CompileCUEValidator(src string) (ValidateFunc, error) {
	ctx := cuecontext.New()
	def := ctx.CompileString(src)
	if err := def.Err(); err != nil {
		return nil, &StoreError{
			Code:    ErrCodeSchemaInvalid,
			Message: "CUE schema failed to compile",
			Err:     err,
		}
	}

	return func(value any) bool {
		candidate := ctx.Encode(value)
		if candidate.Err() != nil {
			return false
		}
		unified := def.Unify(candidate)
		if unified.Err() != nil {
			return false
		}
		return unified.Validate(cue.Concrete(true)) == nil
	}, nil
}
