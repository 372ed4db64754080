package validator

import (
	"errors"
	"fmt"

	validatorengine "github.com/go-playground/validator/v10"
	"github.com/golangid/meshserve/candihelper"
)

// StructValidatorOptionFunc type
type StructValidatorOptionFunc func(*StructValidator)

// SetCoreStructValidatorOption option func
func SetCoreStructValidatorOption(additionalConfigFunc ...func(*validatorengine.Validate)) StructValidatorOptionFunc {
	return func(v *StructValidator) {
		ve := validatorengine.New()
		for _, additionalFunc := range additionalConfigFunc {
			additionalFunc(ve)
		}
		v.Validator = ve
	}
}

// StructValidator struct
type StructValidator struct {
	Validator *validatorengine.Validate
}

// NewStructValidator using github.com/go-playground/validator, rules are declared in `validate` struct tag
func NewStructValidator(opts ...StructValidatorOptionFunc) *StructValidator {
	sv := &StructValidator{}
	for _, opt := range opts {
		opt(sv)
	}

	if sv.Validator == nil {
		sv.Validator = validatorengine.New()
	}
	return sv
}

// ValidateStruct return candihelper.MultiError keyed by field namespace when some rules failed
func (v *StructValidator) ValidateStruct(data interface{}) error {
	err := v.Validator.Struct(data)
	if err == nil {
		return nil
	}

	var errs validatorengine.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	multiError := candihelper.NewMultiError()
	for _, e := range errs {
		multiError.Append(e.Namespace(), fmt.Errorf("failed on '%s' rule, value: %v", e.Tag(), e.Value()))
	}
	return multiError
}
