package utils

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"cdrcgi/internal/shared/cdrid"
)

// RegisterValidators installs the custom binding validations. The
// "cdrid" tag accepts every spelling the identifier normalizer does.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("cdrid", func(fl validator.FieldLevel) bool {
		_, err := cdrid.Parse(fl.Field().String())
		return err == nil
	})
}
