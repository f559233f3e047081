package validation

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/models"
)

var inputValidate *validator.Validate

func init() {
	inputValidate = validator.New()
	_ = inputValidate.RegisterValidation("dockind", func(fl validator.FieldLevel) bool {
		return models.DocumentKind(fl.Field().String()).Valid()
	})
}

// Struct validates a job or request payload by its `validate` tags.
// Failures are returned as INVALID_INPUT with one entry per offending field.
func Struct(v interface{}) error {
	err := inputValidate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return apperrors.NewInvalidInputError(err.Error())
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag())
	}
	return apperrors.NewInvalidInputError(strings.Join(msgs, "; "))
}
