package app

import (
	errprocess "chat_delivery_service/pkg/err"

	"github.com/go-playground/validator/v10"
)

// validator caches struct metadata, one instance for the package
var validate = validator.New()

func invalidInput(err error) error {
	return errprocess.Wrap(errprocess.InvalidInput, "invalid input", err)
}
