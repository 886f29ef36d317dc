package seats

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// seatLabelPattern matches row letter plus seat number, e.g. A1, C4
var seatLabelPattern = regexp.MustCompile(`^[A-Z][1-9]$`)

// RegisterValidators installs the seat_label binding tag. Called once during
// route setup.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("seat_label", func(fl validator.FieldLevel) bool {
			return seatLabelPattern.MatchString(fl.Field().String())
		})
	}
}
