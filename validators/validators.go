package validators

import (
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Indian mobile numbers: exactly 10 digits, first digit 6-9.
var phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// CustomValidator wraps go-playground/validator for echo
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates the validator with the custom rules registered
func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("inphone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
