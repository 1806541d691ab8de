package market

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"gig-market/internal/marketerrors"
	"gig-market/internal/models"

	"github.com/go-playground/validator/v10"
)

// newValidator reports fields by their json names so messages match the request payload
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("text", isText); err != nil {
		panic(err)
	}
	return v
}

// isText accepts valid UTF-8 without NUL characters; SQLite's length() stops at the first NUL.
func isText(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}

// normalizeGig trims the free-text fields before any length rule is applied
func normalizeGig(in models.NewGig) models.NewGig {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

func normalizeBid(in models.NewBid) models.NewBid {
	in.Message = strings.TrimSpace(in.Message)
	return in
}

func validateNewGig(v *validator.Validate, in models.NewGig) error {
	if err := checkAmount("budget", in.Budget); err != nil {
		return err
	}
	return structError(v.Struct(in))
}

func validateNewBid(v *validator.Validate, in models.NewBid) error {
	if err := checkAmount("price", in.Price); err != nil {
		return err
	}
	return structError(v.Struct(in))
}

// gt=0 lets +Inf through and says nothing useful about NaN
func checkAmount(field string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return marketerrors.Validation("%s: must be a finite number", field)
	}
	return nil
}

func structError(err error) error {
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("service: validate: %w", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s: %s", fe.Field(), fieldMessage(fe)))
	}
	return marketerrors.Validation("%s", strings.Join(messages, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		if fe.Kind() == reflect.String {
			return "length should be less or equal than " + fe.Param()
		}
		return "should be less or equal than " + fe.Param()
	case "text":
		return "must be valid UTF-8 without NUL characters"
	case "gt":
		return "should be greater than " + fe.Param()
	}
	return "incorrect value passed"
}
