package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"interntrack/internal/models"
)

const (
	MaxContentLength   = 50_000
	MinAIContentLength = 10
	MaxAIContentLength = 20_000
	MaxTitleLength     = 200
	MaxListEntries     = 1000
)

var (
	validate = newValidator()

	clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := models.ParseDate(fl.Field().String())
		return err == nil
	})
	// An empty clock clears the time, so it is accepted here.
	v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || clockRe.MatchString(s)
	})
	return v
}

var tagMessages = map[string]string{
	"required": "is required",
	"date":     "must be a valid date (YYYY-MM-DD)",
	"hhmm":     "must be in HH:MM 24-hour format",
	"uuid":     "must be a valid id",
}

// validateStruct runs the struct tags on in and folds every field error into
// one validation error, one "field message" pair per failing field.
func validateStruct(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return wrapError(KindInternal, "validation failed", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+" "+fieldMessage(fe))
	}
	sort.Strings(msgs)
	return newError(KindValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("is too long (max %s characters)", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "is invalid (" + fe.Tag() + ")"
}

// clockSeconds converts a validated HH:MM[:SS] string to seconds since midnight.
func clockSeconds(s string) int {
	parts := strings.Split(s, ":")
	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if i >= len(parts) {
			break
		}
		n, _ := strconv.Atoi(parts[i])
		total += n * mult
	}
	return total
}
