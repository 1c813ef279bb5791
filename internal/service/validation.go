package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gitlab.com/yelinaung/invoiceflow/internal/billing"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// validateInput checks struct tags and reports the first failing field as
// a billing.ValidationError.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return billing.Invalid(fe.Field(), describe(fe))
	}
	return billing.Invalid("input", err.Error())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}

// requireClient checks that clientID names a client of the account.
func requireClient(ctx context.Context, tx Store, accountID, clientID int64) error {
	if _, err := tx.Clients().Get(ctx, accountID, clientID); err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			return &billing.ValidationError{Field: "client_id", Err: billing.ErrNotFound, Details: "client does not exist"}
		}
		return err
	}
	return nil
}

// validateWindow rejects an end date before the start date.
func validateWindow(field string, start, end time.Time) error {
	if billing.DateOf(end).Before(billing.DateOf(start)) {
		return billing.Invalid(field, "must not be before the issue date")
	}
	return nil
}
