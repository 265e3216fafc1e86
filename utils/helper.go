package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/invoicing_backend/config"
	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// structValidator reuses the model structs' `binding` tags so save-time
// validation matches the declared field requirements.
var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

func ProcessValidationErrors(err error) map[string]string {

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"error": err.Error()}
	}

	errorResponse := make(map[string]string)
	for _, fieldErr := range validationErrors {
		switch fieldErr.Tag() {
		case "required":
			errorResponse[fieldErr.Field()] = "is required"
		default:
			errorResponse[fieldErr.Field()] = "is invalid"
		}
	}
	return errorResponse
}

// ValidateStruct runs required-field validation and reports the first
// failing field. Missing required fields are fatal to the save attempt.
func ValidateStruct(obj interface{}) error {
	err := structValidator.Struct(obj)
	if err == nil {
		return nil
	}
	for field, msg := range ProcessValidationErrors(err) {
		return errors.New(field + " " + msg)
	}
	return err
}

// ObtainInvoiceEditLock serializes edits to one invoice so a recompute
// sequence is never interleaved with another edit of the same invoice.
// The returned release func must be called when the edit commits or fails.
func ObtainInvoiceEditLock(ctx context.Context, businessId string, invoiceId int, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		// Redis lock is optional in single-process setups (and in tests);
		// the db transaction is still the arbiter of record.
		return func() {}, nil
	}
	lockKey := fmt.Sprintf("InvoiceEdit:%s:%d", businessId, invoiceId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain invoice edit lock", lockKey, err)
		return nil, errors.New("invoice is being edited by another request")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining invoice edit lock", lockKey, err)
		return nil, err
	}
	return func() {
		_ = lock.Release(ctx)
	}, nil
}
