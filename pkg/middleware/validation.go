package middleware

import (
	stderrors "errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/wms-platform/scanner-service/pkg/errors"
)

var registerOnce sync.Once

func jsonTagName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return fld.Name
	}
	return name
}

// RegisterValidators adds the barcode rule to gin's binding validator and
// reports fields by their JSON names
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("barcode", validateBarcode)
		v.RegisterTagNameFunc(jsonTagName)
	})
}

// barcode accepts printable, non-blank text with no control characters
func validateBarcode(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.TrimSpace(value) == "" {
		return false
	}
	for _, r := range value {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func fieldMessages(validationErrors validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = formatValidationError(e)
	}
	return fields
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "barcode":
		return "must be a non-blank printable barcode"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}

// BindAndValidate decodes the JSON body into obj. Rule violations become a
// VALIDATION_ERROR keyed by field, anything else a BAD_REQUEST.
func BindAndValidate(c *gin.Context, obj any) *errors.AppError {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) {
		return errors.ErrValidationWithFields("validation failed", fieldMessages(validationErrors))
	}
	return errors.ErrBadRequest("invalid request body: " + err.Error())
}

// ContentType middleware rejects non-JSON request bodies
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && c.Request.ContentLength > 0 {
			if !strings.HasPrefix(c.GetHeader("Content-Type"), "application/json") {
				AbortWithAppError(c, errors.New(errors.CodeInvalidContentType, "Content-Type must be application/json"))
				return
			}
		}
		c.Next()
	}
}
