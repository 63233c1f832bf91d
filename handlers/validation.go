package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"safiri-mazao-api/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Tanzanian mobile number in local format
var tzPhone = regexp.MustCompile(`^0[0-9]{9}$`)

var registerOnce sync.Once

// RegisterValidators installs the domain tags on gin's validator.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("tzphone", func(fl validator.FieldLevel) bool {
			return tzPhone.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("vehicletype", func(fl validator.FieldLevel) bool {
			return models.VehicleType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("transporterstatus", func(fl validator.FieldLevel) bool {
			return models.TransporterStatus(fl.Field().String()).Valid()
		})
	})
}

// bindJSON decodes the body into req. On failure it writes the 400 response
// and returns false.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = fieldMessage(fe)
		}
		validationFailed(c, fields)
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
	return false
}

func validationFailed(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
}

// fieldPath drops the struct name from the namespace: pickupLocation.name
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "tzphone":
		return "must be 10 digits starting with 0"
	case "vehicletype":
		return "must be one of: " + joinValues(models.VehicleTypes())
	case "orderstatus":
		return "must be one of: " + joinValues(models.AllOrderStatuses())
	case "transporterstatus":
		return "must be one of: " + joinValues([]models.TransporterStatus{
			models.TransporterActive, models.TransporterInactive, models.TransporterSuspended,
		})
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	}
	return "failed on " + fe.Tag()
}

func joinValues[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
