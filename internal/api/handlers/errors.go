package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/Wikid82/warden/backend/internal/api/middleware"
	"github.com/Wikid82/warden/backend/internal/llm"
	"github.com/Wikid82/warden/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// FieldError is one entry of a validation failure response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var registerOnce sync.Once

// RegisterValidation makes binding errors report JSON field names.
func RegisterValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bindJSON binds the request body into obj and answers 400 on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondValidation(c, err)
		return false
	}
	return true
}

func respondValidation(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": details})
		return
	}

	msg := "request body must be valid JSON"
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		msg = fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.String())
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Validation failed",
		"details": []FieldError{{Field: "body", Message: msg}},
	})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// respondError maps service and agent errors to a status code. Unexpected
// errors are logged and answered with fallback.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": capitalize(rootMessage(err))})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")})
	case errors.Is(err, llm.ErrDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI service not configured"})
	case errors.Is(err, llm.ErrMalformed), errors.Is(err, llm.ErrInvalid):
		middleware.GetRequestLogger(c).WithError(err).Warn("model response rejected")
		c.JSON(http.StatusBadGateway, gin.H{"error": "AI response could not be processed"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "AI service timed out"})
	default:
		middleware.GetRequestLogger(c).WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// rootMessage returns the message of the not-found sentinel inside err.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// actor names the caller in audit entries.
func actor(c *gin.Context) string {
	if id, ok := c.Get("userID"); ok {
		return fmt.Sprintf("user:%v", id)
	}
	return "api"
}

// queryInt parses an integer query parameter, returning 0 when absent or
// malformed.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
