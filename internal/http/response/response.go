package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message         string   `json:"message"`
	Code            string   `json:"code,omitempty"`
	MissingRequired []string `json:"missing_required,omitempty"`
	UnmappedFields  []string `json:"unmapped_fields,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondValidation(c *gin.Context, code string, message string, missingRequired, unmappedFields []string) {
	c.JSON(http.StatusUnprocessableEntity, ErrorEnvelope{
		Error: APIError{
			Message:         message,
			Code:            code,
			MissingRequired: missingRequired,
			UnmappedFields:  unmappedFields,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
