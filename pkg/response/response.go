package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/BrooksCoder/RegistrationApp/pkg/errors"
)

// ErrorBody is the uniform error contract returned to clients.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// JSON sends a bare success body. The frontend consumes unwrapped arrays and
// objects, so no envelope is added.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// Created responds with HTTP 201 and points Location at the new resource.
func Created(c *gin.Context, location string, data interface{}) {
	if location != "" {
		c.Header("Location", location)
	}
	JSON(c, http.StatusCreated, data)
}

// Error converts err into the error contract. Untyped errors collapse to a
// generic internal error so driver details never leak.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorBody{Message: appErr.Message, Code: appErr.Code})
}

// AbortWithError writes the error contract and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
