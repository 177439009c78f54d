package handlers

import (
	"github.com/labstack/echo/v4"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error writes an ErrorResponse with status.
func Error(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{Code: code, Message: message})
}
