package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/locvowork/bom_derating/internal/logger"
)

type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func responseError(c echo.Context, status int, message string, err error) error {
	logger.ErrorLog(c.Request().Context(), message, err)
	resp := apiResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.JSON(status, resp)
}

func responseSuccess(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, apiResponse{Success: true, Message: message, Data: data})
}
