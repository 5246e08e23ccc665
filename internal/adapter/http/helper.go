package http

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// queryLimit reads ?limit=, leaving bounds to the repository.
func queryLimit(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil {
		return 0
	}
	return n
}
