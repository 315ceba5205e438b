package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/sala/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the `ordering` query param, keeping the fields present in allowed.
func (ord *Ordering) Bind(ctx echo.Context, allowed map[string]string) {
	raw := ctx.QueryParam(orderingParam)
	if raw == "" {
		return
	}
	ord.Orderings = core.ParseOrderings(raw, allowed)
}

// paramID returns the positive integer path param name, or a 404.
func paramID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}
