package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core/role"
	"github.com/acadeo/gradebook/core/user"
)

// minRoleMiddleware gates a route on the caller holding at least min in the
// role hierarchy. The services re-check policy; this just keeps obviously
// unauthorized traffic out of them.
func minRoleMiddleware(min role.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if role.Priority(claims.Role) >= role.Priority(min) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc      { return minRoleMiddleware(role.Admin) }
func instructorMiddleware() echo.MiddlewareFunc { return minRoleMiddleware(role.Instructor) }

// ctxUserOrAdminMiddleware lets a user through to their own detail endpoints,
// and admins through to anyone's; the target user lands in the context as
// "object". Anything else 404s so account ids cannot be probed.
func ctxUserOrAdminMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			if ctx.Param("id") == ctxUsr.ID || role.Priority(ctxUsr.Role) >= role.Priority(role.Admin) {
				if usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", usr)
					return next(ctx)
				} else if errors.Cause(err) != user.ErrNotFound {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}
