package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/catalog"
	"github.com/acadeo/gradebook/core/enrollment"
	"github.com/acadeo/gradebook/core/grade"
	"github.com/acadeo/gradebook/core/report"
	"github.com/acadeo/gradebook/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountLocked        = echo.NewHTTPError(http.StatusForbidden, user.ErrAccountLocked.Error())
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// httpStatusFor maps domain errors to their HTTP status; anything it does not
// know is a server error.
func httpStatusFor(err error) (int, bool) {
	switch err {
	case user.ErrNotFound, catalog.ErrNotFound, catalog.ErrSubjectNotFound,
		enrollment.ErrNotFound, grade.ErrNotFound:
		return http.StatusNotFound, true
	case user.ErrNotAuthorized, catalog.ErrNotAuthorized, enrollment.ErrNotAuthorized,
		grade.ErrNotAuthorized, report.ErrNotAuthorized:
		return http.StatusForbidden, true
	case user.ErrAccountLocked:
		return http.StatusForbidden, true
	case user.ErrInvalidCredentials,
		user.ErrUsernameExists, user.ErrEmailExists,
		catalog.ErrCourseCodeExists, catalog.ErrSubjectCodeExists,
		catalog.ErrCourseInUse, catalog.ErrNotAnInstructor,
		enrollment.ErrAlreadyEnrolled, enrollment.ErrInvalidStatus,
		grade.ErrInvalidGradeValue, grade.ErrGradeLocked:
		return http.StatusBadRequest, true
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(appTranslator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if status, ok := httpStatusFor(cause); ok {
				code = status
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
