package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core/enrollment"
	"github.com/acadeo/gradebook/core/role"
)

type enrollmentApi struct {
	svc *enrollment.Service
}

func registerEnrollmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *enrollment.Service) {
	api := enrollmentApi{svc: svc}

	eg := g.Group("/enrollments", jwt)
	eg.POST("", api.enroll, instructorMiddleware())
	eg.PUT("/:id/status", api.setStatus, instructorMiddleware())
	eg.GET("/students/:id", api.byStudent)
	eg.GET("/courses/:id", api.byCourse, instructorMiddleware())
}

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := appValidate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), claims.Role, data.StudentID, data.CourseID)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollmentApi) setStatus(ctx echo.Context) error {
	var data SetEnrollmentStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetEnrollmentStatusRequest")
	}
	if err := appValidate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	enr, err := api.svc.SetStatus(ctx.Request().Context(), claims.Role, ctx.Param("id"), enrollment.Status(data.Status))
	if err != nil {
		return errors.Wrap(err, "setting enrollment status")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) byStudent(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// students only see their own enrollments
	if claims.Role == role.Student && claims.Subject != ctx.Param("id") {
		return errHttpForbidden
	}

	enrs, err := api.svc.ByStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *enrollmentApi) byCourse(ctx echo.Context) error {
	enrs, err := api.svc.ByCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

type (
	EnrollRequest struct {
		StudentID string `json:"student_id" validate:"required"`
		CourseID  string `json:"course_id" validate:"required"`
	}

	SetEnrollmentStatusRequest struct {
		Status string `json:"status" validate:"required"`
	}
)
