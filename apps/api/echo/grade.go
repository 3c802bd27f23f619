package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core/grade"
	"github.com/acadeo/gradebook/core/role"
)

type gradeApi struct {
	svc *grade.Service
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *grade.Service) {
	api := gradeApi{svc: svc}

	gg := g.Group("/grades", jwt)
	gg.PUT("", api.upsert, instructorMiddleware())
	gg.POST("/submit", api.submit, instructorMiddleware())
	gg.GET("/students/:id", api.byStudent)
	gg.GET("/courses/:id", api.byCourse, instructorMiddleware())
}

// upsert records one grade entry; the row is created on first entry and
// updated in place afterwards.
func (api *gradeApi) upsert(ctx echo.Context) error {
	var data grade.UpsertGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpsertGrade")
	}
	if err := data.Validate(appValidate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	grd, err := api.svc.Upsert(ctx.Request().Context(), claims.Role, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "upserting grade")
	}
	return ctx.JSON(http.StatusOK, grd)
}

// submit locks in all of the caller's pending grades as one batch.
func (api *gradeApi) submit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	n, err := api.svc.Submit(ctx.Request().Context(), claims.Role, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "submitting grades")
	}
	return ctx.JSON(http.StatusOK, SubmitResponse{Submitted: n})
}

func (api *gradeApi) byStudent(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// students only see their own grades
	if claims.Role == role.Student && claims.Subject != ctx.Param("id") {
		return errHttpForbidden
	}

	grades, err := api.svc.ByStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) byCourse(ctx echo.Context) error {
	grades, err := api.svc.ByCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

type SubmitResponse struct {
	Submitted int `json:"submitted"`
}
