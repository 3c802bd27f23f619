package user

import (
	texttmpl "text/template"

	"github.com/volatiletech/null/v8"
)

var (
	welcomeTmpl = texttmpl.Must(texttmpl.New("welcome").Parse(`Hi {{.Name}},

An account has been created for you.

Username: {{.Username}}

Sign in at {{.BaseURL}} to get started.
`))

	passwordResetTmpl = texttmpl.Must(texttmpl.New("password_reset").Parse(`Hi {{.Name}},

You requested a password reset. Follow the link below to choose a new password:

{{.URL}}

If you did not request this, you can safely ignore this message.
`))
)

type welcomeTmplData struct {
	Name     string
	Username string
	BaseURL  string
}

type passwordResetTmplData struct {
	Name string
	URL  string
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func nullInt(i int) null.Int {
	return null.NewInt(i, i > 0)
}
