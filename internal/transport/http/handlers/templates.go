package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"github.com/MHafidafandi/sipeduli-console/internal/guard"
)

const pageTemplates = `
{{define "layout-head"}}<!doctype html>
<html lang="id"><head><meta charset="utf-8"><title>{{.Title}} | SI-PEDULI</title></head><body>{{end}}

{{define "login"}}{{template "layout-head" .}}
<main class="login">
  <h1>Masuk ke SI-PEDULI</h1>
  {{with .Error}}<p class="toast error" role="alert">{{.}}</p>{{end}}
  <form method="post" action="/login">
    <input type="hidden" name="next" value="{{.Next}}">
    <label>Email <input type="email" name="email" value="{{.Email}}" required></label>
    <label>Password <input type="password" name="password" required></label>
    <button type="submit">Masuk</button>
  </form>
</main></body></html>{{end}}

{{define "menu"}}<ul>{{range .}}<li><a href="{{.URL}}">{{.Title}}</a>{{with .Items}}{{template "menu" .}}{{end}}</li>{{end}}</ul>{{end}}

{{define "dashboard"}}{{template "layout-head" .}}
<nav>{{template "menu" .Menu}}</nav>
<main class="dashboard">
  <h1>Halo, {{.Session.Profile.Nama}}</h1>
  <section class="actions">
    {{if can "create-users"}}<a href="/dashboard/users/new">Tambah anggota</a>{{end}}
    {{if can "create-activities"}}<a href="/dashboard/activities/new">Buat kegiatan</a>{{end}}
    {{if canAny "verify-donations" "create-donations"}}<a href="/dashboard/donations">Kelola donasi</a>{{end}}
    {{if can "manage-permissions"}}<a href="/dashboard/roles">Kelola hak akses</a>{{else}}<span class="muted">{{denied}}</span>{{end}}
  </section>
  <form method="post" action="/logout"><button type="submit">Keluar</button></form>
</main></body></html>{{end}}

{{define "profile"}}{{template "layout-head" .}}
<nav>{{template "menu" .Menu}}</nav>
<main class="profile">
  <h1>{{.Session.Profile.Nama}}</h1>
  <dl>
    <dt>Username</dt><dd>{{.Session.Profile.Username}}</dd>
    <dt>Email</dt><dd>{{.Session.Profile.Email}}</dd>
    {{with .Session.Profile.Division}}<dt>Divisi</dt><dd>{{.NamaDivisi}}</dd>{{end}}
  </dl>
  {{if canAny "view-dashboard" "view-users"}}<a href="/dashboard">Dashboard</a>{{end}}
  <form method="post" action="/logout"><button type="submit">Keluar</button></form>
</main></body></html>{{end}}
`

// Pages renders the console's HTML views. Each render binds the element gate of the
// current user so templates can call can, canAll and canAny.
type Pages struct {
	tmpl *template.Template
}

// NewPages parses the built-in templates.
func NewPages() *Pages {
	return &Pages{tmpl: template.Must(template.New("pages").Funcs(guard.TemplateFuncs()).Parse(pageTemplates))}
}

// Render executes the named template with gate bound.
func (p *Pages) Render(c *gin.Context, status int, name string, gate guard.ElementGate, data any) {
	tmpl, err := p.tmpl.Clone()
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Render(status, render.HTML{Template: tmpl.Funcs(gate.FuncMap()), Name: name, Data: data})
}
