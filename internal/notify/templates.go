package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const layoutHTML = `{{define "layout"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; border: 1px solid #ddd; border-radius: 8px; padding: 20px; background-color: #f9f9f9;">
  <h2 style="color: #333; text-align: center;">{{.Heading}}</h2>
  <p style="font-size: 16px; color: #555;">Hello <strong>{{.Username}}</strong>,</p>
  {{template "body" .}}
  <div style="text-align: center; margin: 20px 0;">
    <a href="{{.Link}}" style="display: inline-block; padding: 12px 25px; background-color: #007bff; color: #fff; text-decoration: none; border-radius: 5px; font-weight: bold;">{{.LinkLabel}}</a>
  </div>
  <p style="font-size: 14px; color: #999; text-align: center;">If you did not perform this action, please contact our support immediately.</p>
</div>{{end}}`

const accountCreatedHTML = `{{define "body"}}<p style="font-size: 16px; color: #555;">Your account has been <strong style="color: green;">successfully registered</strong>. Welcome aboard!</p>{{end}}`

const loginHTML = `{{define "body"}}<p style="font-size: 16px; color: #555;">Your login at {{.When}} was <strong style="color: green;">successful</strong>.</p>{{end}}`

const accountCreatedText = `Hello {{.Username}},

Your account has been successfully registered. Welcome aboard!
Log in at {{.Link}}

If you did not perform this action, please contact our support immediately.
`

const loginText = `Hello {{.Username}},

Your login at {{.When}} was successful.
Open your dashboard at {{.Link}}

If you did not perform this action, please contact our support immediately.
`

type emailData struct {
	Heading   string
	Username  string
	Link      string
	LinkLabel string
	When      string
}

type emailTemplate struct {
	subject string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func mustTemplate(subject, body, text string) emailTemplate {
	h := htmltemplate.Must(htmltemplate.New("email").Parse(layoutHTML))
	h = htmltemplate.Must(h.Parse(body))
	return emailTemplate{
		subject: subject,
		html:    h,
		text:    texttemplate.Must(texttemplate.New("text").Parse(text)),
	}
}

var (
	accountCreatedTemplate = mustTemplate(SubjectAccountCreated, accountCreatedHTML, accountCreatedText)
	loginTemplate          = mustTemplate(SubjectLogin, loginHTML, loginText)
)

func (t emailTemplate) render(data emailData) (html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := t.html.ExecuteTemplate(&hb, "layout", data); err != nil {
		return "", "", fmt.Errorf("render %q html: %w", t.subject, err)
	}
	if err := t.text.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render %q text: %w", t.subject, err)
	}
	return hb.String(), tb.String(), nil
}
