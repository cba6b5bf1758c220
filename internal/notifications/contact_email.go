package notifications

import (
	"bytes"
	"html/template"
)

const contactMessageTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hello {{.ToName}},</p>
  <p>A visitor left a message through the contact form:</p>
  <ul>
    <li>Name: {{.Name}}</li>
    <li>Email: {{.Email}}</li>
    <li>Phone: {{.Phone}}</li>
    {{if .Service}}<li>Service of interest: {{.Service}}</li>{{end}}
  </ul>
  <p>{{.Message}}</p>
</body>
</html>`

var contactMessageTmpl = template.Must(template.New("contact_message").Parse(contactMessageTemplate))

type contactMessageData struct {
	Name    string
	Email   string
	Phone   string
	Service string
	Message string
	ToName  string
}

func buildContactMessageHTML(name, email, phone, service, message, toName string) (string, error) {
	data := contactMessageData{
		Name:    name,
		Email:   email,
		Phone:   phone,
		Service: service,
		Message: message,
		ToName:  toName,
	}
	var buf bytes.Buffer
	if err := contactMessageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
