package email

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/jobboard/verification/internal/pkg/mail"
	"github.com/jobboard/verification/internal/verification/entity"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlTemplate = htmltemplate.Must(htmltemplate.New("verification.html").Option("missingkey=zero").ParseFS(templateFS, "templates/verification.html"))
	textTemplate = texttemplate.Must(texttemplate.New("verification.txt").Option("missingkey=zero").ParseFS(templateFS, "templates/verification.txt"))
)

type templateData struct {
	Name             string
	Code             string
	ExpiresInMinutes int
	ProductName      string
	SupportEmail     string
}

func (d *Dispatcher) render(in entity.DeliveryRequest) (mail.Message, error) {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = "there"
	}

	data := templateData{
		Name:             name,
		Code:             in.Code,
		ExpiresInMinutes: in.ExpiresInMinutes,
		ProductName:      d.productName,
		SupportEmail:     d.supportEmail,
	}

	var html bytes.Buffer
	if err := htmlTemplate.Execute(&html, data); err != nil {
		return mail.Message{}, err
	}

	var text bytes.Buffer
	if err := textTemplate.Execute(&text, data); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:       []string{in.Email},
		Subject:  "Your " + d.productName + " verification code",
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
