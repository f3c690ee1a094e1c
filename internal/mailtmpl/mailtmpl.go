// Package mailtmpl renders the owner notification and the sender
// confirmation in English or German.
package mailtmpl

import (
	"bytes"
	"html"
	"strings"
	"text/template"

	"github.com/jmehdipour/domain-offers/internal/model"
)

// Data is everything a template may reference.
type Data struct {
	Domain    string
	InquiryID string
	Name      string
	Email     string
	Phone     string
	Offer     string
	Message   string
}

// Rendered is a subject plus plain-text and HTML bodies.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

type pair struct {
	subject *template.Template
	body    *template.Template
}

var (
	ownerEN = pair{
		subject: template.Must(template.New("owner.en.subject").Parse(`New Offer for {{.Domain}}`)),
		body: template.Must(template.New("owner.en.body").Parse(`New inquiry for domain: {{.Domain}}

From: {{.Name}}
Email: {{.Email}}
Phone: {{or .Phone "Not provided"}}
Offer: {{.Offer}}

Message:
{{or .Message "No additional message provided"}}

---
Reference: {{.InquiryID}}
This email was automatically generated from the domain sales page.
`)),
	}

	ownerDE = pair{
		subject: template.Must(template.New("owner.de.subject").Parse(`Neues Angebot für {{.Domain}}`)),
		body: template.Must(template.New("owner.de.body").Parse(`Neue Anfrage für Domain: {{.Domain}}

Von: {{.Name}}
E-Mail: {{.Email}}
Telefon: {{or .Phone "Nicht angegeben"}}
Angebot: {{.Offer}}

Nachricht:
{{or .Message "Keine zusätzliche Nachricht"}}

---
Referenz: {{.InquiryID}}
Diese E-Mail wurde automatisch von der Domain-Verkaufsseite generiert.
`)),
	}

	confirmEN = pair{
		subject: template.Must(template.New("confirm.en.subject").Parse(`Confirmation: Your offer for {{.Domain}} has been received`)),
		body: template.Must(template.New("confirm.en.body").Parse(`Hello {{.Name}},

Thank you for your interest in the domain {{.Domain}}.

We have successfully received your offer and will review it carefully.
Our team will get back to you within 24 hours.

If you have any questions in the meantime, feel free to reply to this email.

Best regards,
The {{.Domain}} Team

---
Reference: {{.InquiryID}}
This email was automatically generated.
`)),
	}

	confirmDE = pair{
		subject: template.Must(template.New("confirm.de.subject").Parse(`Bestätigung: Ihr Angebot für {{.Domain}} wurde erhalten`)),
		body: template.Must(template.New("confirm.de.body").Parse(`Hallo {{.Name}},

vielen Dank für Ihr Interesse an der Domain {{.Domain}}.

Wir haben Ihr Angebot erfolgreich erhalten und werden es sorgfältig prüfen.
Unser Team wird sich innerhalb von 24 Stunden bei Ihnen melden.

Falls Sie in der Zwischenzeit Fragen haben, können Sie gerne auf diese E-Mail antworten.

Mit freundlichen Grüßen
Das {{.Domain}} Team

---
Referenz: {{.InquiryID}}
Diese E-Mail wurde automatisch generiert.
`)),
	}
)

// Owner renders the notification sent to the domain owner.
func Owner(locale model.Locale, d Data) (Rendered, error) {
	if locale.IsGerman() {
		return render(ownerDE, d)
	}
	return render(ownerEN, d)
}

// Confirmation renders the receipt sent back to the submitter.
func Confirmation(locale model.Locale, d Data) (Rendered, error) {
	if locale.IsGerman() {
		return render(confirmDE, d)
	}
	return render(confirmEN, d)
}

func render(p pair, d Data) (Rendered, error) {
	var subj, body bytes.Buffer
	if err := p.subject.Execute(&subj, d); err != nil {
		return Rendered{}, err
	}
	if err := p.body.Execute(&body, d); err != nil {
		return Rendered{}, err
	}

	text := body.String()
	return Rendered{
		Subject: strings.TrimSpace(subj.String()),
		Text:    text,
		HTML:    ToHTML(text),
	}, nil
}

// ToHTML escapes a plain-text body and turns line breaks into <br>.
func ToHTML(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
