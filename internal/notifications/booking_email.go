package notifications

import (
	"bytes"
	"html/template"

	"github.com/mykeysuk/handyelite/internal/booking"
)

// BookingTemplateParams builds the template-parameter object for the
// operator notification. Each value is present under its canonical key
// and under the alias keys older email templates referenced, so any of
// the template generations in circulation resolves its fields.
func BookingTemplateParams(b booking.Booking, requester booking.Requester, operatorName string) map[string]string {
	params := map[string]string{
		"booking_id":          b.ID,
		"service_name":        b.Service,
		"preferred_date":      b.PreferredDate,
		"preferred_time":      b.PreferredTime,
		"payment_method":      b.PaymentMethod,
		"booking_status":      string(b.Status),
		"service_description": b.ServiceDescription,
		"user_name":           requester.Name,
		"user_email":          requester.Email,
		"user_phone":          requester.Phone,
		"to_name":             operatorName,
	}

	aliases := map[string]string{
		"bookingId":     params["booking_id"],
		"service":       params["service_name"],
		"date":          params["preferred_date"],
		"bookingDate":   params["preferred_date"],
		"time":          params["preferred_time"],
		"bookingTime":   params["preferred_time"],
		"paymentMethod": params["payment_method"],
		"status":        params["booking_status"],
		"message":       params["service_description"],
		"name":          params["user_name"],
		"from_name":     params["user_name"],
		"email":         params["user_email"],
		"Email":         params["user_email"],
		"from_email":    params["user_email"],
		"phone":         params["user_phone"],
		"from_phone":    params["user_phone"],
	}
	for key, value := range aliases {
		params[key] = value
	}
	return params
}

const bookingNotificationTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hello {{.to_name}},</p>
  <p>A new booking request has arrived:</p>
  <ul>
    <li>Service: {{.service_name}}</li>
    <li>Booking ref: {{.booking_id}}</li>
    <li>Date: {{.preferred_date}}</li>
    <li>Time: {{.preferred_time}}</li>
    <li>Payment: {{.payment_method}}</li>
    <li>Status: {{.booking_status}}</li>
  </ul>
  <p>Requested by:</p>
  <ul>
    <li>Name: {{.user_name}}</li>
    <li>Email: {{.user_email}}</li>
    <li>Phone: {{.user_phone}}</li>
  </ul>
  {{if .service_description}}<p>Details: {{.service_description}}</p>{{end}}
</body>
</html>`

var bookingNotificationTmpl = template.Must(template.New("booking_notification").Parse(bookingNotificationTemplate))

func buildBookingNotificationHTML(params map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := bookingNotificationTmpl.Execute(&buf, params); err != nil {
		return "", err
	}
	return buf.String(), nil
}
