package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	BookingsCreated      prometheus.Counter
	StatusToggles        prometheus.Counter
	MirrorWriteFailures  prometheus.Counter
	EmailsSent           prometheus.Counter
	EmailsFailed         prometheus.Counter
	EventsPublished      prometheus.Counter
	EventPublishFailures prometheus.Counter
	OTPIssued            prometheus.Counter
	ActiveSubscriptions  prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		BookingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "handyelite_bookings_created_total",
			Help: "Total number of bookings created",
		}),

		StatusToggles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "handyelite_booking_status_toggles_total",
			Help: "Total number of booking status toggles",
		}),

		MirrorWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "handyelite_mirror_write_failures_total",
			Help: "Total number of failed secondary store writes",
		}),

		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "handyelite_emails_sent_total",
			Help: "Total number of notification emails sent",
		}),

		EmailsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "handyelite_emails_failed_total",
			Help: "Total number of failed notification emails",
		}),

		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "handyelite_events_published_total",
			Help: "Total number of booking lifecycle events published",
		}),

		EventPublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "handyelite_event_publish_failures_total",
			Help: "Total number of failed event publishes",
		}),

		OTPIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "handyelite_otp_issued_total",
			Help: "Total number of phone verification codes issued",
		}),

		ActiveSubscriptions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "handyelite_active_subscriptions",
			Help: "Number of live booking view subscriptions",
		}),
	}
}
