package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LoginSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_login_success_total",
		Help: "Successful logins (session issued).",
	})
	LoginFailure = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_login_failure_total",
		Help: "Rejected login attempts.",
	})
	OtpIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_otp_issued_total",
		Help: "One-time codes generated and dispatched.",
	})
	OtpRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_otp_rejected_total",
		Help: "One-time code verifications that failed.",
	})
	TokenRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_token_refresh_total",
		Help: "Successful refresh-token rotations.",
	})
	RefreshReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_refresh_replay_total",
		Help: "Refresh tokens rejected on hash mismatch after rotation.",
	})
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
