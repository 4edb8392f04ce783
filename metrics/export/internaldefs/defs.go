package internaldefs

import (
	"github.com/MrEthical07/emailauth"
)

// CounterDef names one emailauth counter for export.
type CounterDef struct {
	ID   emailauth.MetricID
	Name string
	Help string
}

// HistogramDef names one emailauth latency histogram for export.
type HistogramDef struct {
	ID   emailauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: emailauth.MetricAuthenticateSuccess, Name: "emailauth_authenticate_success_total", Help: "Requests resolved to an account."},
	{ID: emailauth.MetricAuthenticateRedirect, Name: "emailauth_authenticate_redirect_total", Help: "Unauthenticated requests redirected to the login page."},
	{ID: emailauth.MetricAuthenticateRejected, Name: "emailauth_authenticate_rejected_total", Help: "Unauthenticated requests rejected without redirect."},
	{ID: emailauth.MetricAuthenticateError, Name: "emailauth_authenticate_error_total", Help: "Authenticate calls that failed on a hook."},
	{ID: emailauth.MetricLoginSuccess, Name: "emailauth_login_success_total", Help: "Successful logins."},
	{ID: emailauth.MetricLoginFailure, Name: "emailauth_login_failure_total", Help: "Logins rejected for invalid credentials."},
	{ID: emailauth.MetricLoginRateLimited, Name: "emailauth_login_rate_limited_total", Help: "Logins rejected by the throttle."},
	{ID: emailauth.MetricLoginError, Name: "emailauth_login_error_total", Help: "Logins that failed internally."},
	{ID: emailauth.MetricRegisterSuccess, Name: "emailauth_register_success_total", Help: "Created accounts."},
	{ID: emailauth.MetricRegisterFailure, Name: "emailauth_register_failure_total", Help: "Rejected or failed registrations."},
	{ID: emailauth.MetricRegisterDuplicate, Name: "emailauth_register_duplicate_total", Help: "Registrations refused as duplicate or in progress."},
	{ID: emailauth.MetricResetSuccess, Name: "emailauth_reset_success_total", Help: "Completed password resets."},
	{ID: emailauth.MetricResetFailure, Name: "emailauth_reset_failure_total", Help: "Failed password resets."},
	{ID: emailauth.MetricSessionIssued, Name: "emailauth_session_issued_total", Help: "Signed session tokens."},
	{ID: emailauth.MetricSessionRejected, Name: "emailauth_session_rejected_total", Help: "Tampered, expired or malformed session tokens."},
}

// HistogramDefs lists the exported latency histograms.
var HistogramDefs = []HistogramDef{
	{ID: emailauth.MetricAuthenticateLatency, Name: "emailauth_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
	{ID: emailauth.MetricLoginLatency, Name: "emailauth_login_latency_seconds", Help: "Login latency histogram."},
}

// NotifyDroppedName is the counter of notifications dropped under backpressure.
const NotifyDroppedName = "emailauth_notify_dropped_total"

// NotifyDroppedHelp is the help text of NotifyDroppedName.
const NotifyDroppedHelp = "Notifications dropped because the dispatcher buffer was full."

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// engine bucket is +Inf and has no entry here.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket, +Inf included, for exporters
// that publish one instrument per bucket.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight bucket array. Missing
// buckets are zero and extra ones are ignored.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
