package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus instruments for the ledger. A dedicated
// registry keeps the scrape surface to what we register here.
type Metrics struct {
	registry *prometheus.Registry

	// ReserveRatio is the last computed reserve ratio, in percent.
	ReserveRatio prometheus.Gauge

	Transfers      prometheus.Counter
	LoansPosted    prometheus.Counter
	LoansTaken     prometheus.Counter
	LoansRepaid    prometheus.Counter
	LoansDefaulted prometheus.Counter
	VaultsAccrued  prometheus.Counter
}

// New creates and registers all instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ReserveRatio: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "alpha",
			Name:      "reserve_ratio_percent",
			Help:      "Vault reserves over active loan obligations, in percent.",
		}),
		Transfers: f.NewCounter(prometheus.CounterOpts{
			Namespace: "alpha",
			Name:      "transfers_total",
			Help:      "Completed wallet transfers.",
		}),
		LoansPosted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "alpha",
			Name:      "loans_posted_total",
			Help:      "Loan offers posted.",
		}),
		LoansTaken: f.NewCounter(prometheus.CounterOpts{
			Namespace: "alpha",
			Name:      "loans_taken_total",
			Help:      "Loan offers taken by borrowers.",
		}),
		LoansRepaid: f.NewCounter(prometheus.CounterOpts{
			Namespace: "alpha",
			Name:      "loans_repaid_total",
			Help:      "Loans settled in full.",
		}),
		LoansDefaulted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "alpha",
			Name:      "loans_defaulted_total",
			Help:      "Loans defaulted by the sweep.",
		}),
		VaultsAccrued: f.NewCounter(prometheus.CounterOpts{
			Namespace: "alpha",
			Name:      "vault_yield_credits_total",
			Help:      "Vaults credited by the daily yield job.",
		}),
	}
}

// Handler returns the scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
