package useradmin

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flarexio/useradmin/user"
)

type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the repository collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "useradmin",
			Subsystem: "repository",
			Name:      "requests_total",
			Help:      "Number of repository calls by action and outcome",
		}, []string{"action", "outcome"}),

		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "useradmin",
			Subsystem: "repository",
			Name:      "request_duration_seconds",
			Help:      "Latency of repository calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	for _, c := range []prometheus.Collector{m.Requests, m.Duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, user.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, user.ErrInvalidIdentity):
		return "invalid_identity"
	default:
		return "store_fault"
	}
}

func InstrumentingMiddleware(m *Metrics) RepositoryMiddleware {
	return func(next user.Repository) user.Repository {
		return &instrumentingMiddleware{m, next}
	}
}

type instrumentingMiddleware struct {
	metrics *Metrics
	next    user.Repository
}

func (mw *instrumentingMiddleware) observe(action string, begin time.Time, err error) {
	mw.metrics.Requests.WithLabelValues(action, Outcome(err)).Inc()
	mw.metrics.Duration.WithLabelValues(action).Observe(time.Since(begin).Seconds())
}

func (mw *instrumentingMiddleware) Insert(ctx context.Context, u user.User) (result user.User, err error) {
	defer func(begin time.Time) { mw.observe("insert", begin, err) }(time.Now())
	return mw.next.Insert(ctx, u)
}

func (mw *instrumentingMiddleware) Update(ctx context.Context, id string, p user.Patch) (result user.User, err error) {
	defer func(begin time.Time) { mw.observe("update", begin, err) }(time.Now())
	return mw.next.Update(ctx, id, p)
}

func (mw *instrumentingMiddleware) Delete(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) { mw.observe("delete", begin, err) }(time.Now())
	return mw.next.Delete(ctx, id)
}

func (mw *instrumentingMiddleware) DeleteAll(ctx context.Context) (err error) {
	defer func(begin time.Time) { mw.observe("delete_all", begin, err) }(time.Now())
	return mw.next.DeleteAll(ctx)
}

func (mw *instrumentingMiddleware) FindAll(ctx context.Context) (users []user.User, err error) {
	defer func(begin time.Time) { mw.observe("find_all", begin, err) }(time.Now())
	return mw.next.FindAll(ctx)
}

func (mw *instrumentingMiddleware) FindOneByID(ctx context.Context, id string) (result user.User, err error) {
	defer func(begin time.Time) { mw.observe("find_one_by_id", begin, err) }(time.Now())
	return mw.next.FindOneByID(ctx, id)
}

func (mw *instrumentingMiddleware) FindOneByEmail(ctx context.Context, email string) (result user.User, err error) {
	defer func(begin time.Time) { mw.observe("find_one_by_email", begin, err) }(time.Now())
	return mw.next.FindOneByEmail(ctx, email)
}
