package http

import (
	"net/http"

	"github.com/aussiebroadwan/smartlegal/internal/auth/metrics"
	"github.com/aussiebroadwan/smartlegal/internal/auth/service"
	"github.com/aussiebroadwan/smartlegal/pkg/httpx"
)

// Observer fans an authentication outcome out to the audit sink and the
// metrics recorder. Either may be nil.
type Observer struct {
	Audit   service.AuditSink
	Metrics metrics.Recorder
}

// observe records event for the request. An empty op is audited only.
func (o Observer) observe(r *http.Request, op, event string, actorID int64, outcome, details string) {
	if o.Metrics != nil && op != "" {
		o.Metrics.RecordAuth(op, outcome)
	}
	if o.Audit == nil {
		return
	}

	e := service.NewAuditEvent(event, actorID, outcome)
	e.IP = httpx.IPKeyExtractor(r)
	e.UserAgent = r.UserAgent()
	e.Details = details
	o.Audit.Record(r.Context(), e)
}
