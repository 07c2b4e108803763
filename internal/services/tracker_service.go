// Package services – TrackerService
//
// TrackerService builds one composite Click per visit out of three
// fragments that arrive independently:
//
//   - the server fragment, captured synchronously by RegisterVisit and
//     stored before the tracking page is rendered;
//   - the geo fragment, resolved in the background from the visitor IP and
//     merged whenever it completes;
//   - the client fragment, posted back by the tracking page and merged by
//     MergeClientPayload.
//
// The two late merges touch disjoint fields (apart from a one-time country
// backfill that only fills an empty value), so they commute. Each replaces
// its fragment wholesale, last write wins. Enrichment failures are logged
// and counted, never surfaced to the visitor.
package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/tbourn/go-link-tracker/internal/classify"
	"github.com/tbourn/go-link-tracker/internal/domain"
	"github.com/tbourn/go-link-tracker/internal/geo"
	"github.com/tbourn/go-link-tracker/internal/observability"
	"github.com/tbourn/go-link-tracker/internal/repo"
	"github.com/tbourn/go-link-tracker/internal/sysutil"
	"github.com/tbourn/go-link-tracker/internal/utils"
)

// DefaultGeoTimeout bounds a single geolocation lookup.
const DefaultGeoTimeout = 5 * time.Second

// VisitRequest is the part of an incoming tracking request the server
// fragment is built from.
type VisitRequest struct {
	Header     http.Header
	RemoteAddr string
}

// Visit identifies the click created by RegisterVisit. The tracking page
// embeds both ids so the client payload can find its way back.
type Visit struct {
	LinkID  string
	ClickID string
}

// TrackerService correlates visits with their late-arriving fragments.
type TrackerService struct {
	Store LinkStore

	// Geo resolves visitor IPs. Nil disables geolocation.
	Geo        geo.Resolver
	GeoTimeout time.Duration

	// Jobs runs geo lookups off the request path.
	Jobs *Dispatcher

	// NewID generates click ids.
	NewID func() (string, error)
	// Now supplies click timestamps.
	Now func() time.Time
}

// NewTrackerService wires a TrackerService with NanoID click ids, the wall
// clock and a dispatcher allowing geoWorkers concurrent lookups.
func NewTrackerService(store LinkStore, resolver geo.Resolver, geoTimeout time.Duration, geoWorkers int) *TrackerService {
	if geoTimeout <= 0 {
		geoTimeout = DefaultGeoTimeout
	}
	return &TrackerService{
		Store:      store,
		Geo:        resolver,
		GeoTimeout: geoTimeout,
		Jobs:       NewDispatcher(geoWorkers),
		NewID:      NewClickID,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// RegisterVisit records a click on linkID and schedules its geolocation.
// The click is stored before RegisterVisit returns; the lookup is not
// awaited. Returns ErrLinkNotFound, with the store unchanged, when the link
// does not exist.
func (s *TrackerService) RegisterVisit(ctx context.Context, linkID string, req VisitRequest) (*Visit, error) {
	tr := otel.Tracer("services/TrackerService")
	ctx, span := tr.Start(ctx, "RegisterVisit",
		trace.WithAttributes(attribute.String("link.id", linkID)),
	)
	defer span.End()

	clickID, err := s.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate click id: %w", err)
	}
	click := s.serverFragment(clickID, req)

	err = s.Store.AppendClick(ctx, linkID, click)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("click.id", clickID))
	observability.ClicksRegistered.Inc()

	zerolog.Ctx(ctx).Debug().
		Str("link_id", linkID).
		Str("click_id", clickID).
		Str("browser", click.Browser).
		Str("device", click.Device).
		Bool("bot", click.Bot).
		Msg("click registered")

	s.dispatchGeo(ctx, linkID, clickID, click.IP)
	return &Visit{LinkID: linkID, ClickID: clickID}, nil
}

// serverFragment builds the click fields observable from the request alone.
func (s *TrackerService) serverFragment(clickID string, req VisitRequest) domain.Click {
	h := req.Header
	if h == nil {
		h = http.Header{}
	}
	ua := strings.TrimSpace(h.Get("User-Agent"))
	info := classify.Parse(ua)
	if ua == "" {
		ua = classify.Unknown
	}
	acceptLang := h.Get("Accept-Language")

	return domain.Click{
		ID:             clickID,
		Timestamp:      s.Now(),
		IP:             utils.ClientIP(h, req.RemoteAddr),
		UserAgent:      ua,
		UAInfo:         info,
		Referer:        h.Get("Referer"),
		AcceptLanguage: acceptLang,
		Language:       primaryLanguage(acceptLang),
		AcceptEncoding: h.Get("Accept-Encoding"),
		DoNotTrack:     sysutil.IsTruthy(h.Get("DNT")),
		Country:        strings.ToUpper(sysutil.FirstNonEmpty(h.Get("CF-IPCountry"), h.Get("X-Vercel-IP-Country"))),
	}
}

// primaryLanguage returns the highest-weighted tag of an Accept-Language
// header, or "" when it has none.
func primaryLanguage(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 || tags[0] == language.Und {
		return ""
	}
	return tags[0].String()
}

func (s *TrackerService) dispatchGeo(ctx context.Context, linkID, clickID, ip string) {
	if s.Geo == nil {
		return
	}
	if !geo.IsPublic(ip) {
		observability.GeoLookups.WithLabelValues(observability.GeoSkipped).Inc()
		return
	}
	// Detach from the request so the lookup outlives the response, keeping
	// its values (logger, trace) for correlation.
	bg := context.WithoutCancel(ctx)
	if s.Jobs == nil {
		go s.mergeGeo(bg, linkID, clickID, ip)
		return
	}
	if !s.Jobs.Go(bg, func(ctx context.Context) { s.mergeGeo(ctx, linkID, clickID, ip) }) {
		observability.GeoLookups.WithLabelValues(observability.GeoDropped).Inc()
	}
}

// mergeGeo resolves ip and attaches the result to the click. Every failure
// is absorbed: the click simply keeps a nil geo fragment.
func (s *TrackerService) mergeGeo(ctx context.Context, linkID, clickID, ip string) {
	tr := otel.Tracer("services/TrackerService")
	ctx, span := tr.Start(ctx, "mergeGeo",
		trace.WithAttributes(
			attribute.String("link.id", linkID),
			attribute.String("click.id", clickID),
		),
	)
	defer span.End()

	lg := zerolog.Ctx(ctx).With().Str("link_id", linkID).Str("click_id", clickID).Logger()

	lookupCtx, cancel := context.WithTimeout(ctx, s.GeoTimeout)
	start := time.Now()
	info, err := s.Geo.Lookup(lookupCtx, ip)
	cancel()
	observability.GeoLatency.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, geo.ErrThrottled):
		observability.GeoLookups.WithLabelValues(observability.GeoThrottled).Inc()
		lg.Debug().Msg("geo lookup throttled")
		return
	case err != nil:
		observability.GeoLookups.WithLabelValues(observability.GeoFailed).Inc()
		lg.Debug().Err(err).Msg("geo lookup failed")
		return
	case info == nil:
		observability.GeoLookups.WithLabelValues(observability.GeoEmpty).Inc()
		return
	}
	observability.GeoLookups.WithLabelValues(observability.GeoResolved).Inc()

	err = s.Store.UpdateClick(ctx, linkID, clickID, func(c *domain.Click) {
		g := *info
		c.Geo = &g
		if c.Country == "" && g.CountryCode != "" {
			c.Country = g.CountryCode
		}
	})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		observability.FragmentMerges.WithLabelValues(observability.FragmentGeo, observability.MergeNotFound).Inc()
	case err != nil:
		observability.FragmentMerges.WithLabelValues(observability.FragmentGeo, observability.MergeError).Inc()
		span.RecordError(err)
		lg.Warn().Err(err).Msg("geo merge failed")
	default:
		observability.FragmentMerges.WithLabelValues(observability.FragmentGeo, observability.MergeApplied).Inc()
	}
}

// MergeClientPayload replaces the click's client fragment with payload and
// reports whether the click was found. A nil payload is stored as an empty
// object.
func (s *TrackerService) MergeClientPayload(ctx context.Context, linkID, clickID string, payload map[string]any) bool {
	tr := otel.Tracer("services/TrackerService")
	ctx, span := tr.Start(ctx, "MergeClientPayload",
		trace.WithAttributes(
			attribute.String("link.id", linkID),
			attribute.String("click.id", clickID),
		),
	)
	defer span.End()

	if linkID == "" || clickID == "" {
		return false
	}
	fragment := maps.Clone(payload)
	if fragment == nil {
		fragment = map[string]any{}
	}

	err := s.Store.UpdateClick(ctx, linkID, clickID, func(c *domain.Click) {
		c.Client = fragment
	})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		observability.FragmentMerges.WithLabelValues(observability.FragmentClient, observability.MergeNotFound).Inc()
		return false
	case err != nil:
		observability.FragmentMerges.WithLabelValues(observability.FragmentClient, observability.MergeError).Inc()
		span.RecordError(err)
		zerolog.Ctx(ctx).Warn().Err(err).Str("link_id", linkID).Str("click_id", clickID).Msg("client merge failed")
		return false
	}
	observability.FragmentMerges.WithLabelValues(observability.FragmentClient, observability.MergeApplied).Inc()
	return true
}

// Close stops scheduling geo lookups and waits for running ones until ctx
// ends. Results arriving later are dropped with the process.
func (s *TrackerService) Close(ctx context.Context) error {
	if s.Jobs == nil {
		return nil
	}
	return s.Jobs.Close(ctx)
}
