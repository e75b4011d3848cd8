// README: Place provider client. Generalizes the teacher's single
// SearchNearby helper (internal/maps/places_service.go) into the three-route
// mapper contract (TEXTSEARCH/NEARBY/LANDMARK) required by spec §4.3, wired
// through the tiered cache and a concurrency-ceiling semaphore.
package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	gmaps "googlemaps.github.io/maps"

	"platefinder/internal/search"
	"platefinder/internal/types"
)

// Client is the provider-facing search boundary consumed by the pipeline's
// C5 stage.
type Client struct {
	maps    *gmaps.Client
	cache   *TieredCache
	sem     chan struct{}
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient constructs a Client. concurrency is the outbound-call ceiling
// from spec §5 "Backpressure".
func NewClient(apiKey string, concurrency int, cache *TieredCache, logger *zap.Logger) (*Client, error) {
	mc, err := gmaps.NewClient(gmaps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps.NewClient: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 10
	}
	return &Client{
		maps:  mc,
		cache: cache,
		sem:   make(chan struct{}, concurrency),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "place-provider",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit_breaker_state_change", zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
			},
		}),
		logger: logger,
	}, nil
}

// Search issues (or serves from cache) a provider call for params, applying
// the bias-retry rule of spec §4.5: a response with <=1 result and a bias
// present is retried once without bias, cached under its own distinct key.
func (c *Client) Search(ctx context.Context, params search.ProviderParameters) ([]search.PlaceCandidate, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	candidates, err := c.cache.Fetch(ctx, params, func(ctx context.Context) ([]search.PlaceCandidate, error) {
		return c.callProvider(ctx, params)
	})
	if err != nil {
		return nil, err
	}

	if len(candidates) <= 1 && params.HasBias() {
		unbiased := params.WithoutBias()
		retried, err := c.cache.Fetch(ctx, unbiased, func(ctx context.Context) ([]search.PlaceCandidate, error) {
			return c.callProvider(ctx, unbiased)
		})
		if err == nil {
			return retried, nil
		}
	}
	return candidates, nil
}

// acquireSlot enforces the per-process outbound concurrency ceiling; a
// timed-out wait surfaces as search.ErrProviderError per spec §5.
func (c *Client) acquireSlot(ctx context.Context) error {
	select {
	case c.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return search.ErrProviderError
	}
}

func (c *Client) releaseSlot() { <-c.sem }

func (c *Client) callProvider(ctx context.Context, params search.ProviderParameters) ([]search.PlaceCandidate, error) {
	if err := c.acquireSlot(ctx); err != nil {
		return nil, err
	}
	defer c.releaseSlot()

	result, err := c.breaker.Execute(func() (any, error) {
		switch params.Kind {
		case search.ParamTextSearch:
			return c.textSearch(ctx, params)
		case search.ParamNearby:
			return c.nearbySearch(ctx, params)
		case search.ParamLandmark:
			return c.landmarkSearch(ctx, params)
		default:
			return nil, search.ErrInvalidParameters
		}
	})
	if err != nil {
		if errors.Is(err, search.ErrGeocodingFailed) {
			return nil, err
		}
		if gobreakerOpen(err) {
			return nil, search.ErrProviderError
		}
		return nil, search.ErrProviderError
	}
	return result.([]search.PlaceCandidate), nil
}

func gobreakerOpen(err error) bool {
	return err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests
}

func (c *Client) textSearch(ctx context.Context, params search.ProviderParameters) ([]search.PlaceCandidate, error) {
	req := &gmaps.TextSearchRequest{
		Query:    params.TextQuery,
		Language: params.Language,
		Region:   params.Region,
		OpenNow:  params.OpenNow,
	}
	if params.HasBias() {
		req.Location = &gmaps.LatLng{Lat: *params.BiasLat, Lng: *params.BiasLng}
		req.Radius = uint(*params.BiasRadius)
	}
	resp, err := c.maps.TextSearch(ctx, req)
	if err != nil {
		return nil, err
	}
	return toCandidates(resp.Results), nil
}

func (c *Client) nearbySearch(ctx context.Context, params search.ProviderParameters) ([]search.PlaceCandidate, error) {
	req := &gmaps.NearbySearchRequest{
		Location: &gmaps.LatLng{Lat: params.Center.Lat, Lng: params.Center.Lng},
		Radius:   uint(params.Radius),
		Keyword:  params.Keyword,
		Language: params.Language,
		OpenNow:  params.OpenNow,
	}
	resp, err := c.maps.NearbySearch(ctx, req)
	if err != nil {
		return nil, err
	}
	return toCandidates(resp.Results), nil
}

func (c *Client) landmarkSearch(ctx context.Context, params search.ProviderParameters) ([]search.PlaceCandidate, error) {
	geoReq := &gmaps.GeocodingRequest{
		Address:  params.GeocodeQuery,
		Language: params.Language,
		Region:   params.Region,
	}
	results, err := c.maps.Geocode(ctx, geoReq)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, search.ErrGeocodingFailed
	}
	loc := results[0].Geometry.Location

	req := &gmaps.NearbySearchRequest{
		Location: &gmaps.LatLng{Lat: loc.Lat, Lng: loc.Lng},
		Radius:   uint(params.Radius),
		Keyword:  params.Keyword,
		Language: params.Language,
		OpenNow:  params.OpenNow,
	}
	resp, err := c.maps.NearbySearch(ctx, req)
	if err != nil {
		return nil, err
	}
	return toCandidates(resp.Results), nil
}

// weeklyHoursFrom maps the provider's Periods (each a Day+"HHMM" open/close
// pair, Sunday=0..Saturday=6) into search.WeeklyHours so the post-filter's
// OPEN_AT/OPEN_BETWEEN interval-overlap logic has real per-day windows to
// consult, rather than every known-hours candidate looking closed every day.
// A period whose Close falls on a later day than Open (an overnight window,
// e.g. Friday 22:00 - Saturday 02:00) is split into the tail of the open day
// and the head of the close day. A period with no Close time at all (the
// provider's "open 24 hours" representation) is treated as open all day,
// every day.
func weeklyHoursFrom(periods []gmaps.OpeningHoursPeriod) search.WeeklyHours {
	var wh search.WeeklyHours
	for _, p := range periods {
		startMin, ok := parseGoogleHHMM(p.Open.Time)
		if !ok {
			continue
		}
		openDay := int(p.Open.Day)

		if p.Close.Time == "" {
			for d := 0; d < 7; d++ {
				wh.Days[d] = append(wh.Days[d], search.Interval{StartMinute: 0, EndMinute: 1440})
			}
			continue
		}
		endMin, ok := parseGoogleHHMM(p.Close.Time)
		if !ok {
			continue
		}
		closeDay := int(p.Close.Day)

		if closeDay == openDay && endMin > startMin {
			wh.Days[openDay] = append(wh.Days[openDay], search.Interval{StartMinute: startMin, EndMinute: endMin})
			continue
		}
		// Overnight (or same-day-wraparound) window: split at midnight.
		wh.Days[openDay] = append(wh.Days[openDay], search.Interval{StartMinute: startMin, EndMinute: 1440})
		wh.Days[closeDay%7] = append(wh.Days[closeDay%7], search.Interval{StartMinute: 0, EndMinute: endMin})
	}
	return wh
}

// parseGoogleHHMM parses the Places API's zero-padded 24h "HHMM" time
// string (e.g. "0930") into minutes since midnight.
func parseGoogleHHMM(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	hh, err1 := strconv.Atoi(s[:2])
	mm, err2 := strconv.Atoi(s[2:])
	if err1 != nil || err2 != nil || hh < 0 || hh > 24 || mm < 0 || mm > 59 {
		return 0, false
	}
	return hh*60 + mm, true
}

func toCandidates(results []gmaps.PlacesSearchResult) []search.PlaceCandidate {
	out := make([]search.PlaceCandidate, 0, len(results))
	for _, r := range results {
		cand := search.PlaceCandidate{
			ProviderID:       r.PlaceID,
			DisplayName:      r.Name,
			FormattedAddress: r.FormattedAddress,
			Location:         types.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			Types:            r.Types,
		}
		if r.Rating > 0 {
			v := float64(r.Rating)
			cand.Rating = &v
		}
		if r.UserRatingsTotal > 0 {
			v := r.UserRatingsTotal
			cand.ReviewCount = &v
		}
		if r.PriceLevel > 0 {
			v := r.PriceLevel
			cand.PriceLevel = &v
		}
		if len(r.Types) > 0 {
			cand.PrimaryType = r.Types[0]
		}
		if r.OpeningHours != nil && r.OpeningHours.OpenNow != nil {
			cand.CurrentOpeningHoursKnown = true
			openNow := *r.OpeningHours.OpenNow
			cand.OpenNow = &openNow
			cand.WeeklyHours = weeklyHoursFrom(r.OpeningHours.Periods)
		}
		for _, ref := range r.Photos {
			cand.PhotoRefs = append(cand.PhotoRefs, fmt.Sprintf("%s/photos/%s", r.PlaceID, ref.PhotoReference))
		}
		out = append(out, cand)
	}
	return out
}

// ProviderTimeout equals the default of search.Config.ProviderTimeout, the
// value the pipeline applies before invoking Search; the pipeline does not
// read this constant.
const ProviderTimeout = 3 * time.Second

// FetchPhoto resolves an opaque "provider-id/photos/photo-id" reference
// (as produced by toCandidates above) to raw image bytes and content type,
// attaching provider credentials server-side so the client never sees the
// raw upstream URL (spec §6 "Photo references").
func (c *Client) FetchPhoto(ctx context.Context, photoReference string, maxWidth uint) ([]byte, string, error) {
	if err := c.acquireSlot(ctx); err != nil {
		return nil, "", err
	}
	defer c.releaseSlot()

	resp, err := c.maps.PlacePhoto(ctx, &gmaps.PlacePhotoRequest{
		PhotoReference: photoReference,
		MaxWidth:       maxWidth,
	})
	if err != nil {
		return nil, "", search.ErrProviderError
	}
	defer resp.Data.Close()

	data, err := io.ReadAll(resp.Data)
	if err != nil {
		return nil, "", search.ErrProviderError
	}
	return data, resp.ContentType, nil
}
