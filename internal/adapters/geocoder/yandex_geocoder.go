package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"order-board-service/internal/domain"
	"order-board-service/internal/platform/obs"
	"order-board-service/internal/platform/resilience"

	"golang.org/x/time/rate"
)

const DefaultYandexBaseURL = "https://geocode-maps.yandex.ru/1.x"

// ErrMalformedResponse is returned when the geocoder answers with something
// that cannot be turned into coordinates.
var ErrMalformedResponse = errors.New("malformed geocoder response")

type Options struct {
	BaseURL          string
	HTTPTimeout      time.Duration
	RatePerSec       float64
	Burst            int
	FailureThreshold int
	BreakerTimeout   time.Duration
	MaxAttempts      int
	InitialBackoff   time.Duration
	Client           *http.Client
}

// YandexGeocoder resolves addresses through the Yandex Geocoder HTTP API.
//
// Requests are rate limited, retried on transient failures and guarded by a
// circuit breaker so a failing upstream is not hammered by order boards.
//
// The geocoder is safe for concurrent use.
type YandexGeocoder struct {
	session        *http.Client
	apiKey         string
	baseURL        string
	limiter        *rate.Limiter
	breaker        *resilience.CircuitBreaker
	maxAttempts    int
	initialBackoff time.Duration
}

func NewYandexGeocoder(apiKey string, opts Options) (*YandexGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("yandex geocoder api key is empty")
	}

	g := &YandexGeocoder{
		session:        opts.Client,
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		maxAttempts:    opts.MaxAttempts,
		initialBackoff: opts.InitialBackoff,
	}
	if g.baseURL == "" {
		g.baseURL = DefaultYandexBaseURL
	}
	if g.session == nil {
		timeout := opts.HTTPTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		g.session = &http.Client{Timeout: timeout}
	}
	if g.maxAttempts <= 0 {
		g.maxAttempts = 4
	}
	if g.initialBackoff <= 0 {
		g.initialBackoff = 200 * time.Millisecond
	}
	if opts.RatePerSec > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), burst)
	}
	if opts.FailureThreshold > 0 {
		g.breaker = resilience.NewCircuitBreaker(resilience.Settings{
			Name:             "yandex-geocoder",
			Timeout:          opts.BreakerTimeout,
			FailureThreshold: uint32(opts.FailureThreshold),
			// A caller giving up says nothing about upstream health.
			IsFailure: func(err error) bool {
				return !errors.Is(err, context.Canceled)
			},
		})
	}

	return g, nil
}

type yandexResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					Point struct {
						Pos string `json:"pos"`
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

// Resolve returns the first match for address, or nil when the geocoder
// knows no such place.
func (g *YandexGeocoder) Resolve(ctx context.Context, address string) (_ *domain.Coordinates, err error) {
	defer obs.Time(ctx, "yandex.resolve")(&err)

	address = domain.NormalizeAddress(address)
	if address == "" {
		return nil, nil
	}

	coords, err := resilience.Execute(ctx, g.breaker, func(ctx context.Context) (*domain.Coordinates, error) {
		return g.resolve(ctx, address)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, fmt.Errorf("%w: %w", domain.ErrGeocoderUnavailable, err)
	}
	return coords, err
}

func (g *YandexGeocoder) resolve(ctx context.Context, address string) (*domain.Coordinates, error) {
	resp, err := g.doWithRetry(ctx, func() (*http.Request, error) {
		return g.newRequest(ctx, address)
	})
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	var decoded yandexResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w: %w", ErrMalformedResponse, err)
	}

	members := decoded.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return nil, nil
	}

	coords, err := parsePos(members[0].GeoObject.Point.Pos)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	return coords, nil
}

// parsePos parses the "lon lat" pair Yandex puts in Point.pos.
func parsePos(pos string) (*domain.Coordinates, error) {
	parts := strings.Fields(pos)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: point %q", ErrMalformedResponse, pos)
	}

	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: longitude %q", ErrMalformedResponse, parts[0])
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("%w: latitude %q", ErrMalformedResponse, parts[1])
	}

	c := domain.Coordinates{Lat: lat, Lon: lon}
	if !c.Valid() {
		return nil, fmt.Errorf("%w: point %q out of range", ErrMalformedResponse, pos)
	}
	return &c, nil
}
