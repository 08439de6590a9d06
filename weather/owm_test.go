package weather

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jonwraymond/weatherops/fetch"
)

const londonJSON = `{
	"coord": {"lon": -0.1278, "lat": 51.5074},
	"weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
	"main": {"temp": 12.5, "feels_like": 11.8, "temp_min": 11, "temp_max": 14, "pressure": 1009, "humidity": 81},
	"visibility": 9000,
	"wind": {"speed": 4.1, "deg": 225},
	"dt": 1772366400,
	"sys": {"country": "GB", "sunrise": 1772347500, "sunset": 1772387700},
	"timezone": 0,
	"id": 2643743,
	"name": "London"
}`

// forecastJSON has eight readings per day, three hours apart, starting at
// 2026-03-01 00:00 UTC, for six days.
func forecastJSON() string {
	const start = 1772323200
	items := make([]string, 0, 48)
	for i := range 48 {
		items = append(items, fmt.Sprintf(
			`{"dt": %d, "main": {"temp": %d}, "weather": [{"main": "Clouds", "description": "scattered clouds", "icon": "03d"}], "wind": {"speed": 2, "deg": 90}}`,
			start+i*3*3600, i,
		))
	}
	return fmt.Sprintf(`{"cnt": %d, "list": [%s], "city": {"name": "London", "country": "GB", "timezone": 0}}`,
		len(items), strings.Join(items, ","))
}

// owmServer fakes the OpenWeatherMap endpoints used by Client. Per-path
// status overrides let tests inject failures.
type owmServer struct {
	*httptest.Server
	hits atomic.Int64

	mu     sync.Mutex
	status map[string][]int
}

func newOWMServer(t *testing.T) *owmServer {
	t.Helper()
	s := &owmServer{status: make(map[string][]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		path := strings.TrimPrefix(r.URL.Path, "/")
		if code := s.nextStatus(path); code != 0 {
			w.WriteHeader(code)
			return
		}
		q := r.URL.Query()
		if q.Get("appid") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if city := q.Get("q"); city != "" && !strings.EqualFold(city, "london") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch path {
		case "weather":
			_, _ = w.Write([]byte(londonJSON))
		case "forecast":
			_, _ = w.Write([]byte(forecastJSON()))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

// failNext makes the next len(codes) requests to path answer with codes.
func (s *owmServer) failNext(path string, codes ...int) {
	s.mu.Lock()
	s.status[path] = append(s.status[path], codes...)
	s.mu.Unlock()
}

func (s *owmServer) nextStatus(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := s.status[path]
	if len(codes) == 0 {
		return 0
	}
	s.status[path] = codes[1:]
	return codes[0]
}

func newTestWeatherClient(t *testing.T, srv *owmServer, opts ...fetch.Option) *Client {
	t.Helper()
	base := []fetch.Option{
		fetch.WithHTTPClient(srv.Client()),
		fetch.WithAPIKey("test-key"),
		fetch.WithDefaults(fetch.Params{"units": "metric", "lang": "en"}),
	}
	f, err := fetch.New(srv.URL, append(base, opts...)...)
	if err != nil {
		t.Fatalf("fetch.New() error = %v", err)
	}
	c, err := NewClient(f)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func decodeJSON(s string, v any) error {
	return fetch.Payload(s).Decode(v)
}
