// Command weatherops looks up the weather once or serves the dashboard API.
//
//	weatherops [-config weatherops.yaml] [-city Paris | -lat 48.85 -lon 2.35] [-forecast]
//	weatherops -config weatherops.yaml -serve :8080
//	weatherops -config weatherops.yaml -issue-token ops
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jonwraymond/weatherops/app"
	"github.com/jonwraymond/weatherops/config"
	"github.com/jonwraymond/weatherops/weather"
)

type flags struct {
	config   string
	envFile  string
	city     string
	lat, lon string
	forecast bool
	scale    string
	serve    string
	token    string
	tokenTTL time.Duration
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "path to the YAML configuration")
	flag.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	flag.StringVar(&f.city, "city", "", "city to look up (default: settings.default_city)")
	flag.StringVar(&f.lat, "lat", "", "latitude, used with -lon instead of -city")
	flag.StringVar(&f.lon, "lon", "", "longitude, used with -lat instead of -city")
	flag.BoolVar(&f.forecast, "forecast", false, "print the five day forecast")
	flag.StringVar(&f.scale, "scale", "", "display temperatures in celsius, fahrenheit or kelvin (default: from weather.units)")
	flag.StringVar(&f.serve, "serve", "", "serve the HTTP API on this address")
	flag.StringVar(&f.token, "issue-token", "", "print a bearer token for this subject and exit")
	flag.DurationVar(&f.tokenTTL, "token-ttl", 24*time.Hour, "lifetime of -issue-token tokens")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f, os.Stdout); err != nil {
		log.Fatalf("weatherops: %v", err)
	}
}

func run(ctx context.Context, f flags, out io.Writer) error {
	cfg, err := config.Load(ctx, f.config, config.WithEnvFile(f.envFile))
	if err != nil {
		return err
	}
	if f.serve != "" {
		cfg.Server.Addr = f.serve
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.Printf("weatherops: close: %v", err)
		}
	}()

	switch {
	case f.token != "":
		token, err := a.IssueToken(f.token, nil, f.tokenTTL)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, token)
		return err
	case f.serve != "":
		return a.Run(ctx)
	default:
		return lookup(ctx, a.Service(), f, out)
	}
}

func lookup(ctx context.Context, svc *weather.Service, f flags, out io.Writer) error {
	scale, err := parseScale(f.scale)
	if err != nil {
		return err
	}
	var snap weather.Snapshot
	if f.lat != "" || f.lon != "" {
		lat, lon, perr := parseCoords(f.lat, f.lon)
		if perr != nil {
			return perr
		}
		snap, err = svc.LoadByCoords(ctx, lat, lon)
	} else {
		snap, err = svc.Load(ctx, f.city)
	}
	if err != nil {
		return err
	}
	printSnapshot(out, snap, f.forecast, scale)
	return nil
}

func parseScale(s string) (weather.Scale, error) {
	switch sc := weather.Scale(strings.ToLower(strings.TrimSpace(s))); sc {
	case "", weather.Celsius, weather.Fahrenheit, weather.Kelvin:
		return sc, nil
	default:
		return "", fmt.Errorf("-scale: unknown scale %q", s)
	}
}

func parseCoords(lat, lon string) (float64, float64, error) {
	if lat == "" || lon == "" {
		return 0, 0, errors.New("-lat and -lon must be given together")
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("-lat: %w", err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("-lon: %w", err)
	}
	return la, lo, nil
}

// printSnapshot writes s as text. Temperatures are converted to scale
// unless it is empty.
func printSnapshot(out io.Writer, s weather.Snapshot, forecast bool, scale weather.Scale) {
	c := s.Current
	if scale == "" {
		scale = s.Scale
	}
	sym := scale.Symbol()
	temp := func(v float64) float64 { return weather.ConvertTemperature(v, s.Scale, scale) }

	place := c.Place()
	if place == "" {
		place = s.City
	}
	fmt.Fprintf(out, "%s\n", place)
	if s.Demo {
		fmt.Fprintf(out, "  (demo data: %s)\n", s.Notice)
	}
	fmt.Fprintf(out, "  %s, %.1f%s (feels like %.1f%s)\n",
		c.Condition().Description, temp(c.Main.Temp), sym, temp(c.Main.FeelsLike), sym)
	fmt.Fprintf(out, "  humidity %d%%, wind %.1f %s\n", c.Main.Humidity, c.Wind.Speed, s.WindDirection)
	fmt.Fprintf(out, "  %s\n", s.Advice)

	if !forecast {
		return
	}
	if len(s.Daily) == 0 && s.Notice != "" && !s.Demo {
		fmt.Fprintf(out, "  forecast unavailable: %s\n", s.Notice)
		return
	}
	for _, d := range s.Daily {
		fmt.Fprintf(out, "  %s  %5.1f%s  %s\n",
			d.Time().UTC().Format("Mon Jan 2"), temp(d.Main.Temp), sym, strings.ToLower(d.Condition().Main))
	}
}
