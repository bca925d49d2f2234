package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/adapters/providers/location"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/client"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/entities"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/domain/providers"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/infrastructure/observability"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/proximity"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/query/filter"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/internal/viewport"
	"github.com/HVNN16/Full-ScrapeData-Pharmacy-VN/pkg/config"
)

func main() {
	var (
		apiURL   string
		province string
		district string
		lat, lon float64
		ip       string
		radius   float64
		sorted   bool
		keyword  string
		timeout  time.Duration
	)

	flag.StringVar(&apiURL, "api", "http://localhost:8080", "Pharmacy map API base URL")
	flag.StringVar(&province, "province", "", "Only load pharmacies in this province")
	flag.StringVar(&district, "district", "", "Only load pharmacies in this district")
	flag.Float64Var(&lat, "lat", 0, "Your latitude (with -lon, skips GeoIP)")
	flag.Float64Var(&lon, "lon", 0, "Your longitude")
	flag.StringVar(&ip, "ip", "", "Public IP to locate with the GeoIP database")
	flag.Float64Var(&radius, "radius", proximity.DefaultRadiusKm, "Search radius in km (1-50)")
	flag.BoolVar(&sorted, "sort", true, "Sort results by distance")
	flag.StringVar(&keyword, "select", "", "Navigate to the nearby pharmacy whose name or address matches")
	flag.DurationVar(&timeout, "locate-timeout", proximity.MinLocateTimeout, "How long to wait for a location fix")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("pharmacy-nearby", cfg.Environment, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := locationProvider(cfg, lat, lon, ip)
	if err != nil {
		log.Fatal().Err(err).Msg("No location source")
	}
	defer closeProvider()

	engine := proximity.NewEngine(provider, timeout)
	api := client.NewClient(apiURL)
	fetcher := client.NewLatestFetcher(engine.SetSnapshot)
	defer fetcher.Cancel()

	criteria := filter.Criteria{Province: province, District: district}
	fc, err := fetcher.Fetch(ctx, func(ctx context.Context) (*geojson.FeatureCollection, error) {
		return api.FeatureCollection(ctx, criteria)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load pharmacies")
	}

	user, err := engine.Locate(ctx)
	switch {
	case errors.Is(err, providers.ErrPermissionDenied):
		log.Fatal().Err(err).Msg("Location access denied")
	case errors.Is(err, providers.ErrTimeout):
		log.Fatal().Dur("timeout", timeout).Msg("Timed out waiting for a location fix")
	case err != nil:
		log.Fatal().Err(err).Msg("Location unavailable")
	}

	results, err := engine.FilterNearby(proximity.Options{RadiusKm: radius, SortByDistance: sorted})
	if err != nil {
		log.Fatal().Err(err).Msg("Nearby search failed")
	}
	printResults(user, proximity.ClampRadius(radius), results)

	if keyword == "" {
		return
	}

	nearby := make([]*geojson.Feature, len(results))
	for i, r := range results {
		nearby[i] = r.Feature
	}
	selected, ok := proximity.AutoSelect(nearby, keyword)
	if !ok {
		fmt.Printf("\n%d nearby pharmacies match %q; narrow the keyword to navigate\n", len(proximity.Search(nearby, keyword)), keyword)
		return
	}

	if err := navigate(ctx, cfg, fc, user, province, district, selected); err != nil {
		log.Fatal().Err(err).Msg("Navigation failed")
	}
}

func locationProvider(cfg *config.Config, lat, lon float64, ip string) (providers.LocationProvider, func(), error) {
	if lat != 0 || lon != 0 {
		return location.NewStaticProvider(lat, lon), func() {}, nil
	}
	if cfg.GeoIP.DatabasePath == "" || ip == "" {
		return nil, nil, errors.New("pass -lat/-lon, or -ip with GEOIP_DB_PATH set")
	}
	p, err := location.OpenGeoIPProvider(cfg.GeoIP.DatabasePath, ip)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { _ = p.Close() }, nil
}

func printResults(user entities.Location, radius float64, results []proximity.Result) {
	fmt.Printf("%d pharmacies within %.1f km of (%.5f, %.5f)\n\n", len(results), radius, user.Latitude, user.Longitude)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KM\tNAME\tADDRESS\tRATING")
	for _, r := range results {
		fmt.Fprintf(w, "%.2f\t%s\t%s\t%s\n",
			r.DistanceKm,
			prop(r.Feature, "name"),
			prop(r.Feature, "address"),
			prop(r.Feature, "rating"))
	}
	_ = w.Flush()
}

// navigate replays the map flow headlessly: area, user, then the selected pharmacy
func navigate(ctx context.Context, cfg *config.Config, fc *geojson.FeatureCollection, user entities.Location, province, district string, selected *geojson.Feature) error {
	tables, err := viewport.LoadAreaTables(cfg.Areas.TablesPath)
	if err != nil {
		return err
	}

	m := viewport.NewHeadlessMap(viewport.NationalCenter, viewport.NationalZoom, viewport.WithTimeScale(0.1))
	coord := viewport.NewCoordinator(m, viewport.NewAreaResolver(tables), viewport.DefaultCoordinatorConfig())
	coord.SetMarkers(viewport.NewMarkerRegistry(fc.Features))

	finished := make(chan viewport.Event, 8)
	coord.Subscribe(func(ev viewport.Event) {
		line := fmt.Sprintf("  %-10s %s", ev.Command, ev.State)
		if ev.Reason != "" {
			line += " (" + string(ev.Reason) + ")"
		}
		fmt.Println(line)
		if ev.State == viewport.StateIdle {
			finished <- ev
		}
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go coord.Run(runCtx)

	loc, _ := proximity.FeatureLocation(selected)
	fmt.Printf("\nNavigating to %s\n", prop(selected, "name"))

	for _, cmd := range []viewport.Command{
		viewport.ChangeArea{Province: province, District: district},
		viewport.FlyToUser{Location: user},
		viewport.SelectRecord{Location: loc, Properties: selected.Properties},
	} {
		id, err := coord.Submit(ctx, cmd)
		if err != nil {
			return err
		}
		if err := waitIdle(ctx, finished, id); err != nil {
			return err
		}
	}

	if popup, ok := m.Popup(); ok {
		center, zoom := m.View()
		fmt.Printf("Popup open on #%s at (%.5f, %.5f) zoom %.1f\n", popup, center.Latitude, center.Longitude, zoom)
	}
	return nil
}

func waitIdle(ctx context.Context, events <-chan viewport.Event, commandID string) error {
	for {
		select {
		case ev := <-events:
			if ev.CommandID == commandID {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func prop(f *geojson.Feature, key string) string {
	v, ok := f.Properties[key]
	if !ok || v == nil {
		return "-"
	}
	return fmt.Sprint(v)
}
