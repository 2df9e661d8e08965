package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/observable/config"
	"github.com/tailored-agentic-units/observable/observability"
	"github.com/tailored-agentic-units/observable/person"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to config JSON file (optional)")
		ages       = flag.String("ages", "10,13,17,23", "Comma-separated ages each person moves through")
		people     = flag.Int("people", 1, "Number of people updated concurrently")
		telemetry  = flag.String("telemetry", "", "Registry telemetry observer: noop or slog (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	if *telemetry != "" {
		cfg.Registry.Observer = *telemetry
	}

	sequence, err := parseAges(*ages)
	if err != nil {
		log.Fatalf("Invalid -ages: %v", err)
	}
	if *people < 1 {
		log.Fatalf("Invalid -people: %d", *people)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	cfg.Registry.Logger = logger
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	console := person.NewConsoleObserver(os.Stdout)
	admin := person.NewTrafficAdministration(cfg.DrivingAge, os.Stdout)

	population := make([]*person.Person, *people)
	for i := range population {
		cfg.Registry.Name = fmt.Sprintf("person-%d", i+1)
		p, err := person.New(cfg, 0)
		if err != nil {
			log.Fatalf("Failed to create person: %v", err)
		}
		p.Subscribe(console)
		admin.Watch(p)
		population[i] = p
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range population {
		g.Go(func() error {
			for _, age := range sequence {
				if err := ctx.Err(); err != nil {
					return err
				}
				p.SetAge(ctx, age)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("Run interrupted: %v", err)
	}

	fmt.Println("\nMetrics:")
	for _, p := range population {
		m := p.Metrics()
		fmt.Printf("  %s: subscriptions=%d passes=%d deliveries=%d compacted=%d\n",
			p.ID(), m.Subscriptions, m.Passes, m.Deliveries, m.Compacted)
	}
}

func parseAges(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	ages := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		age, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", part, err)
		}
		if age < 0 {
			return nil, fmt.Errorf("negative age %d", age)
		}
		ages = append(ages, age)
	}
	if len(ages) == 0 {
		return nil, fmt.Errorf("no ages given")
	}
	return ages, nil
}
