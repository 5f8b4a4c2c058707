// Command montecarlo runs a single gossip/publication experiment and
// prints its ExperimentResult as JSON. It is a manual-testing
// entrypoint — flag driven, no subcommands, and no batch CSV driver;
// that is an external collaborator's job.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stochastic-montecarlo/internal/engine"
	"stochastic-montecarlo/internal/metrics"
	"stochastic-montecarlo/internal/simlog"
)

var (
	configPath = flag.String("config", "", "path to a JSON engine.Config file; overrides the built-in defaults")
	seed       = flag.Int64("seed", 0, "PRNG seed; 0 keeps the config/default value")
	verbose    = flag.Bool("verbose", false, "narrate injection/broadcast/publish events to stderr")
	serveAddr  = flag.String("serve-metrics", "", "if set, serve Prometheus metrics on this address (e.g. :9090) while the experiment runs")
)

func main() {
	flag.Parse()

	cfg := engine.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatalf("montecarlo: could not read config %s: %v", *configPath, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("montecarlo: could not parse config %s: %v", *configPath, err)
		}
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	e, err := engine.Build(cfg)
	if err != nil {
		log.Fatalf("montecarlo: %v", err)
	}

	var obs engine.Observer
	if *verbose {
		obs = engine.Observers(obs, simlog.New(log.New(os.Stderr, "", log.LstdFlags)))
	}

	if *serveAddr != "" {
		reg := prometheus.NewRegistry()
		obs = engine.Observers(obs, metrics.NewCollector(reg))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*serveAddr, mux); err != nil {
				log.Printf("montecarlo: metrics server stopped: %v", err)
			}
		}()
		fmt.Fprintf(os.Stderr, "serving metrics on %s/metrics\n", *serveAddr)
	}

	if obs != nil {
		e.SetObserver(obs)
	}

	result, err := e.RunExperiment(cfg.RunParams())
	if err != nil {
		log.Fatalf("montecarlo: run_experiment: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("montecarlo: could not marshal result: %v", err)
	}
	fmt.Println(string(out))
}
