// Command trawl is a debug CLI for the retrieval engine: run a search, a
// single page fetch, or a batch fetch from the shell and print the outcome
// as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-trawl/trawl/internal/config"
	"github.com/go-trawl/trawl/internal/engine"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath   string
		query        string
		providers    string
		maxResults   int
		fetchURLs    string
		dynamic      bool
		forceRefresh bool
		metricsAddr  string
		verbose      bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&query, "q", "", "Search query")
	flag.StringVar(&providers, "providers", "duckduckgo,wikipedia", "Comma-separated provider names")
	flag.IntVar(&maxResults, "max", 10, "Maximum merged search results")
	flag.StringVar(&fetchURLs, "fetch", "", "Comma-separated URLs to fetch instead of searching")
	flag.BoolVar(&dynamic, "dynamic", false, "Try a headless render before the static fetch")
	flag.BoolVar(&forceRefresh, "refresh", false, "Bypass cached entries")
	flag.StringVar(&metricsAddr, "metrics.addr", "", "Serve /metrics on this address (e.g. :9090)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration failed")
	}

	eng := engine.New(cfg)
	defer eng.Close()

	if metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", eng.Metrics().Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	ctx := context.Background()
	switch {
	case fetchURLs != "":
		urls := splitList(fetchURLs)
		pages := eng.FetchPages(ctx, urls, dynamic, forceRefresh)
		for _, p := range pages {
			// Keep stdout readable: the text body matters, the raw HTML
			// does not.
			p.HTML = ""
			printJSON(p)
		}
	case query != "":
		results := eng.Search(ctx, query, splitList(providers), forceRefresh, maxResults)
		for _, r := range results {
			printJSON(r)
		}
		log.Info().Int("results", len(results)).Str("query", query).Msg("search done")
	default:
		fmt.Fprintln(os.Stderr, "usage: trawl -q <query> [-providers a,b] | trawl -fetch <url,...>")
		flag.PrintDefaults()
		os.Exit(2)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("encode result")
		return
	}
	fmt.Println(string(b))
}
