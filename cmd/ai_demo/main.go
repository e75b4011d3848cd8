// README: Interactive CLI demo that drives the search pipeline directly
// (no HTTP server), for exercising C1-C8 end-to-end against live Gemini and
// Google Places credentials from a terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"platefinder/internal/ai"
	"platefinder/internal/places"
	"platefinder/internal/search"
	"platefinder/internal/types"
)

func main() {
	geminiKey := os.Getenv("MODEL_API_KEY")
	if geminiKey == "" {
		log.Fatal("MODEL_API_KEY environment variable not set")
	}
	mapsKey := os.Getenv("PROVIDER_API_KEY")
	if mapsKey == "" {
		log.Fatal("PROVIDER_API_KEY environment variable not set")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	adapter, err := ai.NewGeminiAdapter(ctx, geminiKey, os.Getenv("MODEL_ID"), logger)
	if err != nil {
		log.Fatalf("Failed to initialize model adapter: %v", err)
	}
	defer adapter.Close()

	cache := places.NewTieredCache(nil, 500, 60*time.Second, 15*time.Minute, 2*time.Minute, logger)
	provider, err := places.NewClient(mapsKey, 10, cache, logger)
	if err != nil {
		log.Fatalf("Failed to create place provider client: %v", err)
	}

	pipeline := search.NewPipeline(adapter, provider, logger, search.DefaultConfig(), nil)

	reader := bufio.NewScanner(os.Stdin)
	var sessionID = types.ID("demo-session")
	var userLoc *types.Point

	fmt.Println("platefinder: what are you in the mood for? (type 'loc <lat>,<lng>' to set your location, 'exit' to quit)")
	fmt.Print("You: ")

	var lastFailedQuery string
	requestSeq := 0

	for reader.Scan() {
		time.Sleep(200 * time.Millisecond) // simple client-side pacing

		input := strings.TrimSpace(reader.Text())
		if input == "exit" || input == "quit" {
			fmt.Println("platefinder: goodbye!")
			break
		}
		if strings.HasPrefix(input, "loc ") {
			lat, lng, ok := parseLatLng(strings.TrimPrefix(input, "loc "))
			if !ok {
				fmt.Println("platefinder: couldn't parse that location, try 'loc 32.0853,34.7818'")
				fmt.Print("You: ")
				continue
			}
			userLoc = &types.Point{Lat: lat, Lng: lng}
			fmt.Printf("platefinder: location set to %.4f,%.4f\n", lat, lng)
			fmt.Print("You: ")
			continue
		}
		if input == "r" {
			if lastFailedQuery == "" {
				fmt.Println("platefinder: nothing to retry.")
				fmt.Print("You: ")
				continue
			}
			input = lastFailedQuery
			fmt.Printf("platefinder: retrying: %s\n", input)
		}

		requestSeq++
		req := search.SearchRequest{
			RequestID:    types.ID(fmt.Sprintf("demo-%d", requestSeq)),
			Query:        input,
			SessionID:    sessionID,
			UserLocation: userLoc,
			Mode:         search.ModeSync,
		}

		runCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		resp := pipeline.Run(runCtx, req, req.RequestID.String())
		cancel()

		if resp.Meta.FailureReason != search.FailureNone {
			lastFailedQuery = input
			fmt.Printf("platefinder: %s (%s)\n", assistMessage(resp), resp.Meta.FailureReason)
			fmt.Println("You can type 'r' to retry, or enter a new query.")
			fmt.Print("You: ")
			continue
		}

		lastFailedQuery = ""
		printResults(resp)
		fmt.Print("You: ")
	}

	if err := reader.Err(); err != nil {
		log.Fatalf("Error reading input: %v", err)
	}
}

func assistMessage(resp search.SearchResponse) string {
	if resp.Assist != nil {
		return resp.Assist.Message
	}
	return "no results"
}

func printResults(resp search.SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Println("platefinder: no matches found.")
		return
	}
	fmt.Printf("platefinder: found %d place(s):\n", len(resp.Results))
	for i, c := range resp.Results {
		line := fmt.Sprintf("  %d. %s — %s", i+1, c.DisplayName, c.FormattedAddress)
		if c.Rating != nil {
			line += fmt.Sprintf(" (rating %.1f)", *c.Rating)
		}
		fmt.Println(line)
	}
}

func parseLatLng(s string) (float64, float64, bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	var lat, lng float64
	if _, err := fmt.Sscanf(strings.TrimSpace(parts[0]), "%f", &lat); err != nil {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(strings.TrimSpace(parts[1]), "%f", &lng); err != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
