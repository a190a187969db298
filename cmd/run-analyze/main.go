package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stridelab/runstream/pkg/analysis"
	"github.com/stridelab/runstream/pkg/bootstrap"
	"github.com/stridelab/runstream/pkg/fitstream"
	"github.com/stridelab/runstream/pkg/gemini"
	"github.com/stridelab/runstream/pkg/infrastructure/sentry"
)

func main() {
	inputPath := flag.String("input", "", "Path to FIT file")
	maxHR := flag.Float64("max-hr", 0, "Athlete max HR in bpm (0 = unknown)")
	restingHR := flag.Float64("resting-hr", 0, "Athlete resting HR in bpm (0 = unknown)")
	thresholdHR := flag.Float64("threshold-hr", 0, "Athlete threshold HR in bpm (0 = unknown)")
	thresholdPace := flag.Float64("threshold-pace", 0, "Athlete threshold pace in min/km (0 = unknown)")
	narrate := flag.Bool("narrate", false, "Narrate moments via Gemini (needs GEMINI_API_KEY)")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Please provide input file with -input")
		os.Exit(1)
	}

	logger := bootstrap.NewLogger("run-analyze")
	cfg := bootstrap.LoadConfig()

	if err := sentry.Init(sentry.Config{DSN: cfg.SentryDSN, Environment: cfg.Environment}, logger); err != nil {
		logger.Warn("sentry init failed, continuing without it", "error", err)
	}
	defer sentry.Flush(2 * time.Second)

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Printf("Failed to read file: %v\n", err)
		os.Exit(1)
	}

	stream, err := fitstream.FromFIT(data, logger)
	if err != nil {
		fmt.Printf("Failed to decode FIT file: %v\n", err)
		os.Exit(1)
	}

	athlete := &analysis.AthleteContext{
		MaxHR:              *maxHR,
		RestingHR:          *restingHR,
		ThresholdHR:        *thresholdHR,
		ThresholdPacePerKM: *thresholdPace,
	}

	ctx := context.Background()
	var narrator analysis.NarrativeClient
	if *narrate {
		if cfg.GeminiAPIKey == "" {
			fmt.Println("GEMINI_API_KEY not set; running without narration")
		} else {
			client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
			if err != nil {
				fmt.Printf("Failed to create Gemini client: %v\n", err)
				os.Exit(1)
			}
			defer client.Close()
			narrator = client
		}
	}

	result := analysis.Analyze(ctx, logger, stream, athlete, narrator, analysis.DefaultConfig())

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("Failed to marshal result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
