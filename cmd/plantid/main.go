// Copyright 2025 Verdantis Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/verdantis/plantid"
	"github.com/verdantis/plantid/ai"
	"github.com/verdantis/plantid/core"
	"github.com/verdantis/plantid/rank"
	"github.com/verdantis/plantid/reindex"
	"github.com/verdantis/plantid/storage/badger"
	"github.com/verdantis/plantid/taxon"
)

func main() {
	app := &cli.App{
		Name:  "plantid",
		Usage: "Plant species identification from trait descriptions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "identify",
				Usage:     "Identify a plant species from a free-text description",
				ArgsUsage: "<description>",
				Action:    identifyCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of ranked results to return",
						Value:   plantid.DefaultTopK,
					},
					&cli.StringSliceFlag{
						Name:    "trait",
						Aliases: []string{"t"},
						Usage:   "Observed trait phrase (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:    "guess",
						Aliases: []string{"g"},
						Usage:   "Candidate species name from upstream (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "no-classify",
						Usage: "Skip the plant/non-plant classification gate",
					},
					&cli.StringFlag{
						Name:  "rank-config",
						Usage: "Path to a YAML ranking heuristic table",
					},
				),
			},
			{
				Name:      "classify",
				Usage:     "Report which category a query describes",
				ArgsUsage: "<text>",
				Action:    classifyCommand,
				Flags:     engineFlags(),
			},
			{
				Name:   "ingest",
				Usage:  "Ingest corpus records from a JSONL file",
				Action: ingestCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:     "src",
						Aliases:  []string{"s"},
						Usage:    "Path to a JSONL file of species records",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to ingest in each batch",
						Value: 50,
					},
				),
			},
			{
				Name:   "reweigh",
				Usage:  "Rebuild the rarity-weight snapshot from the corpus",
				Action: reweighCommand,
				Flags:  engineFlags(),
			},
			{
				Name:   "dedupe",
				Usage:  "Report or remove duplicate species records",
				Action: dedupeCommand,
				Flags: append(engineFlags(),
					&cli.BoolFlag{
						Name:  "apply",
						Usage: "Delete the duplicates instead of only reporting them",
					},
				),
			},
			{
				Name:      "show",
				Usage:     "Show a corpus record by scientific or common name",
				ArgsUsage: "<name>",
				Action:    showCommand,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:   "reembed",
				Usage:  "Re-derive trait tokens and embeddings for every record",
				Action: reembedCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to the corpus database directory",
		Required: true,
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		dbFlag(),
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "jina-embeddings-v3",
		},
	}
}

func openEngine(c *cli.Context, opts ...plantid.EngineOption) (*plantid.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts = append([]plantid.EngineOption{plantid.WithAIConfig(aiConfig)}, opts...)
	engine, err := plantid.NewEngine(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func identifyCommand(c *cli.Context) error {
	ctx := context.Background()

	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("a description is required")
	}

	var opts []plantid.EngineOption
	if c.Bool("no-classify") {
		opts = append(opts, plantid.WithoutClassification())
	}
	if path := c.String("rank-config"); path != "" {
		rankConfig, err := rank.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("failed to load ranking config: %w", err)
		}
		opts = append(opts, plantid.WithRankConfig(rankConfig))
	}

	engine, err := openEngine(c, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Warm(ctx); err != nil {
		return fmt.Errorf("failed to warm engine: %w", err)
	}

	results, err := engine.Identify(ctx, &plantid.Query{
		Text:         text,
		TraitPhrases: c.StringSlice("trait"),
		NameGuesses:  c.StringSlice("guess"),
		TopK:         c.Int("top-k"),
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No candidates found")
		return nil
	}

	for i, result := range results {
		name := result.Record.ScientificName
		if result.Record.CommonName != "" {
			name = fmt.Sprintf("%s (%s)", name, result.Record.CommonName)
		}
		fmt.Printf("%d. %s  score=%.3f  embed=%.3f  feature=%.3f  coverage=%.2f\n",
			i+1, name, result.Score, result.EmbeddingScore, result.FeatureScore, result.Coverage)
		if len(result.MatchedTraits) > 0 {
			matched := make([]string, len(result.MatchedTraits))
			for j, token := range result.MatchedTraits {
				matched[j] = token.String()
			}
			fmt.Printf("   matched: %s\n", strings.Join(matched, ", "))
		}
		if len(result.Penalties) > 0 {
			fmt.Printf("   penalties: %s\n", strings.Join(result.Penalties, ", "))
		}
	}
	return nil
}

func classifyCommand(c *cli.Context) error {
	ctx := context.Background()

	text := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if text == "" {
		return fmt.Errorf("a query is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := engine.Classify(ctx, text)
	if err != nil {
		return err
	}

	fmt.Printf("category: %s (confidence %.3f)\n", result.Category, result.Confidence)
	fmt.Printf("plant score: %.3f, is_plant: %v\n", result.PlantScore, result.IsPlant)
	return nil
}

// corpusRecordInput is the JSONL shape produced by the crawling scripts.
type corpusRecordInput struct {
	ScientificName string   `json:"scientific_name"`
	CommonName     string   `json:"common_name"`
	Family         string   `json:"family"`
	Genus          string   `json:"genus"`
	LifeForm       string   `json:"life_form"`
	Summary        string   `json:"summary"`
	KeyFeatures    []string `json:"key_features"`
	Quality        float64  `json:"quality"`
	SourceURL      string   `json:"source_url"`
}

func (in *corpusRecordInput) toRecord() *core.CorpusRecord {
	return &core.CorpusRecord{
		ScientificName: in.ScientificName,
		CommonName:     in.CommonName,
		Family:         in.Family,
		Genus:          in.Genus,
		LifeForm:       in.LifeForm,
		Summary:        in.Summary,
		KeyFeatures:    in.KeyFeatures,
		Quality:        in.Quality,
		SourceURL:      in.SourceURL,
	}
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	f, err := os.Open(c.String("src"))
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	ingested := 0
	lineNo := 0
	batch := make([]*core.CorpusRecord, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		added, err := pipeline.Ingest(ctx, batch...)
		if err != nil {
			return fmt.Errorf("ingest failed at line %d: %w", lineNo, err)
		}
		ingested += len(added)
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var input corpusRecordInput
		if err := json.Unmarshal([]byte(line), &input); err != nil {
			return fmt.Errorf("malformed record at line %d: %w", lineNo, err)
		}
		batch = append(batch, input.toRecord())
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Ingested %d records from %d lines\n", ingested, lineNo)
	fmt.Fprintln(os.Stderr, "Embeddings fill in asynchronously; run reembed to backfill any gaps")
	return nil
}

func reweighCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.RecomputeWeights(ctx); err != nil {
		return fmt.Errorf("failed to recompute weights: %w", err)
	}

	snapshot := engine.Weights().Snapshot()
	fmt.Fprintf(os.Stderr, "Weight snapshot rebuilt over %d records\n", snapshot.CorpusSize())
	return nil
}

func dedupeCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	var records []*core.CorpusRecord
	err = engine.CorpusRepository().AllRecords(ctx, func(record *core.CorpusRecord) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan corpus: %w", err)
	}

	kept := taxon.Deduplicate(records)
	keptIds := make(map[core.ID]bool, len(kept))
	for _, record := range kept {
		keptIds[record.Id] = true
	}

	var doomed []core.ID
	for _, record := range records {
		if keptIds[record.Id] {
			continue
		}
		doomed = append(doomed, record.Id)
		fmt.Printf("duplicate: %s (%s)  key=%s  quality=%.2f\n",
			record.ScientificName, record.CommonName, taxon.CanonicalKey(record), record.Quality)
	}

	if len(doomed) == 0 {
		fmt.Fprintln(os.Stderr, "No duplicates found")
		return nil
	}

	if !c.Bool("apply") {
		fmt.Fprintf(os.Stderr, "%d duplicates found (re-run with --apply to delete)\n", len(doomed))
		return nil
	}

	if err := engine.CorpusRepository().DeleteRecords(ctx, doomed...); err != nil {
		return fmt.Errorf("failed to delete duplicates: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Deleted %d duplicates, %d records remain\n", len(doomed), len(kept))
	return nil
}

func showCommand(c *cli.Context) error {
	ctx := context.Background()

	name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if name == "" {
		return fmt.Errorf("a species name is required")
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewCorpusRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	record, err := repo.FindByName(ctx, name)
	if err != nil {
		return fmt.Errorf("no record for %q: %w", name, err)
	}

	fmt.Printf("Scientific name: %s\n", record.ScientificName)
	fmt.Printf("Common name:     %s\n", record.CommonName)
	fmt.Printf("Family:          %s\n", record.Family)
	if record.Genus != "" {
		fmt.Printf("Genus:           %s\n", record.Genus)
	}
	fmt.Printf("Life form:       %s\n", record.LifeForm)
	fmt.Printf("Quality:         %.2f\n", record.Quality)
	fmt.Printf("Canonical key:   %s\n", taxon.CanonicalKey(record))
	if record.SourceURL != "" {
		fmt.Printf("Source:          %s\n", record.SourceURL)
	}
	if len(record.TraitTokens) > 0 {
		fmt.Printf("Traits:          %s\n", strings.Join(record.TraitTokens, ", "))
	}
	if record.Summary != "" {
		fmt.Printf("\n%s\n", record.Summary)
	}
	fmt.Printf("\nEmbedded: %v (%d dims)\n", len(record.Vector) > 0, len(record.Vector))
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n\n", c.String("embedding-model"))

	if err := engine.NewReindexer(config, os.Stderr).Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
