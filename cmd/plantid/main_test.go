package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findStringFlag(t *testing.T, flags []cli.Flag, name string) *cli.StringFlag {
	t.Helper()
	for _, flag := range flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func findIntFlag(t *testing.T, flags []cli.Flag, name string) *cli.IntFlag {
	t.Helper()
	for _, flag := range flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func TestEngineFlags(t *testing.T) {
	flags := engineFlags()

	t.Run("db is required", func(t *testing.T) {
		dbFlag := findStringFlag(t, flags, "db")
		require.NotNil(t, dbFlag)
		assert.True(t, dbFlag.Required)
	})

	t.Run("embedding-host has default value", func(t *testing.T) {
		hostFlag := findStringFlag(t, flags, "embedding-host")
		require.NotNil(t, hostFlag)
		assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)
	})

	t.Run("embedding-model has default value", func(t *testing.T) {
		modelFlag := findStringFlag(t, flags, "embedding-model")
		require.NotNil(t, modelFlag)
		assert.Equal(t, "jina-embeddings-v3", modelFlag.Value)
	})
}

func TestCommandValidation(t *testing.T) {
	newApp := func(cmd *cli.Command) *cli.App {
		return &cli.App{
			Name:     "plantid",
			Commands: []*cli.Command{cmd},
		}
	}

	t.Run("identify requires db", func(t *testing.T) {
		app := newApp(&cli.Command{
			Name:   "identify",
			Action: identifyCommand,
			Flags:  engineFlags(),
		})
		err := app.Run([]string{"plantid", "identify", "紅色的花"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("identify requires a description", func(t *testing.T) {
		app := newApp(&cli.Command{
			Name:   "identify",
			Action: identifyCommand,
			Flags:  engineFlags(),
		})
		err := app.Run([]string{"plantid", "identify", "--db", t.TempDir()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "description")
	})

	t.Run("ingest requires src", func(t *testing.T) {
		app := newApp(&cli.Command{
			Name:   "ingest",
			Action: ingestCommand,
			Flags: append(engineFlags(),
				&cli.StringFlag{Name: "src", Required: true},
				&cli.IntFlag{Name: "batch-size", Value: 50},
			),
		})
		err := app.Run([]string{"plantid", "ingest", "--db", t.TempDir()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "src")
	})

	t.Run("reembed rejects zero batch size", func(t *testing.T) {
		app := newApp(&cli.Command{
			Name:   "reembed",
			Action: reembedCommand,
			Flags: append(engineFlags(),
				&cli.IntFlag{Name: "batch-size", Value: 0},
				&cli.IntFlag{Name: "report-interval", Value: 100},
				&cli.IntFlag{Name: "max-retries", Value: 3},
				&cli.DurationFlag{Name: "retry-delay"},
			),
		})
		err := app.Run([]string{"plantid", "reembed", "--db", t.TempDir()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch-size")
	})
}

func TestCorpusRecordInput(t *testing.T) {
	input := &corpusRecordInput{
		ScientificName: "Rhizophora stylosa",
		CommonName:     "紅海欖",
		Family:         "Rhizophoraceae",
		LifeForm:       "喬木",
		KeyFeatures:    []string{"支柱根", "胎生苗"},
		Quality:        0.9,
		SourceURL:      "https://example.org/rhizophora",
	}

	record := input.toRecord()
	assert.Equal(t, "Rhizophora stylosa", record.ScientificName)
	assert.Equal(t, "紅海欖", record.CommonName)
	assert.Equal(t, []string{"支柱根", "胎生苗"}, record.KeyFeatures)
	assert.Equal(t, 0.9, record.Quality)
	assert.Empty(t, record.TraitTokens, "tokens are derived at ingest time")
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "log-level", Value: tc.input},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error { return nil },
				}
				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
		err := app.Run([]string{"test", "--log-level", "WaRn"})
		require.NoError(t, err)
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
		err := app.Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
