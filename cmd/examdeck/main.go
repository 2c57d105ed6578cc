package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kbenson/examdeck/internal/client"
	"github.com/kbenson/examdeck/internal/config"
	"github.com/kbenson/examdeck/internal/logging"
	"github.com/kbenson/examdeck/internal/model"
	"github.com/kbenson/examdeck/internal/store"
	"github.com/kbenson/examdeck/internal/ui"
)

func main() {
	var (
		batchPath    = flag.String("batch", "", "path to the current round's annotation JSON")
		previousPath = flag.String("previous", "", "path to the previous round's annotation JSON")
		taskID       = flag.String("task", "default", "annotation task id")
		round        = flag.Int("round", 1, "annotation round of -batch")
		guidelineSrc = flag.String("guideline", "", "path to the annotation guideline text")
		listBatches  = flag.Bool("list", false, "list cached batches and exit")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.AutoPopulateFromEnv()

	if err := logging.Init(); err != nil {
		log.Fatalf("Failed to init logging: %v", err)
	}
	defer logging.Close()

	dataDir := cfg.DataPath()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.Open(filepath.Join(dataDir, "examdeck.db"))
	if err != nil {
		log.Fatalf("Failed to open batch cache: %v", err)
	}
	defer st.Close()

	if *listBatches {
		printBatches(st)
		return
	}

	guideline := ""
	if *guidelineSrc != "" {
		data, err := os.ReadFile(*guidelineSrc)
		if err != nil {
			log.Fatalf("Failed to read guideline: %v", err)
		}
		guideline = string(data)
	}

	api := client.New(cfg.Backend.URL, time.Duration(cfg.Backend.TimeoutSecs)*time.Second, cfg.Backend.RequestsPerTick)
	ctx := context.Background()

	// loadBatch: JSON files when given, otherwise the two latest cached
	// rounds for the task. Fresh files are cached for the next run.
	loadBatch := func() tea.Cmd {
		return func() tea.Msg {
			if *batchPath == "" {
				current, previous, r, err := st.LatestRounds(*taskID)
				if err != nil {
					return ui.BatchLoaded{Err: fmt.Errorf("no cached rounds for task %q: %w", *taskID, err)}
				}
				return ui.BatchLoaded{Current: current, Previous: previous, TaskID: *taskID, Round: r}
			}

			current, err := model.LoadBatch(*batchPath)
			if err != nil {
				return ui.BatchLoaded{Err: err}
			}

			var previous []model.Item
			if *previousPath != "" {
				previous, err = model.LoadBatch(*previousPath)
				if err != nil {
					return ui.BatchLoaded{Err: err}
				}
			}

			if err := st.SaveBatch(*taskID, *round, *batchPath, current); err != nil {
				logging.Warn("caching batch failed", "err", err)
			}
			if previous != nil && *round > 1 {
				if err := st.SaveBatch(*taskID, *round-1, *previousPath, previous); err != nil {
					logging.Warn("caching previous batch failed", "err", err)
				}
			}

			return ui.BatchLoaded{Current: current, Previous: previous, TaskID: *taskID, Round: *round}
		}
	}

	reannotate := func(item model.Item) tea.Cmd {
		return func() tea.Msg {
			updated, err := api.Reannotate(ctx, item, guideline, *taskID, *round)
			if err != nil {
				logging.Error("reannotate failed", "uid", item.UID, "err", err)
				return ui.ReannotateDone{Err: err}
			}
			return ui.ReannotateDone{Item: updated}
		}
	}

	addExample := func(text string) tea.Cmd {
		return func() tea.Msg {
			item, err := api.AddExample(ctx, text, guideline, *taskID)
			if err != nil {
				logging.Error("add example failed", "err", err)
				return ui.ExampleAdded{Err: err}
			}
			return ui.ExampleAdded{Item: item}
		}
	}

	app := ui.NewApp(loadBatch, reannotate, addExample, cfg.UI.PageSize, time.Duration(cfg.UI.LoadMoreDelayMs)*time.Millisecond)
	app.SetColorCoding(cfg.UI.ColorCode, cfg.UI.ClassPalette)

	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Printf("Error running program: %v", err)
	}
}

func printBatches(st *store.Store) {
	infos, err := st.ListBatches()
	if err != nil {
		log.Fatalf("Failed to list batches: %v", err)
	}
	if len(infos) == 0 {
		fmt.Println("No cached batches.")
		return
	}
	for _, info := range infos {
		fmt.Printf("%s\tround %d\t%d examples\t%s\n", info.TaskID, info.Round, info.ItemCount, info.Loaded.Format(time.RFC3339))
	}
}
