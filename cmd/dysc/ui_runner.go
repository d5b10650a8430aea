package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"dysc/internal/pipeline"
	"dysc/internal/ui"
)

type batchOutcome struct {
	results []pipeline.Result
	err     error
}

func runBatchWithUI(ctx context.Context, title string, reqs []*pipeline.Request, jobs int) ([]pipeline.Result, error) {
	names := make([]string, len(reqs))
	for i, req := range reqs {
		names[i] = req.Name
	}
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan batchOutcome, 1)

	go func() {
		res, err := pipeline.CompileAll(ctx, reqs, jobs, pipeline.ChannelSink{Ch: events})
		outcomeCh <- batchOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the producer from blocking on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

func runBatch(ctx context.Context, title string, reqs []*pipeline.Request, jobs int, useTUI bool) ([]pipeline.Result, error) {
	if useTUI {
		return runBatchWithUI(ctx, title, reqs, jobs)
	}
	return pipeline.CompileAll(ctx, reqs, jobs, nil)
}
