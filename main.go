package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/chazu/topomesh/pkg/config"
	"github.com/chazu/topomesh/pkg/logging"
	"github.com/chazu/topomesh/pkg/solver"
)

// main is the entrypoint for the topomesh command.
func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *config.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run loads the run file, evaluates the study against the recorded design
// mesh, replays every frame and writes markers.json and frame-final.json to
// the output directory.
func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := config.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}
	if err := logging.Configure(cfg.LogLevel, cfg.LogFormat, nil); err != nil {
		return &config.ExitError{Code: 2, Message: err.Error()}
	}

	source, err := os.ReadFile(cfg.Study)
	if err != nil {
		return errors.Wrap(err, "read study")
	}
	rec, err := solver.LoadRecording(cfg.Recording)
	if err != nil {
		return err
	}

	app := NewApp(cfg)
	eval := app.Evaluate(string(source), rec.Mesh)
	for _, w := range eval.Warnings {
		fmt.Fprintf(outW, "warning: %s\n", describe(w))
	}
	if len(eval.Errors) > 0 {
		msgs := make([]string, 0, len(eval.Errors))
		for _, e := range eval.Errors {
			msgs = append(msgs, describe(e))
		}
		return &config.ExitError{Code: 1, Message: "study errors:\n  " + strings.Join(msgs, "\n  ")}
	}

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	if err := writeJSON(filepath.Join(cfg.Output, "markers.json"), eval.Markers); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := app.Run(ctx, eval.Study, rec.Stepper(), nil)
	if err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(cfg.Output, "frame-final.json"), summary); err != nil {
		return err
	}
	fmt.Fprintf(outW, "run %s: %d frames written to %s\n", summary.RunID, summary.Frames, cfg.Output)
	return nil
}

func describe(e EvalErrorData) string {
	msg := e.Message
	if e.Goal != "" {
		msg = fmt.Sprintf("goal %s: %s", e.Goal, msg)
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", filepath.Base(path))
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", filepath.Base(path))
}
