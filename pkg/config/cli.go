package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ExitError carries the process exit code for a command-line failure.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns the resolved Config, a
// flag reporting that the program should exit cleanly (help was printed), or
// an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	fs := flag.NewFlagSet("topomesh", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
topomesh - turns density-field solver frames into render meshes.

Usage:
  topomesh [options] [RUN_FILE]

Arguments:
  RUN_FILE
    Path to an .hcl run file naming the study, the recording and the output.

Options:
`)
		fs.PrintDefaults()
	}

	configFlag := fs.String("config", "", "Path to the run file.")
	logLevelFlag := fs.String("log-level", "", "Override the logging level: 'debug', 'info', 'warn', 'error'.")
	logFormatFlag := fs.String("log-format", "", "Override the log format: 'text' or 'json'.")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := *configFlag
	if path == "" && fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		fs.Usage()
		return nil, true, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = strings.ToLower(*logLevelFlag)
	}
	if *logFormatFlag != "" {
		cfg.LogFormat = strings.ToLower(*logFormatFlag)
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if cfg.Study == "" || cfg.Recording == "" {
		return nil, false, &ExitError{Code: 2, Message: "run file must name a study and a recording"}
	}
	return cfg, false, nil
}
