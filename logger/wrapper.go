package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
)

// WrapProcess relaunches the service binary as a child process and copies
// its Stderr to the wrapper's stdout. JSON lines pass through untouched,
// anything after a panic header is collected and reported as one record.
func WrapProcess(executable string, arg ...string) {
	fslLogger := NewLogger("Logs wrapper")
	defer handlePanic(fslLogger)

	r, w, err := os.Pipe()
	if err != nil {
		fslLogger.Fatal().Err(err).Msg("Could not create pipe for logs")
		os.Exit(1)
	}

	cmd := exec.Command(executable, arg...)
	cmd.Stderr = w

	if err = cmd.Start(); err != nil {
		fslLogger.Fatal().Err(err).Msg("Could not launch main process")
		os.Exit(1)
	}

	exitCodes := make(chan int)
	lines := make(chan []byte)
	go reportExitCode(cmd, fslLogger, exitCodes)
	go scanStderr(r, fslLogger, lines)

	relay := lineRelay{fslLogger: fslLogger}
	for {
		select {
		case exitCode := <-exitCodes:
			relay.finish(exitCode)
		case line := <-lines:
			relay.forward(line)
		}
	}
}

// lineRelay forwards JSON log lines to stdout. Once a panic header shows up
// every later line is buffered so the whole trace goes out as one record
// when the child exits.
type lineRelay struct {
	fslLogger  zerolog.Logger
	panicTrace strings.Builder
	inPanic    bool
}

func (relay *lineRelay) forward(line []byte) {
	text := string(line)
	if !relay.inPanic && strings.HasPrefix(text, "panic") {
		relay.inPanic = true
	}
	switch {
	case len(line) == 0:
	case relay.inPanic:
		relay.panicTrace.WriteString(text)
		relay.panicTrace.WriteString("\n")
	case isJSON(line):
		println(text)
	default:
		relay.fslLogger.Error().Msgf("Got log line that is not JSON formatted: '%s'", text)
	}
}

func (relay *lineRelay) finish(exitCode int) {
	if exitCode == 0 {
		relay.fslLogger.Info().Msg("Exited with code 0")
	} else {
		relay.fslLogger.
			Fatal().
			Err(errors.New(relay.panicTrace.String())).
			Msgf("Panicked and exited with code: %d", exitCode)
	}
	os.Exit(exitCode)
}

func reportExitCode(cmd *exec.Cmd, fslLogger zerolog.Logger, exitCodes chan<- int) {
	defer handlePanic(fslLogger)
	err := cmd.Wait()
	if err == nil {
		exitCodes <- 0
		return
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		exitCodes <- 1
		return
	}
	exitCodes <- exitErr.ExitCode()
}

func scanStderr(r *os.File, fslLogger zerolog.Logger, lines chan<- []byte) {
	defer handlePanic(fslLogger)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines <- scanner.Bytes()
	}
	if err := scanner.Err(); err != nil {
		fslLogger.Fatal().Err(err).Msg("Error scanning piped main process's Stderr")
		os.Exit(1)
	}
}

func handlePanic(fslLogger zerolog.Logger) {
	r := recover()
	if r == nil {
		return
	}
	fslLogger.Fatal().
		Caller().
		Str("error", fmt.Sprint(r)).
		Str("stack_trace", string(debug.Stack())).
		Msg("Program panicked and exited")
}

func isJSON(b []byte) bool {
	var js json.RawMessage
	err := json.Unmarshal(b, &js)
	return err == nil && js != nil
}
