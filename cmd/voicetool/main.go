// voicetool splits text into speakable chunks and inspects voice files.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-utils/internal/config"
	"github.com/book-expert/tts-utils/internal/text"
	"github.com/book-expert/tts-utils/internal/voice"
)

// Flag descriptions.
const (
	flagTextDesc    = "Text to split into chunks"
	flagFileDesc    = "File containing text to split into chunks"
	flagDesiredDesc = "Desired chunk length in characters"
	flagMaxDesc     = "Maximum chunk length in characters"
	flagVoiceDesc   = "Voice file (.npz) whose metadata is printed"
	flagScanDesc    = "Directory whose voice files are scanned"
	flagPrepDesc    = "Expand abbreviations and numbers before splitting"
)

// Flag names.
const (
	flagText    = "text"
	flagFile    = "file"
	flagDesired = "desired"
	flagMax     = "max"
	flagVoice   = "voice"
	flagScan    = "scan"
	flagPrep    = "preprocess"
)

// Error messages.
const (
	errExactlyOneMode      = "Exactly one of --text, --file, --voice or --scan must be provided"
	errFailedToInitLogger  = "failed to initialize logger: %w"
	errFailedToReadFile    = "failed to read text file: %w"
	errFailedToReadVoice   = "failed to read voice file: %w"
	errFailedToScanVoices  = "failed to scan voice directory: %w"
	errFailedToEncodeJSON  = "failed to encode metadata: %w"
	errInvalidChunkLengths = "invalid chunk lengths: %w"
)

// Log messages.
const (
	logSplitting = "Splitting %d characters (desired %d, max %d)"
	logSplitDone = "Produced %d chunks"
	logReadVoice = "Reading voice metadata from %s"
	logScanning  = "Scanning voice directory %s"
)

const logFileName = "voicetool.log"

var errExactlyOne = errors.New(errExactlyOneMode)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	text    string
	file    string
	voice   string
	scan    string
	desired int
	max     int
	prep    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := run(ctx, os.Args[1:], os.Stdout)

	stop()

	if err != nil {
		// A logger might not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

// run is the main application entry point, returning an error on failure.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	err = validateArguments(flags)
	if err != nil {
		return err
	}

	appLog, err := logger.New(os.TempDir(), logFileName)
	if err != nil {
		return fmt.Errorf(errFailedToInitLogger, err)
	}
	defer func() { _ = appLog.Close() }()

	switch {
	case flags.voice != "":
		return printVoice(appLog, flags.voice, stdout)
	case flags.scan != "":
		return printScan(ctx, appLog, flags.scan, stdout)
	default:
		return printChunks(appLog, flags, stdout)
	}
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags(args []string) (appFlags, error) {
	var flags appFlags

	flagSet := flag.NewFlagSet("voicetool", flag.ContinueOnError)
	flagSet.StringVar(&flags.text, flagText, "", flagTextDesc)
	flagSet.StringVar(&flags.file, flagFile, "", flagFileDesc)
	flagSet.IntVar(&flags.desired, flagDesired, text.DefaultDesiredLength, flagDesiredDesc)
	flagSet.IntVar(&flags.max, flagMax, text.DefaultMaxLength, flagMaxDesc)
	flagSet.StringVar(&flags.voice, flagVoice, "", flagVoiceDesc)
	flagSet.StringVar(&flags.scan, flagScan, "", flagScanDesc)
	flagSet.BoolVar(&flags.prep, flagPrep, false, flagPrepDesc)

	err := flagSet.Parse(args)
	if err != nil {
		return appFlags{}, err
	}

	return flags, nil
}

// validateArguments checks that exactly one mode was requested and that the
// chunk lengths are usable.
func validateArguments(flags appFlags) error {
	modes := 0

	for _, value := range []string{flags.text, flags.file, flags.voice, flags.scan} {
		if value != "" {
			modes++
		}
	}

	if modes != 1 {
		return errExactlyOne
	}

	err := config.ValidateLengths(flags.desired, flags.max)
	if err != nil {
		return fmt.Errorf(errInvalidChunkLengths, err)
	}

	return nil
}

// printChunks splits --text or the contents of --file and prints one chunk per line.
func printChunks(appLog *logger.Logger, flags appFlags, stdout io.Writer) error {
	input := flags.text

	if flags.file != "" {
		data, err := os.ReadFile(flags.file)
		if err != nil {
			return fmt.Errorf(errFailedToReadFile, err)
		}

		input = string(data)
	}

	if flags.prep {
		input = text.Preprocess(input)
	}

	appLog.Info(logSplitting, len([]rune(input)), flags.desired, flags.max)

	chunks := text.SplitAndRecombine(input, flags.desired, flags.max)

	appLog.Info(logSplitDone, len(chunks))

	if len(chunks) == 0 {
		return nil
	}

	_, err := fmt.Fprintln(stdout, text.Join(chunks))

	return err
}

// printVoice prints the metadata of a single voice file as indented JSON.
func printVoice(appLog *logger.Logger, path string, stdout io.Writer) error {
	appLog.Info(logReadVoice, path)

	meta, err := voice.ReadMetadataFile(path)
	if err != nil {
		appLog.Error("Failed to read voice %s: %v", path, err)

		return fmt.Errorf(errFailedToReadVoice, err)
	}

	return writeJSON(stdout, meta)
}

// printScan prints a name to metadata object for every readable voice in dir.
func printScan(ctx context.Context, appLog *logger.Logger, dir string, stdout io.Writer) error {
	appLog.Info(logScanning, dir)

	entries, err := voice.NewScanner(appLog).ScanDir(ctx, dir)
	if err != nil {
		return fmt.Errorf(errFailedToScanVoices, err)
	}

	voices := make(map[string]voice.Metadata, len(entries))
	for _, entry := range entries {
		voices[entry.Name] = entry.Metadata
	}

	return writeJSON(stdout, voices)
}

func writeJSON(stdout io.Writer, value any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf(errFailedToEncodeJSON, err)
	}

	return nil
}
