package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/analyzer"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/config"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/extractor"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/filehandler"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/logging"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/transcode"
)

const version = "1.0.0"

var (
	// Color printers
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	alertColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

func printInfo(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", successColor("[+]"), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

func printAlert(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", alertColor("[!!!]"), fmt.Sprintf(format, args...))
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = []command{
	{"analyze", "score media files for hidden payloads", runAnalyze},
	{"embed", "hide a payload in an audio or video file", runEmbed},
	{"extract", "recover a hidden payload", runExtract},
	{"capacity", "report how many bytes a file can carry", runCapacity},
	{"formats", "list supported formats", runFormats},
}

func usage() {
	fmt.Fprintf(os.Stderr, "StegDetector v%s\n", version)
	fmt.Fprintln(os.Stderr, "LSB steganography embedding, extraction and detection for audio and video")
	fmt.Fprintln(os.Stderr, "\nUsage:\n  stegdetector <command> [flags]\n\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(os.Stderr, "\nRun 'stegdetector <command> -h' for command flags.")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(ctx, os.Args[2:]); err != nil {
			printError("%v", err)
			stop()
			os.Exit(1)
		}
		return
	}
	if name != "-h" && name != "--help" && name != "help" {
		printError("unknown command %q", name)
	}
	usage()
	os.Exit(2)
}

// app holds what every command shares: configuration, logger and the
// external transcoder when one is installed.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	ffmpeg *transcode.FFmpeg
}

// globalFlags are accepted by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	logJSON    bool
}

func (g *globalFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&g.configPath, "config", os.Getenv("STEGDETECTOR_CONFIG"), "Path to a YAML config file")
	fs.StringVar(&g.logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")
	fs.BoolVar(&g.logJSON, "log-json", false, "Write logs as JSON")
}

func newApp(g globalFlags) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logJSON {
		cfg.LogFormat = "json"
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})

	a := &app{cfg: cfg, log: log}
	ff := transcode.NewFFmpeg(transcode.FFmpegOptions{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		Timeout:     cfg.TranscodeTimeout,
	}, log)
	if ff.Available() {
		a.ffmpeg = ff
	} else {
		log.Debug().Str("ffmpeg", cfg.FFmpegPath).Msg("ffmpeg not found, video and compressed audio disabled")
	}
	return a, nil
}

// audioDecoder is nil without ffmpeg so callers fall back to WAV and FLAC.
func (a *app) audioDecoder() transcode.AudioTrackTranscoder {
	if a.ffmpeg == nil {
		return nil
	}
	return a.ffmpeg
}

// frameTranscoder picks the frame source for path: a directory is read as an
// image sequence (written back as frameFormat images), anything else goes
// through ffmpeg.
func (a *app) frameTranscoder(path, frameFormat string) (transcode.Transcoder, error) {
	if isDir(path) {
		return transcode.NewImageSequence(frameFormat, 0, a.log)
	}
	if a.ffmpeg == nil {
		return nil, fmt.Errorf("video input %s requires ffmpeg (%s not found)", path, a.cfg.FFmpegPath)
	}
	return a.ffmpeg, nil
}

func (a *app) analyzers() *analyzer.Registry {
	store := analyzer.NewModelStore(a.cfg, a.log)
	reg := analyzer.NewRegistry()
	reg.Register(analyzer.NewAudioAnalyzer(a.cfg, store, a.audioDecoder(), a.log))
	if a.ffmpeg != nil {
		reg.Register(analyzer.NewVideoAnalyzer(a.cfg, store, a.ffmpeg, a.log))
	}
	return reg
}

func (a *app) extractors() *extractor.Registry {
	reg := extractor.NewRegistry()
	reg.Register(extractor.NewAudioExtractor(a.audioDecoder(), a.cfg.TempDir, a.log))
	if a.ffmpeg != nil {
		reg.Register(extractor.NewVideoFrameExtractor(a.ffmpeg, a.cfg.MaxDecodeBytes, a.log))
		reg.Register(extractor.NewVideoAudioExtractor(a.ffmpeg, a.cfg.TempDir, a.log))
	}
	return reg
}

// localize downloads every URL in paths into one workspace and returns the
// local paths. cleanup removes the downloads.
func (a *app) localize(ctx context.Context, paths []string) (local []string, cleanup func(), err error) {
	cleanup = func() {}
	var ws *transcode.Workspace
	local = make([]string, len(paths))
	for i, p := range paths {
		if !filehandler.IsURL(p) {
			local[i] = p
			continue
		}
		if ws == nil {
			if ws, err = transcode.NewWorkspace(a.cfg.TempDir); err != nil {
				return nil, cleanup, err
			}
			cleanup = func() { ws.Close() }
		}
		printInfo("Downloading %s", p)
		if local[i], err = filehandler.DownloadFile(ctx, p, ws.Dir); err != nil {
			return nil, cleanup, err
		}
	}
	return local, cleanup, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
