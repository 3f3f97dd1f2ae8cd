package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/analyzer"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/embedder"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/extractor"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/filehandler"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/transcode"
)

type jsonResult struct {
	Path   string                 `json:"path"`
	Result *models.AnalysisResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

func runAnalyze(ctx context.Context, args []string) error {
	var g globalFlags
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	g.register(fs)
	var (
		filePath = fs.String("file", "", "Path or http(s) URL of a single file for analysis")
		dirPath  = fs.String("dir", "", "Path to directory of files for analysis")
		walk     = fs.Bool("recursive", false, "With -dir, also analyze files in subdirectories")
		listPath = fs.String("list", "", "Path to file listing one media path per line")
		methods  = fs.String("methods", "", "Comma separated methods to run (default: all)")
		workers  = fs.Int("workers", 0, "Files analyzed in parallel (default: config workers)")
		asJSON   = fs.Bool("json", false, "Print results as JSON")
		verbose  = fs.Bool("verbose", false, "Enable verbose output")
	)
	fs.Parse(args)

	var files []string
	switch {
	case *filePath != "":
		files = []string{*filePath}
	case *dirPath != "" && *walk:
		found, err := filehandler.FilesInDirectory(*dirPath, filehandler.MediaExtensions())
		if err != nil {
			return err
		}
		files = found
	case *dirPath != "":
		found, err := filehandler.GatherFiles(*dirPath)
		if err != nil {
			return fmt.Errorf("failed to read directory: %w", err)
		}
		files = found
	case *listPath != "":
		lines, err := filehandler.ReadLines(*listPath)
		if err != nil {
			return fmt.Errorf("failed to read file list: %w", err)
		}
		files = lines
	default:
		fs.Usage()
		return errors.New("one of -file, -dir or -list is required")
	}
	if len(files) == 0 {
		printWarning("No media files to analyze")
		return nil
	}

	a, err := newApp(g)
	if err != nil {
		return err
	}
	files, cleanup, err := a.localize(ctx, files)
	defer cleanup()
	if err != nil {
		return err
	}
	if *workers == 0 {
		*workers = a.cfg.Workers
	}
	options := analyzer.AnalysisOptions{Verbose: *verbose, Methods: splitList(*methods)}

	if !*asJSON {
		printInfo("Analyzing %d file(s)", len(files))
	}
	results := analyzer.ScanFiles(ctx, a.analyzers(), files, options, *workers, a.log)

	if *asJSON {
		out := make([]jsonResult, len(results))
		for i, r := range results {
			out[i] = jsonResult{Path: r.Path, Result: r.Result}
			if r.Err != nil {
				out[i].Error = r.Err.Error()
			}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	var analyzed []*models.AnalysisResult
	for _, r := range results {
		if r.Err != nil {
			printError("%s: %v", r.Path, r.Err)
			continue
		}
		displayAnalysisResult(r.Result, *verbose)
		analyzed = append(analyzed, r.Result)
	}
	if len(files) > 1 {
		printSummary(analyzed, a.cfg.Thresholds)
	}
	return ctx.Err()
}

func runEmbed(ctx context.Context, args []string) error {
	var g globalFlags
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	g.register(fs)
	var (
		cover        = fs.String("cover", "", "Cover audio or video file (or a directory of frame images)")
		out          = fs.String("out", "", "Output path (.wav/.flac for audio, .mkv for video, a directory for frames)")
		message      = fs.String("message", "", "Payload text")
		payloadFile  = fs.String("payload", "", "Payload file")
		audioMessage = fs.String("audio-message", "", "Video only: payload text for the audio track")
		audioFile    = fs.String("audio-payload", "", "Video only: payload file for the audio track")
		stream       = fs.String("stream", "frames", "Video only: frames, audio or both (both reuses -message unless an audio payload is given)")
		frameFormat  = fs.String("frame-format", transcode.FormatPNG, "Image format when writing frame directories (png, bmp, tiff)")
	)
	fs.Parse(args)

	if *cover == "" || *out == "" {
		fs.Usage()
		return errors.New("-cover and -out are required")
	}
	payload, err := readPayload(*message, *payloadFile)
	if err != nil {
		return err
	}

	a, err := newApp(g)
	if err != nil {
		return err
	}

	if !isDir(*cover) && filehandler.IsAudioFile(*cover) {
		if payload == nil {
			return errors.New("a payload is required: use -message or -payload")
		}
		emb := embedder.New(a.cfg, nil, a.audioDecoder(), a.log)
		report, err := emb.EmbedAudioFile(ctx, *cover, *out, payload)
		if err != nil {
			return err
		}
		printSuccess("Embedded %d bytes into %s (capacity %d bytes)", report.AudioBytes, report.Output, report.AudioCapacity)
		return nil
	}

	audioPayload, err := readPayload(*audioMessage, *audioFile)
	if err != nil {
		return err
	}
	var p embedder.Payloads
	switch *stream {
	case "frames":
		p.Frames = payload
	case "audio":
		p.Audio = payload
		if audioPayload != nil {
			p.Audio = audioPayload
		}
	case "both":
		p.Frames = payload
		p.Audio = payload
		if audioPayload != nil {
			p.Audio = audioPayload
		}
	default:
		return fmt.Errorf("unknown stream %q: want frames, audio or both", *stream)
	}
	if len(p.Frames) == 0 && len(p.Audio) == 0 {
		return errors.New("a payload is required: use -message or -payload")
	}

	frames, err := a.frameTranscoder(*cover, *frameFormat)
	if err != nil {
		return err
	}
	emb := embedder.New(a.cfg, frames, a.audioDecoder(), a.log)
	report, err := emb.EmbedVideo(ctx, *cover, *out, p)
	if err != nil {
		return err
	}
	if report.FrameBytes > 0 {
		printSuccess("Embedded %d bytes into frames (capacity %d bytes)", report.FrameBytes, report.FrameCapacity)
	}
	if report.AudioBytes > 0 {
		printSuccess("Embedded %d bytes into the audio track (capacity %d bytes)", report.AudioBytes, report.AudioCapacity)
	}
	printInfo("Wrote %s", report.Output)
	return nil
}

func runExtract(ctx context.Context, args []string) error {
	var g globalFlags
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	g.register(fs)
	var (
		filePath  = fs.String("file", "", "Stego file, http(s) URL, or a directory of frame images")
		outputDir = fs.String("outdir", "", "Directory to write recovered payloads to")
		show      = fs.Bool("print", true, "Print text payloads")
	)
	fs.Parse(args)

	if *filePath == "" {
		fs.Usage()
		return errors.New("-file is required")
	}
	a, err := newApp(g)
	if err != nil {
		return err
	}
	local, cleanup, err := a.localize(ctx, []string{*filePath})
	defer cleanup()
	if err != nil {
		return err
	}
	*filePath = local[0]
	options := extractor.ExtractionOptions{OutputDir: *outputDir}

	var results []*models.ExtractionResult
	if isDir(*filePath) {
		frames, err := a.frameTranscoder(*filePath, transcode.FormatPNG)
		if err != nil {
			return err
		}
		res, err := extractor.NewVideoFrameExtractor(frames, a.cfg.MaxDecodeBytes, a.log).Extract(ctx, *filePath, options)
		if err != nil {
			return err
		}
		results = append(results, res)
	} else {
		results, err = a.extractors().ExtractFile(ctx, *filePath, options)
		if err != nil && len(results) == 0 {
			return err
		}
		if err != nil {
			printWarning("%v", err)
		}
	}

	found := 0
	for _, r := range results {
		if !r.Found {
			printInfo("No hidden message found in %s stream", r.Stream)
			continue
		}
		found++
		printAlert("Recovered %d bytes from %s stream (%s)", r.DataSize, r.Stream, r.DataType)
		if *show && r.DataType == "text" {
			fmt.Println(r.Text())
		}
		for _, f := range r.OutputFiles {
			printSuccess("Saved to %s", f)
		}
	}
	if found == 0 {
		printSuccess("No hidden message found")
	}
	return nil
}

func runCapacity(ctx context.Context, args []string) error {
	var g globalFlags
	fs := flag.NewFlagSet("capacity", flag.ExitOnError)
	g.register(fs)
	filePath := fs.String("file", "", "Cover audio or video file (or a directory of frame images)")
	fs.Parse(args)

	if *filePath == "" {
		fs.Usage()
		return errors.New("-file is required")
	}
	a, err := newApp(g)
	if err != nil {
		return err
	}

	if !isDir(*filePath) && filehandler.IsAudioFile(*filePath) {
		n, err := embedder.New(a.cfg, nil, a.audioDecoder(), a.log).AudioCapacity(ctx, *filePath)
		if err != nil {
			return err
		}
		printInfo("Audio samples can carry %d bytes", n)
		return nil
	}

	frames, err := a.frameTranscoder(*filePath, transcode.FormatPNG)
	if err != nil {
		return err
	}
	c, err := embedder.New(a.cfg, frames, a.audioDecoder(), a.log).VideoCapacity(ctx, *filePath)
	if err != nil {
		return err
	}
	estimate := ""
	if !c.Exact {
		estimate = " (estimated from duration)"
	}
	printInfo("Frames can carry %d bytes%s", c.Frames, estimate)
	if c.HasAudio {
		printInfo("Audio track can carry %d bytes", c.Audio)
	} else {
		printInfo("No audio track")
	}
	return nil
}

func runFormats(ctx context.Context, args []string) error {
	var g globalFlags
	fs := flag.NewFlagSet("formats", flag.ExitOnError)
	g.register(fs)
	fs.Parse(args)

	a, err := newApp(g)
	if err != nil {
		return err
	}
	if a.ffmpeg == nil {
		printWarning("ffmpeg not found: video and compressed audio are unavailable")
	}

	fmt.Println("Analysis:")
	analyzers := a.analyzers()
	for _, format := range analyzers.GetSupportedFormats() {
		var names []string
		for _, an := range analyzers.GetAnalyzersForFormat(format) {
			names = append(names, an.Name())
		}
		fmt.Printf("- %s: %s\n", format, strings.Join(names, ", "))
	}

	fmt.Println("Extraction:")
	extractors := a.extractors()
	for _, format := range extractors.GetSupportedFormats() {
		var names []string
		for _, e := range extractors.GetExtractorsForFormat(format) {
			names = append(names, e.Name())
		}
		fmt.Printf("- %s: %s\n", format, strings.Join(names, ", "))
	}
	return nil
}

// readPayload returns the text or file payload; nil when neither is given.
func readPayload(text, file string) ([]byte, error) {
	switch {
	case text != "" && file != "":
		return nil, errors.New("give either a message or a payload file, not both")
	case file != "":
		return filehandler.ReadFileBytes(file)
	case text != "":
		return []byte(text), nil
	}
	return nil, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
