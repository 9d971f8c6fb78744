// Package main provides the inkvoice command-line interface.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/inkvoice/inkvoice/internal/api"
	"github.com/inkvoice/inkvoice/internal/chapters"
	"github.com/inkvoice/inkvoice/internal/config"
	"github.com/inkvoice/inkvoice/internal/converter"
	"github.com/inkvoice/inkvoice/internal/epub"
	"github.com/inkvoice/inkvoice/internal/logger"
	"github.com/inkvoice/inkvoice/internal/media"
	"github.com/inkvoice/inkvoice/internal/ratelimit"
	"github.com/inkvoice/inkvoice/internal/tts"
	"github.com/inkvoice/inkvoice/internal/watcher"
)

const usage = `inkvoice converts EPUB books into chaptered audiobooks.

Usage:
  inkvoice <command> [flags] [arguments]

Commands:
  convert <book.epub>   Convert a book to audio chapters
  sections <book.epub>  List a book's sections and canonical chapter numbers
  voices                List available narrator voices and style presets
  serve                 Serve converted books over HTTP
  watch <dir>           Watch a directory and convert books dropped into it

Run 'inkvoice <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "convert":
		err = runConvert(os.Args[2:])
	case "sections":
		err = runSections(os.Args[2:])
	case "voices":
		err = runVoices()
	case "serve":
		err = runServe(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig parses the remaining flags and resolves configuration.
func loadConfig(fs *flag.FlagSet, cf *config.Flags, args []string) (*config.Config, *logger.Logger, error) {
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(cf)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	})
	return cfg, log, nil
}

// newConverter wires the synthesis provider and transcoder from config.
// A missing API key is only an error when the run will actually synthesize.
func newConverter(cfg *config.Config, log *logger.Logger, dryRun bool) (*converter.Converter, error) {
	var provider tts.Provider
	if cfg.TTS.APIKey != "" {
		var opts []tts.GeminiOption
		if cfg.TTS.RequestsPerMinute > 0 {
			opts = append(opts, tts.WithLimiter(ratelimit.PerMinute(cfg.TTS.RequestsPerMinute)))
		}
		gemini, err := tts.NewGemini(cfg.TTS.APIKey, cfg.TTS.Voice, cfg.TTS.LanguageCode, opts...)
		if err != nil {
			return nil, err
		}
		provider = gemini
	} else if !dryRun {
		return nil, fmt.Errorf("no API key configured: set GEMINI_API_KEY, GOOGLE_API_KEY, or use -api-key")
	}

	transcoder := media.NewDisabledTranscoder(log.Logger)
	if cfg.Transcode.Enabled {
		transcoder = media.NewTranscoder(log.Logger, cfg.Transcode.FFmpegPath)
	}
	return converter.New(provider, transcoder, log.Logger), nil
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	cf := config.Register(fs)
	style := fs.String("narrator-style", tts.DefaultStyle, "Narration style preset: "+strings.Join(tts.StyleNames(), ", "))
	stylePrompt := fs.String("style", "", "Custom narration style prompt (overrides -narrator-style)")
	selection := fs.String("sections", "", `Section selection like "2,4-7" (indices from the sections command)`)
	start := fs.Int("start-chapter", 0, "First chapter number to convert")
	end := fs.Int("end-chapter", 0, "Last chapter number to convert (0 = last)")
	skipExisting := fs.Bool("skip-existing", true, "Skip chapters whose audio already exists")
	force := fs.Bool("force", false, "Regenerate chapters even when audio exists")
	dryRun := fs.Bool("dry-run", false, "List the chapters that would be converted, without synthesizing")
	includeHeadings := fs.Bool("include-headings", false, "Narrate section headings instead of stripping them")
	outDir := fs.String("o", "", "Output directory for this book (default: <output-path>/<book-id>)")

	cfg, log, err := loadConfig(fs, cf, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("convert expects exactly one EPUB path")
	}

	if *stylePrompt == "" && !tts.ValidStyle(*style) {
		return fmt.Errorf("unknown style %q (available: %s)", *style, strings.Join(tts.StyleNames(), ", "))
	}
	if !tts.ValidVoice(cfg.TTS.Voice) {
		return fmt.Errorf("unknown voice %q (run 'inkvoice voices' for the list)", cfg.TTS.Voice)
	}

	conv, err := newConverter(cfg, log, *dryRun)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := conv.Convert(ctx, converter.Options{
		EPUBPath:        fs.Arg(0),
		OutputDir:       *outDir,
		OutputBase:      cfg.Output.BasePath,
		Voice:           cfg.TTS.Voice,
		LanguageCode:    cfg.TTS.LanguageCode,
		Style:           *style,
		CustomStyle:     *stylePrompt,
		Selection:       *selection,
		StartChapter:    *start,
		EndChapter:      *end,
		SkipExisting:    *skipExisting,
		Force:           *force,
		DryRun:          *dryRun,
		IncludeHeadings: *includeHeadings,
		MaxChunkChars:   cfg.TTS.MaxChunkChars,
		MaxConcurrent:   cfg.TTS.MaxConcurrent,
	})
	if err != nil {
		return err
	}

	if *dryRun {
		fmt.Printf("%s by %s: %d chapters would be converted\n",
			result.Metadata.Title, result.Metadata.Author, len(result.Chapters))
		for _, ch := range result.Chapters {
			fmt.Printf("  %2d. %s\n", ch.Number, ch.Title)
		}
		return nil
	}

	fmt.Printf("Done: %d generated, %d skipped, %d failed -> %s\n",
		result.Generated, result.Skipped, result.Failed, result.OutputDir)
	if result.Failed > 0 {
		for _, ch := range result.Chapters {
			if ch.Err != nil {
				fmt.Printf("  chapter %d (%s): %v\n", ch.Number, ch.Title, ch.Err)
			}
		}
		return fmt.Errorf("%d chapters failed", result.Failed)
	}
	return nil
}

func runSections(args []string) error {
	fs := flag.NewFlagSet("sections", flag.ExitOnError)
	cf := config.Register(fs)
	if _, _, err := loadConfig(fs, cf, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("sections expects exactly one EPUB path")
	}

	book, err := epub.Parse(fs.Arg(0))
	if err != nil {
		return err
	}
	contentIndices := chapters.ContentIndices(book.Sections)
	assembled := chapters.Assemble(book.Sections, contentIndices, chapters.AssembleOptions{})

	chapterBySection := make(map[int]int, len(assembled))
	for _, ch := range assembled {
		chapterBySection[ch.SectionIndex] = ch.Number
	}

	fmt.Printf("%s by %s: %d sections, %d content chapters\n\n",
		book.Title, book.Author, len(book.Sections), len(assembled))
	for _, s := range book.Sections {
		tag := "front/back matter"
		if n, ok := chapterBySection[s.Index]; ok {
			tag = fmt.Sprintf("chapter %d", n)
		}
		fmt.Printf("  %3d. %-45s %6d words  %s\n", s.Index, s.Title, s.WordCount, tag)
	}
	if len(book.Skips) > 0 {
		fmt.Printf("\nSkipped outline entries:\n")
		for _, skip := range book.Skips {
			fmt.Printf("  %-45s %s\n", skip.Label, skip.Reason)
		}
	}
	return nil
}

func runVoices() error {
	fmt.Println("Voices:")
	for _, v := range tts.Voices {
		marker := " "
		if v == tts.DefaultVoice {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, v)
	}
	fmt.Println("\nStyle presets:")
	for _, s := range tts.StyleNames() {
		marker := " "
		if s == tts.DefaultStyle {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, s)
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cf := config.Register(fs)
	cfg, log, err := loadConfig(fs, cf, args)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewServer(cfg.Output.BasePath, log.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving library", "addr", server.Addr, "library", cfg.Output.BasePath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cf := config.Register(fs)
	style := fs.String("narrator-style", tts.DefaultStyle, "Narration style preset: "+strings.Join(tts.StyleNames(), ", "))
	settle := fs.Duration("settle", 0, "How long a file must stop changing before conversion starts (default: 2s)")

	cfg, log, err := loadConfig(fs, cf, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("watch expects exactly one inbox directory")
	}
	if !tts.ValidStyle(*style) {
		return fmt.Errorf("unknown style %q (available: %s)", *style, strings.Join(tts.StyleNames(), ", "))
	}

	conv, err := newConverter(cfg, log, false)
	if err != nil {
		return err
	}

	w, err := watcher.New(log.Logger, watcher.Options{SettleDelay: *settle})
	if err != nil {
		return err
	}
	if err := w.Watch(fs.Arg(0)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go w.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil

		case err := <-w.Errors():
			log.Error("watch error", "error", err)

		case ev := <-w.Events():
			if ev.Type == watcher.EventRemoved {
				continue
			}
			log.Info("converting book from inbox", "path", ev.Path)
			result, err := conv.Convert(ctx, converter.Options{
				EPUBPath:      ev.Path,
				OutputBase:    cfg.Output.BasePath,
				Voice:         cfg.TTS.Voice,
				LanguageCode:  cfg.TTS.LanguageCode,
				Style:         *style,
				SkipExisting:  true,
				MaxChunkChars: cfg.TTS.MaxChunkChars,
				MaxConcurrent: cfg.TTS.MaxConcurrent,
			})
			if err != nil {
				log.Error("inbox conversion failed", "path", ev.Path, "error", err)
				continue
			}
			log.Info("inbox conversion finished",
				"path", ev.Path,
				"generated", result.Generated,
				"skipped", result.Skipped,
				"failed", result.Failed,
				"output", result.OutputDir)
		}
	}
}
