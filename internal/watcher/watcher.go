// Package watcher turns an inbox directory into a work queue: every .url
// file dropped there lists episode URLs to digest.
package watcher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
	"podcast-digest-go/internal/aggregator"
	"podcast-digest-go/internal/logger"
	"podcast-digest-go/internal/processor"
	"podcast-digest-go/internal/render"
)

const (
	inboxExt = ".url"
	doneExt  = ".done"
)

type Processor interface {
	Process(ctx context.Context, url string) (processor.Result, error)
}

type Options struct {
	Inbox  string
	Output string
	// Settle is how long to wait after a create event before reading the
	// file, so writers can finish.
	Settle time.Duration
}

type Watcher struct {
	proc    Processor
	opts    Options
	log     *logger.Logger
	watcher *fsnotify.Watcher
	now     func() time.Time
}

// New creates the inbox and output directories and starts watching the
// inbox.
func New(proc Processor, opts Options, log *logger.Logger) (*Watcher, error) {
	for _, dir := range []string{opts.Inbox, opts.Output} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(opts.Inbox); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", opts.Inbox, err)
	}
	if opts.Settle <= 0 {
		opts.Settle = 500 * time.Millisecond
	}
	return &Watcher{
		proc:    proc,
		opts:    opts,
		log:     log.Component("watcher").With("inbox", opts.Inbox),
		watcher: fw,
		now:     time.Now,
	}, nil
}

// Run handles files already in the inbox, then new ones as they arrive,
// one at a time, until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("watching inbox")

	existing, err := filepath.Glob(filepath.Join(w.opts.Inbox, "*"+inboxExt))
	if err != nil {
		return err
	}
	for _, path := range existing {
		w.handle(ctx, path)
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) || !strings.EqualFold(filepath.Ext(event.Name), inboxExt) {
				continue
			}
			select {
			case <-time.After(w.opts.Settle):
			case <-ctx.Done():
				return ctx.Err()
			}
			w.handle(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.WithError(err).Error("watcher error")
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handle(ctx context.Context, path string) {
	if err := w.HandleFile(ctx, path); err != nil {
		w.log.WithError(err).WithField("file", path).Error("failed to handle inbox file")
	}
}

// HandleFile digests every URL in path, writes the summaries to the output
// directory and renames path to <path>.done. A failed URL is logged and
// skipped. When at least one episode succeeds, a <name>.digest.yaml with
// the batch's news roll-up is written next to the summaries.
func (w *Watcher) HandleFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	urls := ReadURLs(f)
	f.Close()

	log := w.log.WithField("file", filepath.Base(path))
	log.WithField("urls", len(urls)).Info("processing inbox file")

	var summaries []string
	for _, url := range urls {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err := w.proc.Process(ctx, url)
		if err != nil {
			log.WithError(err).WithField("url", url).Warn("episode failed")
			continue
		}
		md, err := w.write(res)
		if err != nil {
			log.WithError(err).WithField("url", url).Error("write summary failed")
			continue
		}
		summaries = append(summaries, res.Summary)
		log.WithField("url", url).WithField("output", md).Info("summary written")
	}

	if len(summaries) > 0 {
		if err := w.writeDigest(path, summaries); err != nil {
			log.WithError(err).Error("write batch digest failed")
		}
	}
	return os.Rename(path, path+doneExt)
}

func (w *Watcher) writeDigest(inboxFile string, summaries []string) error {
	data, err := yaml.Marshal(aggregator.Aggregate(summaries))
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(inboxFile), filepath.Ext(inboxFile)) + ".digest.yaml"
	return os.WriteFile(filepath.Join(w.opts.Output, name), data, 0o644)
}

// write stores res as <slug>.md and <slug>.docx and returns the .md path.
func (w *Watcher) write(res processor.Result) (string, error) {
	stem := render.Slug(res.Title)
	if _, err := os.Stat(filepath.Join(w.opts.Output, stem+".md")); err == nil && res.RunID != "" {
		stem += "-" + res.RunID[:min(8, len(res.RunID))]
	}

	names := make([]string, len(res.Mentioned))
	for i, p := range res.Mentioned {
		names[i] = p.DisplayName()
	}
	md, err := render.Markdown(render.Doc{
		Title:       res.Title,
		Date:        res.Date,
		Source:      res.SourceURL,
		RunID:       res.RunID,
		Players:     names,
		GeneratedAt: w.now().UTC(),
		Summary:     res.Summary,
	})
	if err != nil {
		return "", err
	}

	mdPath := filepath.Join(w.opts.Output, stem+".md")
	if err := os.WriteFile(mdPath, md, 0o644); err != nil {
		return "", err
	}
	if err := render.WriteDocx(filepath.Join(w.opts.Output, stem+".docx"), res.Title, res.Summary); err != nil {
		return "", fmt.Errorf("write docx: %w", err)
	}
	return mdPath, nil
}

// ReadURLs returns the non-blank lines of r that are not # comments.
func ReadURLs(r io.Reader) []string {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}
