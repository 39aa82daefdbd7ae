package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"podcast-digest-go/internal/players"
	"podcast-digest-go/internal/render"
	"podcast-digest-go/internal/server"
	"podcast-digest-go/internal/watcher"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(root)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log, appOptions{endpoint: true, roster: root.roster})
			if err != nil {
				return err
			}
			srv := server.New(server.Deps{Runner: a.pipeline, Processor: a.processor, Players: a.players}, log)
			return srv.ListenAndServe(cmd.Context(), ":"+cfg.Server.Port, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
		},
	}
}

func newTranscribeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <url>",
		Short: "Transcribe one episode and print transcript, date and title as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(root)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log, appOptions{endpoint: true})
			if err != nil {
				return err
			}
			res, err := a.pipeline.Transcribe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"transcript": res.Transcript,
				"date":       res.Date,
				"title":      res.Title,
			})
		},
	}
}

func newSummarizeCmd(root *rootOptions) *cobra.Command {
	var file, date, title string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a transcript read from --file or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(root)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log, appOptions{})
			if err != nil {
				return err
			}

			var transcript []byte
			if file != "" {
				transcript, err = os.ReadFile(file)
			} else {
				transcript, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}

			summary, err := a.pipeline.Summarize(cmd.Context(), string(transcript), date, title)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "transcript file (default stdin)")
	cmd.Flags().StringVar(&date, "date", "", "episode date")
	cmd.Flags().StringVar(&title, "title", "", "episode title")
	return cmd
}

func newRunCmd(root *rootOptions) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "run <url>",
		Short: "Transcribe, summarize and render one episode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(root)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log, appOptions{endpoint: true, roster: root.roster})
			if err != nil {
				return err
			}

			res, err := a.processor.Process(cmd.Context(), args[0])
			if err != nil {
				return err
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
				GeneratedAt: time.Now().UTC(),
				Summary:     res.Summary,
			})
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			stem := filepath.Join(outDir, render.Slug(res.Title))
			if err := os.WriteFile(stem+".md", md, 0o644); err != nil {
				return err
			}
			if err := render.WriteDocx(stem+".docx", res.Title, res.Summary); err != nil {
				return err
			}
			log.WithField("output", stem+".md").WithField("duration_ms", res.DurationMs).Info("episode digested")
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "data/summaries", "output directory")
	return cmd
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Digest every .url file dropped into the inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(root)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log, appOptions{endpoint: true, roster: root.roster})
			if err != nil {
				return err
			}
			w, err := watcher.New(a.processor, watcher.Options{Inbox: cfg.Watch.Inbox, Output: cfg.Watch.Output}, log)
			if err != nil {
				return err
			}
			defer w.Close()

			if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, cmd.Context().Err()) {
				return err
			}
			return nil
		},
	}
}

func newPlayersCmd(root *rootOptions) *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Read player metadata from the database",
	}
	cmd.PersistentFlags().IntVar(&season, "season", 0, "season year (0 for all)")

	list := &cobra.Command{
		Use:   "list",
		Short: "Print players as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := playerSource(root)
			if err != nil {
				return err
			}
			out, err := src.List(cmd.Context(), season)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	export := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write players to a roster workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := playerSource(root)
			if err != nil {
				return err
			}
			out, err := src.List(cmd.Context(), season)
			if err != nil {
				return err
			}
			if err := players.ExportWorkbook(args[0], out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d players to %s\n", len(out), args[0])
			return nil
		},
	}

	cmd.AddCommand(list, export)
	return cmd
}

func playerSource(root *rootOptions) (players.Source, error) {
	cfg, _, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url (DATABASE_URL) is required")
	}
	return players.NewPGRepository(cfg.Database.URL), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
