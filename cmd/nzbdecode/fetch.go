package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/usenetkit/nzbdecode/internal/config"
	"github.com/usenetkit/nzbdecode/internal/infra/logger"
	"github.com/usenetkit/nzbdecode/internal/jobstore"
	"github.com/usenetkit/nzbdecode/internal/nntpclient"
	"github.com/usenetkit/nzbdecode/internal/nzb"
)

var (
	fetchNZBPath   string
	fetchServerID  string
	fetchOutDirOpt string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and decode every article named by an NZB file",
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchNZBPath, "file", "f", "", "path to the NZB file (required)")
	fetchCmd.Flags().StringVar(&fetchServerID, "server", "", "server ID to fetch from (default: highest-priority configured server)")
	fetchCmd.Flags().StringVarP(&fetchOutDirOpt, "out", "o", "", "output directory (default: decode.out_dir from config)")
	fetchCmd.MarkFlagRequired("file")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}

	server, err := selectServer(cfg, fetchServerID)
	if err != nil {
		return err
	}

	outDir := fetchOutDirOpt
	if outDir == "" {
		outDir = cfg.Decode.OutDir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	store, err := jobstore.Open(cfg.JobStore.Path)
	if err != nil {
		return fmt.Errorf("job store error: %w", err)
	}
	defer store.Close()

	doc, err := nzb.NewParser().ParseFile(fetchNZBPath)
	if err != nil {
		return fmt.Errorf("parse NZB: %w", err)
	}

	job, err := store.CreateJob(context.Background(), fetchNZBPath, outDir)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	store.UpdateJobStatus(context.Background(), job.ID, jobstore.JobRunning, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Warn("interrupt received, cancelling fetch")
			cancel()
		case <-ctx.Done():
		}
	}()

	var failures int
	for _, f := range doc.Files {
		n, err := fetchFile(ctx, store, job.ID, server, cfg, log, outDir, &f)
		if err != nil {
			log.Error("fetch file %q: %v", f.Subject, err)
			failures++
		}
		fmt.Printf("%s: decoded %s across %d segments\n", f.Subject, humanize.Bytes(uint64(n)), len(f.Segments))
	}

	if failures > 0 {
		store.UpdateJobStatus(context.Background(), job.ID, jobstore.JobFailed, fmt.Sprintf("%d file(s) failed", failures))
		return fmt.Errorf("%d file(s) failed to fetch cleanly", failures)
	}
	store.UpdateJobStatus(context.Background(), job.ID, jobstore.JobCompleted, "")
	return nil
}

// fetchFile dials up to server.MaxConnection connections and fetches
// every segment of f concurrently, bounded by golang.org/x/sync/errgroup
// in place of the teacher's hand-rolled sync.WaitGroup + channel pool.
func fetchFile(ctx context.Context, store *jobstore.Store, jobID string, server config.ServerConfig, cfg *config.Config, log *logger.Logger, outDir string, f *nzb.File) (int64, error) {
	parts := make([][]byte, len(f.Segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(server.MaxConnection)

	for i, seg := range f.Segments {
		i, seg := i, seg
		g.Go(func() error {
			client, err := nntpclient.Dial(gctx, server, cfg.Decode.BufferCapHint, log)
			if err != nil {
				store.RecordArticle(context.Background(), jobID, seg.MessageID, nil, err)
				return nil
			}
			defer client.Close()

			resp, fetchErr := client.Fetch(gctx, seg.MessageID)
			if fetchErr != nil {
				store.RecordArticle(context.Background(), jobID, seg.MessageID, nil, fetchErr)
				return nil
			}
			store.RecordArticle(context.Background(), jobID, seg.MessageID, resp, nil)
			if resp.StatusCode == 222 {
				parts[i] = resp.Data
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	outPath := filepath.Join(outDir, sanitizeFileName(f.Subject))
	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", outPath, err)
	}
	defer out.Close()

	var total int64
	for _, p := range parts {
		n, err := out.Write(p)
		if err != nil {
			return total, fmt.Errorf("write %s: %w", outPath, err)
		}
		total += int64(n)
	}
	return total, nil
}

func selectServer(cfg *config.Config, id string) (config.ServerConfig, error) {
	if id == "" {
		best := cfg.Servers[0]
		for _, s := range cfg.Servers[1:] {
			if s.Priority < best.Priority {
				best = s
			}
		}
		return best, nil
	}
	for _, s := range cfg.Servers {
		if s.ID == id {
			return s, nil
		}
	}
	return config.ServerConfig{}, fmt.Errorf("no configured server with ID %q", id)
}

var nonFileNameChars = regexp.MustCompile(`[/\\:*?"<>|]+`)

// sanitizeFileName derives a filesystem-safe output name from an NZB
// subject line such as `[1/2] "example.rar" yEnc (1/120)`.
func sanitizeFileName(subject string) string {
	quoted := regexp.MustCompile(`"([^"]+)"`).FindStringSubmatch(subject)
	name := subject
	if len(quoted) == 2 {
		name = quoted[1]
	}
	name = nonFileNameChars.ReplaceAllString(name, "_")
	if name == "" {
		name = "decoded.bin"
	}
	return name
}
