package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ziee-ai/ziee-go/internal/api"
	"github.com/ziee-ai/ziee-go/internal/docinspect"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Upload, list and fetch stored files",
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload <path>...",
	Short: "Upload files to the server",
	Long: `Upload one or more files. Each file goes up in its own request so a
failure never voids the batch; uploads run concurrently up to
--concurrency. With --text, PDFs are replaced by their extracted text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFilesUpload,
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List files attached to a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("project")
		if raw == "" {
			return fmt.Errorf("--project is required")
		}
		projectID, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid project id: %w", err)
		}
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		list, err := client.ListProjectFiles(cmd.Context(), projectID, page, limit)
		if err != nil {
			return err
		}
		if len(list.Files) == 0 {
			fmt.Println("No files found.")
			return nil
		}
		for _, f := range list.Files {
			fmt.Printf("%s  %8s  %s\n", colorize(colorCyan, shortID(f.ID.String())), formatSize(f.FileSize), f.Filename)
		}
		return nil
	},
}

var filesDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid file id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		meta, err := client.GetFile(cmd.Context(), id)
		if err != nil {
			return err
		}
		data, _, err := client.DownloadFile(cmd.Context(), id)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			out = meta.Filename
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		printSuccess("Wrote %s (%s)", out, formatSize(int64(len(data))))
		return nil
	},
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid file id: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		if err := client.DeleteFile(cmd.Context(), id); err != nil {
			return err
		}
		printSuccess("Deleted file %s", id)
		return nil
	},
}

func runFilesUpload(cmd *cobra.Command, args []string) error {
	opts := uploadOptions{paths: args}
	opts.extractText, _ = cmd.Flags().GetBool("text")
	opts.concurrency, _ = cmd.Flags().GetInt("concurrency")

	if raw, _ := cmd.Flags().GetString("project"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid project id: %w", err)
		}
		opts.projectID = &id
	}

	// Inspect before anything is sent so a bad path or unreadable document
	// fails the whole batch up front.
	for _, path := range args {
		info, err := docinspect.Inspect(path)
		if err != nil {
			return fmt.Errorf("inspecting %s: %w", path, err)
		}
		if info.PageCount > 0 {
			printStatus(info.Name, "%s, %d pages, %s", info.MIME, info.PageCount, formatSize(info.Size))
		} else {
			printStatus(info.Name, "%s, %s", info.MIME, formatSize(info.Size))
		}
	}

	progress := newProgressPrinter(os.Stderr)
	opts.progress = progress.update

	client, err := newAPIClient()
	if err != nil {
		return err
	}
	files, err := uploadPaths(cmd.Context(), client, opts)
	if err != nil {
		return err
	}
	for _, f := range files {
		printSuccess("Uploaded %s (%s)", f.Filename, f.ID)
	}
	return nil
}

type uploadOptions struct {
	paths       []string
	projectID   *uuid.UUID
	extractText bool
	concurrency int
	progress    func(api.FileProgress)
}

// uploadPaths uploads each path in its own request, at most
// opts.concurrency at a time. Results keep the order of opts.paths.
func uploadPaths(ctx context.Context, client *api.Client, opts uploadOptions) ([]api.File, error) {
	if opts.concurrency <= 0 {
		opts.concurrency = 3
	}

	results := make([]api.File, len(opts.paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)

	for i, path := range opts.paths {
		g.Go(func() error {
			uf, cleanup, err := openUpload(path, opts.extractText)
			if err != nil {
				return err
			}
			defer cleanup()

			cb := api.UploadCallbacks{OnProgress: opts.progress}
			var uploaded *api.UploadedFile
			if opts.projectID != nil {
				uploaded, err = client.UploadProjectFile(ctx, *opts.projectID, []api.UploadFile{uf}, cb)
			} else {
				uploaded, err = client.UploadFiles(ctx, []api.UploadFile{uf}, cb)
			}
			if err != nil {
				return fmt.Errorf("uploading %s: %w", path, err)
			}
			results[i] = uploaded.File
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// openUpload prepares one file for upload. With extractText set, PDF
// content is replaced by its extracted text so the server indexes words
// instead of bytes.
func openUpload(path string, extractText bool) (api.UploadFile, func(), error) {
	if extractText && strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := docinspect.PDFText(path)
		if err != nil {
			return api.UploadFile{}, nil, fmt.Errorf("extracting text from %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".txt"
		uf := api.UploadFile{
			ID:     path,
			Name:   name,
			Reader: strings.NewReader(text),
			Size:   int64(len(text)),
		}
		return uf, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return api.UploadFile{}, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return api.UploadFile{}, nil, err
	}
	uf := api.UploadFile{
		ID:     path,
		Name:   filepath.Base(path),
		Reader: f,
		Size:   info.Size(),
	}
	return uf, func() { f.Close() }, nil
}

// progressPrinter renders upload progress. Concurrent uploads interleave
// their callbacks, so output is serialized and line-oriented: one line per
// quarter reached per file, one line on completion.
type progressPrinter struct {
	out io.Writer

	mu   sync.Mutex
	seen map[string]int
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, seen: make(map[string]int)}
}

func (p *progressPrinter) update(fp api.FileProgress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fp.Status == api.UploadCompleted {
		fmt.Fprintf(p.out, "  done  %s\n", fp.Filename)
		return
	}
	step := fp.Percent / 25 * 25
	if step > p.seen[fp.FileID] {
		p.seen[fp.FileID] = step
		fmt.Fprintf(p.out, "  %3d%%  %s\n", step, fp.Filename)
	}
}

func init() {
	filesUploadCmd.Flags().String("project", "", "attach uploads to a project id")
	filesUploadCmd.Flags().Bool("text", false, "upload extracted PDF text instead of the document")
	filesUploadCmd.Flags().Int("concurrency", 3, "maximum parallel uploads")
	filesListCmd.Flags().String("project", "", "project id to list files for")
	filesListCmd.Flags().Int("page", 1, "page to fetch")
	filesListCmd.Flags().Int("limit", 50, "files per page")
	filesDownloadCmd.Flags().String("output", "", "output path (default: original filename)")

	filesCmd.AddCommand(filesUploadCmd)
	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesDownloadCmd)
	filesCmd.AddCommand(filesDeleteCmd)
}
