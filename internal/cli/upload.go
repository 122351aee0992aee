package cli

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/reconcile"
	"github.com/evcraddock/rent-finder/internal/upload"
)

func newUploadCmd() *cobra.Command {
	var listingID string

	cmd := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload a listing image",
		Long: `Upload a JPEG, PNG, WebP or GIF image to the image service and print its
URL. With --listing the URL is also added to that listing's images.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.requireLogin(); err != nil {
					return err
				}
				return runUpload(ctx, cmd, a, args[0], listingID)
			})
		},
	}

	cmd.Flags().StringVar(&listingID, "listing", "", "add the image to this listing")

	return cmd
}

func runUpload(ctx context.Context, cmd *cobra.Command, a *app, path, listingID string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	contentType, err := detectContentType(f)
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	opts := []upload.Option{upload.WithMaxBytes(getUploadMaxBytes())}
	if !isJSON() {
		last := -1
		opts = append(opts, upload.WithProgress(func(p upload.Progress) {
			if pct := p.Percent(); pct/10 != last/10 {
				last = pct
				fmt.Fprintf(errOut, "\ruploading %s: %3d%%", filepath.Base(path), pct)
			}
		}))
	}
	coord := upload.New(a.api, opts...)

	res, err := coord.Upload(ctx, upload.File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Body:        f,
	})
	if !isJSON() {
		fmt.Fprintln(errOut)
	}
	if err != nil {
		return err
	}

	if listingID != "" {
		props := reconcile.NewOwnedProperties(a.deps, a.api)
		defer props.Close()
		if err := props.Load(ctx); err != nil {
			return err
		}
		p, ok := props.Find(listingID)
		if !ok {
			return fmt.Errorf("listing %s not found", listingID)
		}
		p.Images = append(p.Images, res.URL)
		if _, err := props.Update(ctx, p); err != nil {
			return err
		}
	}

	if isJSON() {
		return printJSON(a.out, res)
	}
	fmt.Fprintln(a.out, res.URL)
	return nil
}

// detectContentType uses the extension, falling back to sniffing the first
// bytes. f is rewound afterwards.
func detectContentType(f *os.File) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(f.Name())); ct != "" {
		return ct, nil
	}
	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading image: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}
