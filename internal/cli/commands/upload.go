package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/capitalhub-dev/capitalhub/internal/cli/client"
)

// NewUploadCmd creates the upload command
func NewUploadCmd(a *App) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file (avatar, intro video, call recording)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Init(); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			resp, err := a.api.Upload(cmd.Context(), client.UploadRequest{
				Filename: filepath.Base(args[0]),
				Content:  f,
				Folder:   folder,
			})
			if err != nil {
				return err
			}

			return a.render(resp, func(w io.Writer) {
				fmt.Fprintf(w, "Uploaded:\t%s\n", resp.URL)
			})
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Destination folder (default \"general\")")

	return cmd
}
