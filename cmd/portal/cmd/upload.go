package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"passport-portal/internal/core/domain"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <renewal-id> <document-type> <file>",
	Short: "Upload a document for a renewal request",
	Long: `Upload a JPEG, PNG or PDF document for a renewal request.

Document types: ` + documentTypeList(),
	Args: cobra.ExactArgs(3),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 1 {
			return strings.Split(documentTypeList(), ", "), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveDefault
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		docType, err := domain.ParseDocumentType(args[1])
		if err != nil {
			return fmt.Errorf("unknown document type %q, expected one of: %s", args[1], documentTypeList())
		}

		f, err := os.Open(args[2])
		if err != nil {
			return err
		}
		defer f.Close()

		url, err := app.Uploads.Upload(cmd.Context(), args[0], docType, filepath.Base(args[2]), f)
		if err != nil {
			return err
		}

		out := map[string]string{"document_type": string(docType), "url": url}
		if done, err := formatOutput(cmd.OutOrStdout(), out); done {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s uploaded: %s\n", okFmt("✓"), docType, url)
		return nil
	},
}

func documentTypeList() string {
	types := domain.DocumentTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
