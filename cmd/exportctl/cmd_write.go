package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/vitomein/loadintel/exportbridge/internal/writer"
)

var (
	writeTree   string
	writeName   string
	writeMime   string
	writeSubDir string
)

var writeCmd = &cobra.Command{
	Use:   "write <source-file|->",
	Short: "Write a file into a granted directory",
	Long: `Create a new document in a granted directory tree and copy the
source into it. Use - to read from stdin. The MIME type is detected from
the content when --mime is not given.`,
	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().StringVar(&writeTree, "tree", "", "Granted tree URI (defaults to the storage volume root)")
	writeCmd.Flags().StringVar(&writeName, "name", "", "Display name of the new document (defaults to the source file name)")
	writeCmd.Flags().StringVar(&writeMime, "mime", "", "MIME type of the new document")
	writeCmd.Flags().StringVar(&writeSubDir, "subdir", "", "Subdirectory under the tree root")
	rootCmd.AddCommand(writeCmd)
}

func runWrite(cmd *cobra.Command, args []string) error {
	data, name, err := readSource(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	if writeName != "" {
		name = writeName
	}
	if name == "" {
		return errors.New("--name is required when reading from stdin")
	}

	mimeType := writeMime
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}

	c, err := openComponents(nil)
	if err != nil {
		return err
	}
	defer c.Close()

	tree := writeTree
	if tree == "" {
		tree = c.DefaultTree.String()
	}

	uri, err := c.Writer.WriteFile(cmd.Context(), writer.Request{
		TreeURI:  tree,
		FileName: name,
		MimeType: mimeType,
		Bytes:    data,
		SubDir:   writeSubDir,
	})
	if err != nil {
		return err
	}

	newUI(cmd.ErrOrStderr()).Successf("Wrote %d bytes as %s", len(data), mimeType)
	fmt.Fprintln(cmd.OutOrStdout(), uri)
	return nil
}

func readSource(stdin io.Reader, source string) ([]byte, string, error) {
	if source == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, "", nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", source, err)
	}
	return data, filepath.Base(source), nil
}
