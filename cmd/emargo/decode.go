package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/pevans/emargo/blob"
	"github.com/pevans/emargo/config"
	"github.com/pevans/emargo/crawler"
	"github.com/pevans/emargo/output"
	"github.com/spf13/cobra"
)

// stdoutPath selects standard output as the destination of decode.
const stdoutPath = "-"

func newDecodeCmd(settings *config.Settings) *cobra.Command {
	var itemType string
	outputPath := settings.Output

	cmd := &cobra.Command{
		Use:   "decode [flags] FILE...",
		Short: "Decode saved item pages without touching the network",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := decodeFiles(cmd, args, itemType)
			if err != nil {
				return err
			}
			if outputPath == stdoutPath {
				return output.Encode(cmd.OutOrStdout(), results)
			}
			return output.WriteFile(outputPath, results)
		},
	}

	cmd.Flags().StringVar(&itemType, "type", "", "Item type label attached to every item")
	cmd.Flags().StringVarP(&outputPath, "output", "o", outputPath, "Output file, - for stdout (EMARGO_OUTPUT)")

	return cmd
}

// decodeFiles runs every saved page through the same processing as a crawl.
func decodeFiles(cmd *cobra.Command, paths []string, itemType string) ([]*blob.Container, error) {
	logger := log.FromContext(cmd.Context()).WithPrefix("decode")

	results := make([]*blob.Container, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		c, err := decodePage(bytes.NewReader(data), itemType, logger.With("file", path))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, c)
	}

	return results, nil
}

func decodePage(r io.Reader, itemType string, logger *log.Logger) (*blob.Container, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	c, report, err := crawler.ProcessPage(doc, itemType)
	if err != nil {
		return nil, err
	}
	if len(report.Dropped) > 0 {
		logger.Debug("dropped stats tokens", "tokens", report.Dropped)
	}

	return c, nil
}
