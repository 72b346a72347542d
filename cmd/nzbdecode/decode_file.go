package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/usenetkit/nzbdecode/internal/article"
)

var (
	decodeFileIn  string
	decodeFileOut string
)

var decodeFileCmd = &cobra.Command{
	Use:   "decode-file",
	Short: "Decode a locally captured NNTP response, for offline debugging",
	RunE:  runDecodeFile,
}

func init() {
	decodeFileCmd.Flags().StringVarP(&decodeFileIn, "in", "i", "", "path to a captured raw NNTP response (required)")
	decodeFileCmd.Flags().StringVarP(&decodeFileOut, "out", "o", "", "write the first decoded payload here instead of stdout summary only")
	decodeFileCmd.MarkFlagRequired("in")
}

func runDecodeFile(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(decodeFileIn)
	if err != nil {
		return fmt.Errorf("read %s: %w", decodeFileIn, err)
	}

	dec := article.NewDecoder(len(raw))
	buf := dec.WritableTail(len(raw))
	copy(buf, raw)
	responses, err := dec.Process(len(raw))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if len(responses) == 0 {
		if pending := dec.IntoPending(); len(pending) > 0 {
			return fmt.Errorf("input ended mid-response (%s still buffered, no terminator seen)", humanize.Bytes(uint64(len(pending))))
		}
		return fmt.Errorf("no complete NNTP response found in %s", decodeFileIn)
	}

	for i, resp := range responses {
		fmt.Printf("response %d: status=%d format=%s", i, resp.StatusCode, resp.Format)
		if resp.HasFileName {
			fmt.Printf(" name=%q", resp.FileName)
		}
		if resp.HasData {
			fmt.Printf(" decoded=%s", humanize.Bytes(resp.BytesDecoded))
		}
		if resp.HasCRCExpected {
			match := resp.CRCComputed == resp.CRCExpected
			fmt.Printf(" crc_expected=%08x crc_computed=%08x match=%v", resp.CRCExpected, resp.CRCComputed, match)
		}
		for _, kind := range resp.Errors {
			fmt.Printf(" error=%s", kind)
		}
		fmt.Println()
	}
	if dec.Truncated() {
		fmt.Printf("warning: stream ended mid-response (error=%s)\n", article.ErrorTruncated)
	}

	if decodeFileOut != "" {
		var data []byte
		for _, resp := range responses {
			if resp.HasData {
				data = resp.Data
				break
			}
		}
		if data == nil {
			return fmt.Errorf("no response in %s carried decoded payload data", decodeFileIn)
		}
		if err := os.WriteFile(decodeFileOut, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", decodeFileOut, err)
		}
	}

	return nil
}
