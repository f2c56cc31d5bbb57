package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/erp/receipt/internal/domain/receipt"
)

// receiptFlags are the sale input and the print configuration overrides
type receiptFlags struct {
	input      string
	company    string
	mode       string
	paper      string
	copies     int
	clientCopy bool
	footer     string
}

func (f *receiptFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "Sale document (.yaml, .yml or .json; - for stdin)")
	flags.StringVar(&f.company, "company", "", "Company document replacing the sale's empresa")
	flags.StringVar(&f.mode, "mode", "", "Print mode: dialogo, automatico, fiscal or visualizar")
	flags.StringVar(&f.paper, "paper", "", "Paper size: 58mm, 80mm or a4")
	flags.IntVar(&f.copies, "copies", 0, "Number of vias")
	flags.BoolVar(&f.clientCopy, "client-copy", false, "Append the client copy")
	flags.StringVar(&f.footer, "footer", "", "Footer message")
	_ = cmd.MarkFlagRequired("input")
}

// load reads the sale and applies the flags the caller set explicitly
func (f *receiptFlags) load(cmd *cobra.Command) (receipt.PrintRequest, error) {
	var req receipt.PrintRequest
	if err := decodeFile(cmd.InOrStdin(), f.input, &req); err != nil {
		return req, fmt.Errorf("failed to read sale: %w", err)
	}

	if f.company != "" {
		var company receipt.Company
		if err := decodeFile(cmd.InOrStdin(), f.company, &company); err != nil {
			return req, fmt.Errorf("failed to read company: %w", err)
		}
		req.Company = &company
	}

	flags := cmd.Flags()
	if !flags.Changed("mode") && !flags.Changed("paper") && !flags.Changed("copies") &&
		!flags.Changed("client-copy") && !flags.Changed("footer") {
		return req, nil
	}

	cfg := receipt.DefaultPrintConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	if flags.Changed("mode") {
		cfg.Mode = receipt.PrintMode(f.mode)
	}
	if flags.Changed("paper") {
		cfg.PaperSize = receipt.PaperSize(f.paper)
		if !cfg.PaperSize.IsValid() {
			return req, fmt.Errorf("invalid paper size %q", f.paper)
		}
	}
	if flags.Changed("copies") {
		if f.copies < 1 {
			return req, fmt.Errorf("copies must be at least 1")
		}
		cfg.Copies = f.copies
	}
	if flags.Changed("client-copy") {
		cfg.IncludeClientCopy = f.clientCopy
	}
	if flags.Changed("footer") {
		cfg.FooterMessage = f.footer
	}
	req.Config = &cfg
	return req, nil
}

// decodeFile decodes path into v. YAML documents are converted to JSON first
// so the payload keys and amount parsing match the HTTP API.
func decodeFile(stdin io.Reader, path string, v any) error {
	data, err := readInput(stdin, path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("invalid YAML: %w", err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return fmt.Errorf("unsupported YAML content: %w", err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// openOutput returns stdout for "-" or an empty path
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
