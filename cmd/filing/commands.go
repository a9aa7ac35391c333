package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"filing_insight/pkg/core/ingest"
	"filing_insight/pkg/core/qa"

	"github.com/spf13/cobra"
)

// --- CIK Command ---

var cikCmd = &cobra.Command{
	Use:   "cik [ticker|name]",
	Short: "Print a company's zero-padded CIK",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		company, err := a.Directory.Lookup(strings.Join(args, " "))
		if err != nil {
			return err
		}
		padded, err := company.PaddedCIK()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", padded, company.Ticker, company.Name)
		return nil
	},
}

// --- Filing Command ---

var filingCmd = &cobra.Command{
	Use:   "filing [ticker]",
	Short: "Print the text of a 10-K or 10-Q",
	Long: `Print the text of a company's annual report (--annual --year Y) or one of
its first three quarterly reports (--quarter N --year Y). With no year the
most recent filing is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := filingRequestFromFlags(cmd, args[0])
		if err != nil {
			return err
		}

		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		var doc *ingest.Document
		if req == nil {
			doc, err = a.Filings.Latest(cmd.Context(), args[0])
		} else {
			doc, err = a.Filings.Get(cmd.Context(), *req)
		}
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}
		fmt.Fprintf(os.Stderr, "%s %s %s\n%s\n\n", doc.Company.Ticker, doc.Form, doc.Period, doc.URL)
		fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{filingCmd, askCmd} {
		c.Flags().Bool("annual", false, "use the 10-K for --year")
		c.Flags().Int("quarter", 0, "use the 10-Q for quarter 1, 2 or 3 of --year")
		c.Flags().Int("year", 0, "fiscal year")
		c.Flags().String("section", "", "restrict to one item, e.g. 7 or 1A (needs --year)")
		c.MarkFlagsMutuallyExclusive("annual", "quarter")
	}
	filingCmd.Flags().Bool("json", false, "print the document as JSON")
	askCmd.Flags().Bool("structured", false, "ask for a JSON answer with citations")
}

// filingRequestFromFlags returns nil when no year was given, meaning the
// latest filing.
func filingRequestFromFlags(cmd *cobra.Command, ticker string) (*ingest.FilingRequest, error) {
	annual, _ := cmd.Flags().GetBool("annual")
	quarter, _ := cmd.Flags().GetInt("quarter")
	year, _ := cmd.Flags().GetInt("year")
	section, _ := cmd.Flags().GetString("section")

	if year == 0 {
		if annual || cmd.Flags().Changed("quarter") || section != "" {
			return nil, errors.New("--year is required with --annual, --quarter or --section")
		}
		return nil, nil
	}

	req := &ingest.FilingRequest{Kind: ingest.KindAnnual, Ticker: ticker, Year: year, Section: section}
	if cmd.Flags().Changed("quarter") {
		req.Kind = ingest.KindQuarter
		req.Quarter = quarter
	} else if !annual {
		return nil, errors.New("pass --annual or --quarter N with --year")
	}
	return req, req.Validate()
}

// --- Ask Command ---

var askCmd = &cobra.Command{
	Use:   "ask [ticker] [question...]",
	Short: "Ask a question about a company's filing",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := filingRequestFromFlags(cmd, args[0])
		if err != nil {
			return err
		}
		structured, _ := cmd.Flags().GetBool("structured")

		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ans, err := a.Assistant.Ask(cmd.Context(), qa.AskRequest{
			Ticker:     args[0],
			Question:   strings.Join(args[1:], " "),
			Request:    req,
			Structured: structured,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ans.Answer)
		for _, c := range ans.Citations {
			fmt.Fprintf(out, "  - %s\n", c)
		}
		fmt.Fprintf(out, "\nSource: %s (%s)\n", ans.URL, ans.Period)
		return nil
	},
}

// --- Sync Registry Command ---

var syncRegistryCmd = &cobra.Command{
	Use:   "sync-registry",
	Short: "Download SEC's ticker registry into the snapshot store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(cmd)
		defer a.Close()

		res, err := a.SyncRegistry(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d companies (%d bytes) stored in %s\n",
			res.RunID, res.Entries, res.Bytes, res.StoredAs)
		return nil
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}
