package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"homie/internal/analysis"
	"homie/internal/demographics"
	"homie/internal/document"
	"homie/internal/extract"
	"homie/internal/logging"
)

func main() {
	// Sub-commands
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	os.Args = os.Args[1:] // Shift args for flag parsing

	switch cmd {
	case "extract":
		extractFile()
	case "mine":
		mineText()
	case "forecast":
		forecastPrice()
	case "parse":
		parseAnalysis()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: tools <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  extract   Extract a property record from a saved listing page")
	fmt.Println("  mine      Mine a demographic profile from free text")
	fmt.Println("  forecast  Print capped price projections")
	fmt.Println("  parse     Turn an analysis reply into a display report")
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(path string) []byte {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	return data
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}

func extractFile() {
	file := flag.String("file", "", "Saved listing HTML (default stdin)")
	pageURL := flag.String("url", "https://www.realestate.com.au/property-", "URL the page was saved from")
	dateOrder := flag.String("dates", "DMY", "Numeric history date order: DMY or MDY")
	verbose := flag.Bool("v", false, "Log which rule resolved each field")
	flag.Parse()

	logger := logging.Nop()
	if *verbose {
		logger = logging.NewDevelopment()
	}

	doc, err := document.Parse(openInput(*file), *pageURL)
	if err != nil {
		log.Fatalf("Failed to parse page: %v", err)
	}

	e := extract.New(logger, extract.WithDateOrder(extract.DateOrder(*dateOrder)))
	rec, err := e.ExtractPropertyDetails(context.Background(), doc)
	if err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}
	rec.Demographics = demographics.NewNormalizer(nil, nil, logger).Normalize(context.Background(), demographics.Input{
		Trusted: &rec.Demographics,
		Text:    rec.Description,
	}).Profile

	printJSON(rec)
}

func openInput(path string) io.Reader {
	if path == "" || path == "-" {
		return os.Stdin
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	return f
}

func mineText() {
	file := flag.String("file", "", "Text to mine (default stdin)")
	flag.Parse()

	text := string(readInput(*file))
	profile, applied := demographics.FillDefaults(demographics.Mine(text), text)

	printJSON(map[string]interface{}{
		"profile":  demographics.Finalize(profile),
		"defaults": applied,
	})
}

func forecastPrice() {
	price := flag.String("price", "", "Listing price, e.g. 850000 or \"$1.2m\"")
	rate := flag.Float64("rate", 0.03, "Expected annual growth as a fraction")
	locale := flag.String("locale", analysis.DefaultLocale, "Currency locale")
	flag.Parse()

	amount := analysis.ParsePrice(*price)
	if amount <= 0 {
		amount = analysis.ParsePrice("$" + *price)
	}
	if amount <= 0 {
		log.Fatalf("Invalid price %q", *price)
	}

	currency := analysis.NewCurrencyFormatter(*locale)
	clamped := analysis.ClampAnnualRate(*rate)
	if clamped != *rate {
		log.Printf("Growth rate %.2f%% clamped to %.2f%%", *rate*100, clamped*100)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Price\t%s\n", currency.Format(amount))
	fmt.Fprintf(w, "Annual growth\t%.2f%%\n", clamped*100)
	for _, p := range currency.Project(amount, clamped) {
		fmt.Fprintf(w, "%d year\t%s\n", p.Years, p.Display)
	}
	w.Flush()
}

func parseAnalysis() {
	file := flag.String("file", "", "Analysis reply, JSON or text (default stdin)")
	price := flag.String("price", "", "Listing price for projections")
	flag.Parse()

	parsed, err := analysis.ParseResponse(string(readInput(*file)))
	if err != nil {
		log.Fatalf("Failed to parse analysis: %v", err)
	}

	report := analysis.NewCurrencyFormatter(analysis.DefaultLocale).BuildReport(analysis.ReportInput{Price: *price}, parsed)
	printJSON(report)
}
