package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lixenwraith/starfield/verify"
)

func main() {
	backend := flag.String("backend", "http://localhost:8000", "verification backend base URL")
	claim := flag.String("claim", "", "claim text to check")
	link := flag.String("url", "", "URL to check")
	file := flag.String("file", "", "image or video file for media analysis")
	deep := flag.Bool("deep", false, "request the deeper analysis pass")
	timeout := flag.Duration("timeout", 90*time.Second, "request timeout")
	flag.Parse()

	if *claim == "" && *link == "" && *file == "" {
		fmt.Fprintln(os.Stderr, "verify: provide -claim, -url, or -file")
		flag.Usage()
		os.Exit(2)
	}

	client := verify.NewClient(*backend, &http.Client{Timeout: *timeout})
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, client, *claim, *link, *file, *deep); err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *verify.Client, claim, link, file string, deep bool) error {
	// Quick check unless a file or the deep flag forces the universal path
	if file == "" && !deep {
		resp, err := client.Verify(ctx, verify.VerifyRequest{Claim: claim, URL: link})
		if err != nil {
			return err
		}
		printVerdict(resp.Result.Verdict, resp.Result.Confidence)
		for _, line := range resp.Result.Reasoning {
			fmt.Printf("  - %s\n", line)
		}
		printSources("supporting", resp.Result.SupportingSources)
		printSources("contradicting", resp.Result.ContradictingSources)
		return nil
	}

	req := verify.UniversalCheckRequest{Claim: claim, URL: link, Deep: deep}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read media: %w", err)
		}
		ct := mime.TypeByExtension(filepath.Ext(file))
		req.File = verify.FileUpload{
			Name:        filepath.Base(file),
			ContentType: ct,
			Data:        data,
		}
	}

	report, err := client.UniversalCheck(ctx, req)
	if err != nil {
		return err
	}

	printVerdict(report.Verdict, report.Confidence)
	if report.Summary != "" {
		fmt.Println(report.Summary)
	}
	for _, line := range report.KeyPoints {
		fmt.Printf("  - %s\n", line)
	}
	for _, line := range report.KeySignals {
		fmt.Printf("  signal: %s\n", line)
	}
	for _, line := range report.Cautions {
		fmt.Printf("  caution: %s\n", line)
	}
	printSources("suggested", report.SuggestedSources)
	return nil
}

func printVerdict(verdict string, confidence float64) {
	fmt.Printf("%s (confidence %.0f%%)\n", strings.ToUpper(verdict), confidence*100)
}

func printSources(label string, urls []string) {
	if len(urls) == 0 {
		return
	}
	fmt.Printf("%s sources:\n", label)
	for _, u := range urls {
		fmt.Printf("  %s\n", u)
	}
}
