// fetch-corpus downloads a web page, extracts its visible text, and appends
// it as a row to a texts CSV ready for annotation.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html"
)

func main() {
	var (
		url     = flag.String("url", "", "Page URL to fetch (required)")
		out     = flag.String("out", "texts.csv", "Texts CSV to append to")
		timeout = flag.Duration("timeout", 30*time.Second, "HTTP timeout")
	)
	flag.Parse()

	if *url == "" {
		log.Fatal("--url required")
	}

	client := &http.Client{Timeout: *timeout}
	resp, err := client.Get(*url)
	if err != nil {
		log.Fatal("Failed to fetch page:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Unexpected status %s for %s", resp.Status, *url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal("Failed to read response:", err)
	}

	text := visibleText(string(body))
	if text == "" {
		log.Fatal("No visible text extracted")
	}

	if err := appendText(*out, text); err != nil {
		log.Fatal("Failed to write CSV:", err)
	}
	fmt.Printf("Appended %d characters from %s to %s\n", len(text), *url, *out)
}

// visibleText extracts the text content of a page, skipping script and
// style subtrees, and collapses whitespace.
func visibleText(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return strings.Join(strings.Fields(page), " ")
	}

	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)

	return strings.Join(strings.Fields(buf.String()), " ")
}

// appendText appends one row to the texts CSV, writing the header first
// when the file is new.
func appendText(path, text string) error {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write([]string{"text"}); err != nil {
			return err
		}
	}
	if err := w.Write([]string{text}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
