// Command chartctl drives the chart coding API from the terminal: segment a
// raw chart dump locally or through the API, upload the notes, and request
// coding for a chart.
//
// Usage:
//
//	chartctl segment <file>        parse a chart dump and print the notes
//	chartctl upload <file>         segment a dump and store its notes
//	chartctl code <chart_id>       assign codes to a stored chart
//	chartctl notes                 dump all stored notes
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ChartlyAI/chartly-mvp/engine/domain"
	"github.com/ChartlyAI/chartly-mvp/engine/segment"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("CHARTLY_API", "http://localhost:8080"), "API base URL")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}

	c := &client{base: *apiURL, http: &http.Client{Timeout: 2 * time.Minute}}

	var err error
	switch cmd := args[0]; cmd {
	case "segment":
		err = runSegment(args[1:])
	case "upload":
		err = runUpload(c, args[1:])
	case "code":
		err = runCode(c, args[1:])
	case "notes":
		err = c.get("/api/notes")
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "chartctl:", err)
		os.Exit(1)
	}
}

func runSegment(args []string) error {
	chart, err := segmentFile(args)
	if err != nil {
		return err
	}
	return printJSON(chart)
}

func runUpload(c *client, args []string) error {
	chart, err := segmentFile(args)
	if err != nil {
		return err
	}

	inputs := make([]domain.NoteInput, len(chart.Notes))
	for i := range chart.Notes {
		n := chart.Notes[i]
		inputs[i] = domain.NoteInput{
			NoteID:   &n.NoteID,
			ChartID:  &n.ChartID,
			NoteType: &n.NoteType,
			Content:  &n.Content,
		}
	}
	return c.post("/api/charts", map[string]any{
		"chart_id": chart.ChartID,
		"notes":    inputs,
	})
}

func runCode(c *client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: chartctl code <chart_id>")
	}
	return c.post("/api/code", map[string]string{"chart_id": args[0]})
}

func segmentFile(args []string) (segment.Chart, error) {
	if len(args) != 1 {
		return segment.Chart{}, fmt.Errorf("usage: chartctl segment|upload <file>")
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return segment.Chart{}, err
	}
	return segment.Parse(string(raw)), nil
}

// client is a thin JSON client for the API.
type client struct {
	base string
	http *http.Client
}

func (c *client) post(path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func (c *client) get(path string) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		fmt.Println(string(data))
	} else {
		printJSON(v)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %s", resp.Status)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
