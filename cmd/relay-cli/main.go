package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vrsandeep/jobrelay/internal/client"
	"github.com/vrsandeep/jobrelay/internal/models"
)

const usage = `Usage: relay-cli [-addr URL] <command> [flags]

Commands:
  status    -job ID -status STATUS -title TITLE [-subtitle TEXT]
  complete  -job ID [-title TITLE] [-subtitle TEXT] [-files URL] [-details JSON]
  jobs      list subscribed job IDs
  health    show relay health
`

func main() {
	log.SetFlags(0)

	addr := flag.String("addr", envOr("RELAY_URL", "http://localhost:3005"), "Base URL of the relay")
	timeout := flag.Duration("timeout", 10*time.Second, "Request timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(*addr, nil)
	var (
		out any
		err error
	)
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "status":
		out, err = runStatus(ctx, c, args)
	case "complete":
		out, err = runComplete(ctx, c, args)
	case "jobs":
		out, err = c.ListJobs(ctx)
	case "health":
		out, err = c.Health(ctx)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runStatus(ctx context.Context, c *client.Client, args []string) (*models.DeliveryResult, error) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	var u models.StatusUpdate
	fs.StringVar(&u.JobID, "job", "", "Job ID")
	fs.StringVar(&u.Status, "status", "processing", "Status: processing, complete or error")
	fs.StringVar(&u.Title, "title", "", "Step title")
	fs.StringVar(&u.Subtitle, "subtitle", "", "Step description")
	fs.Parse(args)
	return c.PublishStatus(ctx, u)
}

func runComplete(ctx context.Context, c *client.Client, args []string) (*models.DeliveryResult, error) {
	fs := flag.NewFlagSet("complete", flag.ExitOnError)
	var u models.CompletionUpdate
	var details string
	fs.StringVar(&u.JobID, "job", "", "Job ID")
	fs.StringVar(&u.Title, "title", "", "Completion title")
	fs.StringVar(&u.Subtitle, "subtitle", "", "Completion description")
	fs.StringVar(&u.FilesURL, "files", "", "Link to the job's output files")
	fs.StringVar(&details, "details", "", "Free-form JSON details")
	fs.Parse(args)

	if details != "" {
		if !json.Valid([]byte(details)) {
			return nil, fmt.Errorf("-details is not valid JSON")
		}
		u.Details = json.RawMessage(details)
	}
	return c.PublishCompletion(ctx, u)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
