package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/repofeed/internal/config"
	"github.com/ericfisherdev/repofeed/internal/domain/model"
)

func newResolveCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Run one resolver cycle and print the projects it produced",
		Long: `Run one resolver cycle against the configured backend, falling back to the
public GitHub API, and print the resulting projects with their provenance.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			resolver, err := newResolver(cfg, nil)
			if err != nil {
				return err
			}

			feed, err := resolver.Resolve(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return writeFeedJSON(cmd.OutOrStdout(), feed)
			}
			return writeFeedTable(cmd.OutOrStdout(), feed)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the feed as JSON")
	return cmd
}

type feedOutput struct {
	Provenance model.Provenance `json:"provenance"`
	Projects   []projectOutput  `json:"projects"`
}

type projectOutput struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Year        string   `json:"year"`
	URL         string   `json:"url"`
	Status      string   `json:"status"`
	Topics      []string `json:"topics"`
}

func writeFeedJSON(w io.Writer, feed model.Feed) error {
	out := feedOutput{
		Provenance: feed.Provenance,
		Projects:   make([]projectOutput, 0, len(feed.Projects)),
	}
	for _, p := range feed.Projects {
		out.Projects = append(out.Projects, projectOutput{
			ID:          p.ID,
			Title:       p.Title,
			Category:    p.Category,
			Description: p.Description,
			Year:        p.Year,
			URL:         p.URL,
			Status:      string(p.Status),
			Topics:      p.Topics,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	return nil
}

func writeFeedTable(w io.Writer, feed model.Feed) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Title", "Category", "Year", "Status", "Topics")

	for _, p := range feed.Projects {
		if err := table.Append([]string{
			strconv.FormatInt(p.ID, 10),
			p.Title,
			p.Category,
			p.Year,
			string(p.Status),
			strings.Join(p.Topics, ", "),
		}); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	_, err := fmt.Fprintf(w, "%d projects from %s\n", len(feed.Projects), provenanceLabel(feed.Provenance))
	return err
}

func provenanceLabel(p model.Provenance) string {
	switch p {
	case model.ProvenanceCache:
		return "backend cache"
	case model.ProvenanceAPI:
		return "backend live fetch"
	case model.ProvenanceFallback:
		return "public GitHub API"
	default:
		return "unknown source"
	}
}
