package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eringen/newsdesk"
	"github.com/eringen/newsdesk/content"
	"github.com/eringen/newsdesk/events"
)

// seedFile is the YAML layout accepted by `newsdesk seed`.
type seedFile struct {
	Author   string        `yaml:"author"`
	Articles []seedArticle `yaml:"articles"`
}

type seedArticle struct {
	Title    string   `yaml:"title"`
	Excerpt  string   `yaml:"excerpt"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
	Cover    string   `yaml:"cover"`
	Content  string   `yaml:"content"`
	Draft    bool     `yaml:"draft"`
}

func parseSeed(data []byte) (seedFile, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return seedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	if f.Author == "" {
		f.Author = "admin"
	}
	return f, nil
}

// importSeed publishes every article in f and returns how many were stored.
// Articles marked draft are created and then unpublished.
func importSeed(ctx context.Context, pub *content.Publisher, f seedFile) (int, error) {
	n := 0
	for i, sa := range f.Articles {
		a, err := pub.Create(ctx, content.CreateInput{
			Title:         sa.Title,
			Excerpt:       sa.Excerpt,
			ContentHTML:   sa.Content,
			CoverImageURL: sa.Cover,
			Tags:          strings.Join(sa.Tags, ","),
			Category:      sa.Category,
			AuthorID:      f.Author,
		})
		if err != nil {
			return n, fmt.Errorf("article %d (%q): %w", i+1, sa.Title, err)
		}
		if sa.Draft {
			_, err = pub.Update(ctx, a.ID, content.UpdateInput{
				Title:       a.Title,
				Excerpt:     a.Excerpt,
				ContentHTML: a.ContentHTML,
				Tags:        strings.Join(a.Tags, ","),
				Category:    a.Category,
				Published:   content.Some(false),
			})
			if err != nil {
				return n, fmt.Errorf("article %d (%q): unpublish: %w", i+1, sa.Title, err)
			}
		}
		n++
	}
	return n, nil
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Import articles from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f, err := parseSeed(data)
			if err != nil {
				return err
			}

			cfg := newsdesk.ConfigFromEnv()
			ctx := cmd.Context()
			store, err := newsdesk.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			opts := []content.PublisherOption{content.WithLogger(slog.Default())}
			if len(cfg.KafkaBrokers) > 0 {
				n := events.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, slog.Default())
				defer n.Close()
				opts = append(opts, content.WithNotifier(n))
			}

			count, err := importSeed(ctx, content.NewPublisher(store, opts...), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d articles\n", count)
			return nil
		},
	}
}
