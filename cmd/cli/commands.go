package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/orgball2608/insta-post-analyzer/internal/analysis"
	"github.com/orgball2608/insta-post-analyzer/internal/analyzer"
	"github.com/orgball2608/insta-post-analyzer/internal/analyzer/analyzerimpl"
	"github.com/orgball2608/insta-post-analyzer/internal/domain"
	"github.com/orgball2608/insta-post-analyzer/internal/instagram/graphqlimpl"
	"github.com/orgball2608/insta-post-analyzer/internal/llm"
	"github.com/orgball2608/insta-post-analyzer/pkg/config"
	"github.com/orgball2608/insta-post-analyzer/pkg/logger"
	"github.com/spf13/cobra"
)

const (
	dataFile     = "data.json"
	analysisFile = "analysis.json"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <post_url|shortcode>",
	Short: "Fetch a post and save its normalized metadata",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <post_url|shortcode>",
	Short: "Fetch, score and save a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func runFetch(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(false)
	if err != nil {
		return err
	}

	post, err := p.analyzer.FetchPost(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	path, err := writeJSON(outDir, post.Shortcode, dataFile, post)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
	return nil
}

// runAnalyze fetches once; data.json and the prompt see the same post
func runAnalyze(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(true)
	if err != nil {
		return err
	}

	post, err := p.analyzer.FetchPost(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	path, err := writeJSON(outDir, post.Shortcode, dataFile, post)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)

	ctx, cancel := context.WithTimeout(cmd.Context(), p.cfg.LLM.Timeout)
	defer cancel()

	raw, err := p.model.Complete(ctx, analysis.BuildPrompt(*post))
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	result, err := analysis.Aggregate(raw)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	path, err = writeJSON(outDir, post.Shortcode, analysisFile, result)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n\n", path)
	fmt.Fprintln(cmd.OutOrStdout(), summary(result))
	return nil
}

type pipeline struct {
	cfg      *config.Config
	analyzer analyzer.Client
	model    llm.Client
}

// newPipeline builds the components without fx; the CLI never writes audit rows
func newPipeline(withModel bool) (*pipeline, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Opts{Env: cfg.App.Env, Writer: os.Stderr})

	p := &pipeline{cfg: cfg}
	if withModel {
		if p.model, err = llm.New(llm.Opts{Config: cfg, Logger: log}); err != nil {
			return nil, err
		}
	}

	p.analyzer = analyzerimpl.New(analyzerimpl.Opts{
		Config: cfg,
		Logger: log,
		Instagram: graphqlimpl.New(graphqlimpl.Opts{
			Config: cfg,
			Logger: log,
		}),
		LLM: p.model,
	})
	return p, nil
}

// writeJSON stores v as indented JSON in dir/shortcode/name, keeping non-ASCII text readable
func writeJSON(dir, shortcode, name string, v any) (string, error) {
	target := filepath.Join(dir, shortcode)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}

	path := filepath.Join(target, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func summary(r *domain.Result) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Average score: %d/100\n", r.AverageScore)
	for _, c := range domain.Categories {
		fmt.Fprintf(&buf, "  %-18s %3d\n", c.Title(), r.Category(c).Score)
	}
	return buf.String()
}
