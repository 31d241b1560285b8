package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shubh-37/ideaflow/config"
	"github.com/shubh-37/ideaflow/internal/agents"
	"github.com/shubh-37/ideaflow/internal/models"
)

var generateCount int

var generateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate ideas for a topic and print them",
	Example: `  ideaflow generate "Sustainable Coffee" --count 6`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List the trending topics offered on the landing view",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, topic := range models.TrendingTopics {
			fmt.Fprintln(cmd.OutOrStdout(), topic)
		}
	},
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if !models.ValidIdeaCount(generateCount) {
		return fmt.Errorf("count must be one of %v", models.IdeaCounts)
	}

	cfg := config.LoadConfig(logger)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	agent, err := agents.NewIdeaAgent(ctx, cfg, logger)
	if err != nil {
		return err
	}

	topic := strings.Join(args, " ")
	ideas := agent.GenerateIdeas(ctx, topic, generateCount)
	if len(ideas) == 0 {
		return fmt.Errorf("no ideas generated for %q", topic)
	}

	out := cmd.OutOrStdout()
	for i, idea := range ideas {
		fmt.Fprintf(out, "%d. %s %s\n", i+1, idea.Emoji, idea.Title)
		fmt.Fprintf(out, "   %s\n", idea.ShortDescription)
		fmt.Fprintf(out, "   impact %g/10, feasibility %g/10", idea.ImpactScore, idea.FeasibilityScore)
		if tags := idea.CardTags(); len(tags) > 0 {
			fmt.Fprintf(out, "  [%s]", strings.Join(tags, ", "))
		}
		fmt.Fprintln(out)
	}
	return nil
}
