// Command chat is an interactive terminal client for the chat backend. It
// drives the same session controller the web page uses: pick a user and a
// model, send messages, and watch per-turn usage plus the cumulative ledger.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"anychat-backend/internal/config"
	"anychat-backend/internal/llm"
	"anychat-backend/internal/models"
	"anychat-backend/internal/registry"
	"anychat-backend/internal/relay"
	"anychat-backend/internal/session"
	"anychat-backend/internal/usage"
)

const (
	userFlag  = "user"
	modelFlag = "model"
	toolsFlag = "tools"
)

func main() {
	app := &cli.Command{
		Name:  "chat",
		Usage: "Chat with any configured model from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    userFlag,
				Aliases: []string{"u"},
				Usage:   "User id for usage attribution",
			},
			&cli.StringFlag{
				Name:    modelFlag,
				Aliases: []string{"m"},
				Usage:   "Model as provider/model (skips interactive selection)",
			},
			&cli.BoolFlag{
				Name:  toolsFlag,
				Usage: "Enable tool calling from the start",
			},
		},
		Action: runAction,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Load()
	logger := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel)

	reg, err := registry.Open(cfg.ModelsConfigPath, logger)
	if err != nil {
		return fmt.Errorf("failed to open model registry: %w", err)
	}

	var chatRelay relay.Relay
	var fetcher usage.Fetcher
	if cfg.Mode() == config.ModeGateway {
		chatRelay = relay.NewGatewayRelay(cfg.GatewayBaseURL, cfg.GatewayMasterKey, logger)
		fetcher = usage.NewGatewayFetcher(cfg.GatewayBaseURL, cfg.GatewayMasterKey, logger)
	} else {
		chatRelay = relay.NewSDKRelay(&llm.ProviderConfig{
			AnthropicAPIKey: cfg.AnthropicAPIKey,
			GeminiAPIKey:    cfg.GeminiAPIKey,
			OpenAIAPIKey:    cfg.OpenAIAPIKey,
			OpenAIBaseURL:   cfg.OpenAIBaseURL,
			MistralAPIKey:   cfg.MistralAPIKey,
			OllamaHost:      cfg.OllamaHost,
		}, cfg.MaxToolRounds, logger)
	}

	ctrl := session.New(chatRelay, fetcher, logger)
	ctrl.SetToolsEnabled(cmd.Bool(toolsFlag))

	userID := cmd.String(userFlag)
	if userID == "" {
		userID = cfg.DefaultUserID
	}
	ctrl.SelectUser(ctx, userID)

	reader := bufio.NewReader(os.Stdin)

	desc, err := pickModel(reader, reg, cmd.String(modelFlag))
	if err != nil {
		return err
	}
	ctrl.SelectModel(ctx, desc)
	printSessionHeader(ctrl)

	for {
		fmt.Print("\nYou: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		input := strings.TrimSpace(line)

		switch strings.ToLower(input) {
		case "/quit":
			return nil
		case "/switch":
			desc, err := pickModel(reader, reg, "")
			if err != nil {
				return err
			}
			ctrl.SelectModel(ctx, desc)
			printSessionHeader(ctrl)
			continue
		case "/tools":
			ctrl.SetToolsEnabled(!ctrl.ToolsEnabled())
			state := "disabled"
			if ctrl.ToolsEnabled() {
				state = "enabled"
			}
			fmt.Printf("Tools %s\n", state)
			continue
		case "/clear":
			ctrl.ClearTranscript()
			fmt.Println("Conversation history cleared")
			continue
		case "":
			continue
		}

		if err := ctrl.Send(ctx, input); err != nil {
			// The transcript already carries the generic failure line.
			turns := ctrl.Transcript()
			if len(turns) > 0 {
				fmt.Printf("\n%s\n", turns[len(turns)-1].Content)
			}
			continue
		}

		turns := ctrl.Transcript()
		last := turns[len(turns)-1]
		fmt.Printf("\nAssistant: %s\n", last.Content)
		if last.Usage != nil {
			fmt.Printf("  [turn: %d prompt + %d completion = %d tokens]\n",
				last.Usage.PromptTokens, last.Usage.CompletionTokens, last.Usage.TotalTokens)
		}
		printMetrics(ctrl)
	}
}

func pickModel(reader *bufio.Reader, reg *registry.Registry, preset string) (*models.ModelDescriptor, error) {
	descriptors := reg.List()
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("model registry is empty")
	}

	if preset != "" {
		provider, model, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("model must be provider/model, got %q", preset)
		}
		if desc, found := reg.Get(provider, model); found {
			return &desc, nil
		}
		return nil, fmt.Errorf("model %s is not registered", preset)
	}

	fmt.Println("\nAvailable models:")
	for i, d := range descriptors {
		tools := ""
		if d.ToolsSupport {
			tools = " [tools]"
		}
		fmt.Printf("  %2d. %-45s %s%s\n", i+1, d.Display, d.Key(), tools)
	}

	for {
		fmt.Print("\nSelect a model: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("no model selected")
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 1 || n > len(descriptors) {
			fmt.Printf("Enter a number between 1 and %d\n", len(descriptors))
			continue
		}
		desc := descriptors[n-1]
		return &desc, nil
	}
}

func printSessionHeader(ctrl *session.Controller) {
	model := ctrl.Model()
	fmt.Printf("\n── %s (%s) as %s ──\n", model.Display, model.Key(), ctrl.User())
	fmt.Println("Commands: /switch (change model), /tools (toggle tools), /clear (clear history), /quit (exit)")
	printSnapshot(ctrl)
}

func printMetrics(ctrl *session.Controller) {
	m := ctrl.Metrics()
	fmt.Printf("  [session: %d prompt + %d completion = %d tokens]\n",
		m.PromptTokens, m.CompletionTokens, m.TotalTokens)
	printSnapshot(ctrl)
}

func printSnapshot(ctrl *session.Controller) {
	if snap, ok := ctrl.Snapshot(); ok {
		fmt.Printf("  [total: %d tokens over %d requests, $%.4f]\n",
			snap.TotalTokens, snap.RequestCount, snap.TotalCost)
	} else if ctrl.SnapshotFailed() {
		fmt.Println("  [total: Error fetching usage]")
	}
}
