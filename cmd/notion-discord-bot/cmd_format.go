package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/compose"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/discord"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/notion"
)

var (
	formatTitle  string
	formatLayout string
)

func init() {
	rootCmd.AddCommand(formatCmd)
	formatCmd.Flags().StringVar(&formatTitle, "title", "", "title line of the message")
	formatCmd.Flags().StringVar(&formatLayout, "layout", "", "message layout (default: the configured layout)")
}

var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Print the message a webhook body would produce",
	Long: `Reads a Notion automation webhook body, or a bare page object, from
file or stdin and prints the message that would be delivered. The text
layout prints the message content; embed layouts print the Discord request
body as JSON. Nothing is sent.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layoutName := formatLayout
		if layoutName == "" {
			layoutName = loadConfig().Layout
		}
		layout, err := compose.ParseLayout(layoutName)
		if err != nil {
			return err
		}

		data, err := readInput(args)
		if err != nil {
			return err
		}
		page, err := decodePage(data)
		if err != nil {
			return err
		}

		msg := discord.Build(compose.Record(page, formatTitle), layout)
		if layout == compose.LayoutText {
			fmt.Fprintln(os.Stdout, msg.Content)
			return nil
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(msg)
	},
}

// readInput reads the file named by args, or stdin when there is none or
// it is "-".
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// decodePage accepts either {"data": page} or a page object.
func decodePage(data []byte) (*notion.Page, error) {
	var body notion.WebhookBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if body.Data != nil {
		return body.Data, nil
	}
	var page notion.Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("invalid page: %w", err)
	}
	if page.Properties.Len() == 0 && page.ID == "" {
		return nil, fmt.Errorf("input has neither \"data\" nor page properties")
	}
	return &page, nil
}
