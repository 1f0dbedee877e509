package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/compose"
	"github.com/nakanoasaservice/notion-to-discord-bot/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("notion-discord-bot setup")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		cfg.Discord.Token = prompt(scanner, "Discord bot token", cfg.Discord.Token)
		cfg.Layout = prompt(scanner, "Message layout (text, embed_fields, embed_description)", cfg.Layout)
		if _, err := compose.ParseLayout(cfg.Layout); err != nil {
			return err
		}
		cfg.Listen = prompt(scanner, "Listen address", cfg.Listen)
		cfg.Telegram.Token = prompt(scanner, "Telegram bot token (optional)", cfg.Telegram.Token)

		// Participant sync
		cfg.Notion.APIKey = prompt(scanner, "Notion API key (optional)", cfg.Notion.APIKey)
		if cfg.Notion.APIKey != "" {
			cfg.Notion.StudentDatabaseID = prompt(scanner, "Student database ID", cfg.Notion.StudentDatabaseID)
			cfg.Notion.StudentIDProperty = prompt(scanner, "Student ID property", cfg.Notion.StudentIDProperty)
			cfg.Notion.ParticipantsProperty = prompt(scanner, "Participants property", cfg.Notion.ParticipantsProperty)
			n := prompt(scanner, "Concurrent student lookups", strconv.Itoa(cfg.Roster.MaxConcurrent))
			if v, err := strconv.Atoi(n); err == nil {
				cfg.Roster.MaxConcurrent = v
			}
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}
