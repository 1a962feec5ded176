package gateway

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/emberbot/emberbot/internal/core"
)

// ConsoleChannel is a stdin/stdout transport for local use. The console
// user is treated as the owner identity.
type ConsoleChannel struct {
	BotName string
	UserID  string

	// AudioDir is where voice payloads land, since a terminal can't play
	// them. Defaults to the working directory.
	AudioDir string
}

// NewConsole creates a console channel for the given owner user ID.
func NewConsole(botName, userID string) *ConsoleChannel {
	return &ConsoleChannel{BotName: botName, UserID: userID}
}

func (c *ConsoleChannel) Name() string { return "console" }

func (c *ConsoleChannel) Start(ctx context.Context, ingress chan<- core.Inbound) error {
	fmt.Printf("%s console (Enter to send, Ctrl+C to exit)\n\n", c.BotName)

	scanner := bufio.NewScanner(os.Stdin)
	go func() {
		for {
			fmt.Print("You: ")
			if !scanner.Scan() {
				return
			}
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			ingress <- core.Inbound{
				AuthorID:   c.UserID,
				AuthorName: "you",
				Owner:      true,
				Text:       text,
				Channel:    c.Name(),
				ChannelID:  "stdio",
			}
		}
	}()

	<-ctx.Done()
	return nil
}

func (c *ConsoleChannel) Send(channelID, text, replyToID string) error {
	fmt.Printf("%s: %s\n\n", c.BotName, text)
	return nil
}

func (c *ConsoleChannel) SendAudio(channelID, filename string, audio []byte) error {
	dir := c.AudioDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return err
	}
	fmt.Printf("%s: [voice message saved to %s]\n\n", c.BotName, path)
	return nil
}
