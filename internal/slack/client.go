package slack

import (
	"bytes"
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Messenger is the outbound half of Slack the handlers use.
type Messenger interface {
	PostText(ctx context.Context, channelID, text string) error
	PostBlocks(ctx context.Context, channelID, fallback string, blocks []slack.Block) error
	UploadImage(ctx context.Context, channelID, title string, data []byte, filename string) error
}

type Client struct {
	api    *slack.Client
	botID  string
	logger *zap.Logger
}

func NewClient(ctx context.Context, token string, logger *zap.Logger, opts ...slack.Option) (*Client, error) {
	api := slack.New(token, opts...)

	authTest, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with Slack: %w", err)
	}

	logger.Info("💬 Slack authenticated", zap.String("bot", authTest.UserID), zap.String("team", authTest.Team))

	return &Client{
		api:    api,
		botID:  authTest.UserID,
		logger: logger,
	}, nil
}

func (c *Client) GetBotID() string {
	return c.botID
}

func (c *Client) PostText(ctx context.Context, channelID, message string) error {
	_, _, err := c.api.PostMessageContext(ctx,
		channelID,
		slack.MsgOptionText(message, false),
	)
	return err
}

func (c *Client) PostBlocks(ctx context.Context, channelID, fallback string, blocks []slack.Block) error {
	_, _, err := c.api.PostMessageContext(ctx,
		channelID,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(blocks...),
	)
	return err
}

func (c *Client) UploadImage(ctx context.Context, channelID, title string, data []byte, filename string) error {
	_, err := c.api.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:  channelID,
		Filename: filename,
		FileSize: len(data),
		Reader:   bytes.NewReader(data),
		Title:    title,
	})
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	return nil
}
