package main

import (
	"context"
	"log"
	"os"

	"github.com/eshaffer321/extrachill-go/pkg/extrachill"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

func main() {
	// The session file is written by `extrachill login`
	sessionFile := os.Getenv("EXTRACHILL_SESSION_FILE")
	if sessionFile == "" {
		log.Fatal("EXTRACHILL_SESSION_FILE environment variable is required")
	}

	// stdout carries the MCP protocol, so logs go to stderr
	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	client, err := extrachill.NewClient(&extrachill.ClientOptions{
		BaseURL:     os.Getenv("EXTRACHILL_BASE_URL"),
		SessionFile: sessionFile,
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		Logger:      extrachill.NewZerologLogger(logger),
	})
	if err != nil {
		log.Fatalf("failed to initialize Extra Chill client: %v", err)
	}
	defer client.Close()

	if !client.Auth.HasCredentials() {
		log.Fatal("no stored session, sign in with `extrachill login` first")
	}

	impl := &mcp.Implementation{
		Name:    "extrachill",
		Version: "1.0.0",
	}

	server := mcp.NewServer(impl, nil)

	registerTools(server, client)

	// Run server over stdio transport
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func registerTools(server *mcp.Server, client *extrachill.Client) {
	tools := &extrachillTools{client: client}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_me",
		Description: "Get the signed-in Extra Chill user's profile: id, username, display name, email and profile URL.",
	}, tools.GetMe)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_activity",
		Description: "Get a page of the Extra Chill activity feed, newest first. Pass the returned nextCursor to read older items.",
	}, tools.GetActivity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_onboarding_status",
		Description: "Get whether the signed-in user has completed onboarding, with their username and artist/professional flags.",
	}, tools.GetOnboardingStatus)
}
