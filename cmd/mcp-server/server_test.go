package main

import (
	"context"
	"sort"
	"testing"

	"github.com/eshaffer321/extrachill-go/pkg/extrachill"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tool schemas are inferred from the input and output structs when
// registered; a struct the schema package rejects panics at startup.
func TestRegisterTools_AdvertisesEveryTool(t *testing.T) {
	ctx := context.Background()
	server := mcp.NewServer(&mcp.Implementation{Name: "extrachill", Version: "test"}, nil)

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("registering tools: %v", r)
			}
		}()
		registerTools(server, &extrachill.Client{})
	}()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	cs, err := mcp.NewClient(&mcp.Implementation{Name: "tools-list", Version: "test"}, nil).Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	res, err := cs.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotNil(t, tool.InputSchema, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"get_activity", "get_me", "get_onboarding_status"}, names)
}
