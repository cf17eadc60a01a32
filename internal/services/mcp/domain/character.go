package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/swnsheet/internal/services/sheet/client"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const toolCallTimeout = 10 * time.Second

// CharacterClient is the subset of the sheet client the tools call.
type CharacterClient interface {
	GetCharacter(ctx context.Context) (client.Record, error)
	NewCharacter(ctx context.Context) (client.Record, error)
	RollAttributes(ctx context.Context) (client.Record, error)
	ChangeAttribute(ctx context.Context, attr client.Attribute) (client.Record, error)
	SetDetail(ctx context.Context, detail client.Detail, value string) (client.Record, error)
}

// GetCharacterInput takes no arguments.
type GetCharacterInput struct{}

// NewCharacterInput takes no arguments.
type NewCharacterInput struct{}

// RollAttributesInput takes no arguments.
type RollAttributesInput struct{}

// PinAttributeInput represents the MCP tool input for pinning an attribute to 14.
type PinAttributeInput struct {
	Attribute string `json:"attribute" jsonschema:"one of STRENGTH, DEXTERITY, CONSTITUTION, INTELLIGENCE, WISDOM, CHARISMA, or NONE to clear the pin"`
}

// SetNameInput represents the MCP tool input for renaming the character.
type SetNameInput struct {
	Name string `json:"name" jsonschema:"new character name"`
}

// AttributeResult is one ability score as reported by the service.
type AttributeResult struct {
	Attribute string `json:"attribute" jsonschema:"attribute identifier"`
	Score     int    `json:"score" jsonschema:"ability score (0 when unrolled)"`
	Modifier  int    `json:"modifier" jsonschema:"signed modifier derived by the service"`
	Pinned    bool   `json:"pinned" jsonschema:"whether this attribute is the one set to 14"`
}

// CharacterResult represents the MCP tool output for every character tool.
type CharacterResult struct {
	Name                string            `json:"name" jsonschema:"character name"`
	Attributes          []AttributeResult `json:"attributes" jsonschema:"ability scores in sheet order"`
	PinnedAttribute     string            `json:"pinned_attribute" jsonschema:"attribute set to 14, or NONE"`
	PinnedOriginalScore int               `json:"pinned_original_score" jsonschema:"score the pinned attribute had before it was set to 14"`
}

// CharacterResultFromRecord converts a service record into tool output.
func CharacterResultFromRecord(rec client.Record) CharacterResult {
	pinned := rec.Pinned()
	result := CharacterResult{
		Name:                rec.Name,
		Attributes:          make([]AttributeResult, 0, len(client.Attributes)),
		PinnedAttribute:     string(pinned),
		PinnedOriginalScore: rec.ChangedAttributeOriginalValue,
	}
	for _, attr := range client.Attributes {
		result.Attributes = append(result.Attributes, AttributeResult{
			Attribute: string(attr),
			Score:     rec.Score(attr),
			Modifier:  rec.Modifier(attr),
			Pinned:    attr == pinned,
		})
	}
	return result
}

// ParseAttribute accepts any casing of the seven selector values.
func ParseAttribute(raw string) (client.Attribute, error) {
	value := client.Attribute(strings.ToUpper(strings.TrimSpace(raw)))
	if value == client.AttributeNone {
		return value, nil
	}
	for _, attr := range client.Attributes {
		if attr == value {
			return value, nil
		}
	}
	return "", fmt.Errorf("invalid attribute: %q", raw)
}

// GetCharacterTool defines the MCP tool schema for reading the character.
func GetCharacterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_character",
		Description: "Get the current character, creating a default one if none exists",
	}
}

// NewCharacterTool defines the MCP tool schema for resetting the character.
func NewCharacterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "new_character",
		Description: "Replace the current character with a fresh default character",
	}
}

// RollAttributesTool defines the MCP tool schema for rolling ability scores.
func RollAttributesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_attributes",
		Description: "Roll 3d6 for each of the six ability scores",
	}
}

// PinAttributeTool defines the MCP tool schema for setting one attribute to 14.
func PinAttributeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "pin_attribute",
		Description: "Set one attribute to 14, restoring any previously pinned attribute; NONE clears the pin",
	}
}

// SetNameTool defines the MCP tool schema for renaming the character.
func SetNameTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_name",
		Description: "Change the character name",
	}
}

// GetCharacterHandler returns the current character.
func GetCharacterHandler(c CharacterClient) mcp.ToolHandlerFor[GetCharacterInput, CharacterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ GetCharacterInput) (*mcp.CallToolResult, CharacterResult, error) {
		return call(ctx, "get character", c, func(ctx context.Context, c CharacterClient) (client.Record, error) {
			return c.GetCharacter(ctx)
		})
	}
}

// NewCharacterHandler replaces the character with a default one.
func NewCharacterHandler(c CharacterClient) mcp.ToolHandlerFor[NewCharacterInput, CharacterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NewCharacterInput) (*mcp.CallToolResult, CharacterResult, error) {
		return call(ctx, "new character", c, func(ctx context.Context, c CharacterClient) (client.Record, error) {
			return c.NewCharacter(ctx)
		})
	}
}

// RollAttributesHandler rolls fresh ability scores.
func RollAttributesHandler(c CharacterClient) mcp.ToolHandlerFor[RollAttributesInput, CharacterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ RollAttributesInput) (*mcp.CallToolResult, CharacterResult, error) {
		return call(ctx, "roll attributes", c, func(ctx context.Context, c CharacterClient) (client.Record, error) {
			return c.RollAttributes(ctx)
		})
	}
}

// PinAttributeHandler validates the selector before calling the service.
func PinAttributeHandler(c CharacterClient) mcp.ToolHandlerFor[PinAttributeInput, CharacterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PinAttributeInput) (*mcp.CallToolResult, CharacterResult, error) {
		attr, err := ParseAttribute(input.Attribute)
		if err != nil {
			return nil, CharacterResult{}, err
		}
		return call(ctx, "pin attribute", c, func(ctx context.Context, c CharacterClient) (client.Record, error) {
			return c.ChangeAttribute(ctx, attr)
		})
	}
}

// SetNameHandler writes the NAME detail.
func SetNameHandler(c CharacterClient) mcp.ToolHandlerFor[SetNameInput, CharacterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SetNameInput) (*mcp.CallToolResult, CharacterResult, error) {
		return call(ctx, "set name", c, func(ctx context.Context, c CharacterClient) (client.Record, error) {
			return c.SetDetail(ctx, client.DetailName, input.Name)
		})
	}
}

func call(ctx context.Context, op string, c CharacterClient, fn func(context.Context, CharacterClient) (client.Record, error)) (*mcp.CallToolResult, CharacterResult, error) {
	if c == nil {
		return nil, CharacterResult{}, errors.New("character client is not configured")
	}
	runCtx, cancel := context.WithTimeout(ctx, toolCallTimeout)
	defer cancel()

	rec, err := fn(runCtx, c)
	if err != nil {
		if message := client.ServerMessage(err); message != "" {
			return nil, CharacterResult{}, fmt.Errorf("%s failed: %s", op, message)
		}
		return nil, CharacterResult{}, fmt.Errorf("%s failed: %w", op, err)
	}
	return nil, CharacterResultFromRecord(rec), nil
}
