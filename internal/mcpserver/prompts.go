package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

type promptFrontmatter struct {
	Description string `yaml:"description"`
}

// registerPrompts registers every embedded markdown prompt. The file name
// (minus extension) is the prompt name.
func (s *Server) registerPrompts() {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".md")
		content, err := promptFiles.ReadFile(filepath.Join("prompts", entry.Name()))
		if err != nil {
			continue
		}

		description, body := parseFrontmatter(content)
		s.server.AddPrompt(&mcp.Prompt{
			Name:        name,
			Description: description,
		}, makePromptHandler(description, body))
	}
}

// parseFrontmatter splits optional YAML frontmatter from the prompt body.
func parseFrontmatter(content []byte) (description string, body string) {
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return "", string(content)
	}

	rest := content[4:]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end == -1 {
		return "", string(content)
	}

	var fm promptFrontmatter
	if err := yaml.Unmarshal(rest[:end], &fm); err != nil {
		return "", string(content)
	}

	body = strings.TrimPrefix(string(rest[end+5:]), "\n")
	return fm.Description, body
}

func makePromptHandler(description, body string) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Description: description,
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: body},
				},
			},
		}, nil
	}
}
