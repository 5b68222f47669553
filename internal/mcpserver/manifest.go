package mcpserver

import (
	"encoding/json"
)

// Manifest is the MCP server manifest (server.json) format, schema
// version 2025-10-17.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository contains source repository information.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	ID     string `json:"id,omitempty"`
}

// Package describes how to install and run the server.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument represents a command-line argument.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Transport describes the communication method.
type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest creates the server manifest JSON.
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	manifest := Manifest{
		Schema:      "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json",
		Name:        "io.github.codeprism/codeprism",
		Description: "Code intelligence over MCP: symbol graph, references, data flow, complexity, security, and duplication analysis for Go, Python, and JavaScript/TypeScript",
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/codeprism/codeprism",
			Source: "github",
		},
		Packages: []Package{
			{
				RegistryType: "oci",
				Identifier:   "ghcr.io/codeprism/codeprism:" + version,
				PackageArguments: []Argument{
					{Type: "positional", Value: "mcp"},
				},
				Transport: Transport{
					Type: "stdio",
				},
			},
		},
	}

	return json.MarshalIndent(manifest, "", "  ")
}
