package mcpserver

import (
	"encoding/json"
	"strings"
)

const manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"

// Manifest is the MCP registry entry (server.json) for cpd.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	WebsiteURL  string      `json:"websiteUrl,omitempty"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository points at the source code.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package is one way to install and start the server.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []EnvVariable `json:"environmentVariables,omitempty"`
	Transport            Transport     `json:"transport"`
}

// Argument is a command-line argument passed to the package.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// EnvVariable is an environment variable the package reads.
type EnvVariable struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsRequired  bool   `json:"isRequired,omitempty"`
	Format      string `json:"format,omitempty"`
}

// Transport describes the communication method.
type Transport struct {
	Type string `json:"type"`
}

// registryVersion turns a build version into what the registry accepts:
// release tags lose their "v" and development builds become 0.0.0.
func registryVersion(version string) string {
	v := strings.TrimPrefix(strings.TrimSpace(version), "v")
	if v == "" || v == "dev" {
		return "0.0.0"
	}
	return v
}

// GenerateManifest creates the MCP server manifest JSON.
func GenerateManifest(version string) ([]byte, error) {
	version = registryVersion(version)

	manifest := Manifest{
		Schema:      manifestSchema,
		Name:        "io.github.panbanda/cpd",
		Title:       "cpd",
		Description: "Token-level copy/paste detection across source files",
		Version:     version,
		WebsiteURL:  "https://github.com/panbanda/cpd",
		Repository: &Repository{
			URL:    "https://github.com/panbanda/cpd",
			Source: "github",
		},
		Packages: []Package{
			{
				RegistryType:     "oci",
				Identifier:       "ghcr.io/panbanda/cpd:" + version,
				PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
				EnvironmentVariables: []EnvVariable{
					{
						Name:        "CPD_CONFIG",
						Description: "Path to a cpd.toml, cpd.yaml or cpd.json used as the base configuration for tool calls",
						Format:      "filepath",
					},
				},
				Transport: Transport{Type: "stdio"},
			},
		},
	}

	return json.MarshalIndent(manifest, "", "  ")
}
