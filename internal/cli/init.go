package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/notionblog/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with an example config",
	RunE:  initAction,
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig))
	if err != nil {
		return err
	}

	if !wrote {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
		return nil
	}
	fmt.Printf("Initialized %s. Set %s and %s before running list or serve.\n",
		configDir, config.DefaultTokenEnv, config.DefaultDatabaseIDEnv)
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# notionblog configuration

notion:
  # Secrets are read from these environment variables, never from this file.
  token_env: NOTION_TOKEN
  database_id_env: NOTION_DATABASE_ID
  timeout: 30s

# Database column names.
properties:
  title: Name
  date: Date
  slug: Slug
  tags: Tags
  lang: Lang
  published: Published

retry:
  max_retries: 3
  initial_delay: 1s
  multiplier: 2
  preview_delay: 500ms
  content_delay: 2s

content:
  max_depth: 8

server:
  addr: ":3000"
  site_name: "My Blog"
  site_url: "http://localhost:3000"
  description: ""

cache:
  backend: memory   # memory, redis or none
  list_ttl: 1h
  post_ttl: 60s
  redis:
    addr: "localhost:6379"
    password_env: ""
    db: 0

storage:
  path: .notionblog/notionblog.db

log:
  level: info
`
