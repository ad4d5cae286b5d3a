package config

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// ExampleConfig is written by Init.
const ExampleConfig = `# docsite configuration
site:
  title: "My Project"
  description: "Project documentation"
  lang: en-US
  base: /
  last_updated: true

theme:
  nav:
    - text: Home
      link: /
  sidebar:
    - text: Guide
      items:
        - text: Getting Started
          link: /getting-started
  social_links:
    - icon: github
      link: https://github.com/example/project
  search:
    provider: local
  outline: deep

content:
  dir: docs

sitemap:
  # Absolute URL of the deployed site root; DOCSITE_HOSTNAME overrides it.
  hostname: "${DOCSITE_HOSTNAME}"
  gzip: false

output:
  directory: docs/.site/dist
  report: true
`

// Init writes an example configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.FileSystemError("failed to create configuration directory").
				WithCause(err).
				WithContext("path", dir).
				Build()
		}
	}
	if err := os.WriteFile(path, []byte(ExampleConfig), 0o600); err != nil {
		return errors.FileSystemError("failed to write configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
