package config

import (
	"strings"

	"github.com/ckit-sh/ckit/pkg/errors"
	toml "github.com/pelletier/go-toml/v2"
)

const configHeader = `# ckit configuration.
# Every value below shows its default; uncomment a line to change it.
# The same keys are available as CKIT_* environment variables, with
# double underscores between section and key: CKIT_DIFF__CONTEXT_LINES=5.

`

// GenerateConfigContent renders a starter config file: the default
// values, commented out.
func GenerateConfigContent() (string, error) {
	rendered, err := RenderConfig(Default())
	if err != nil {
		return "", err
	}
	return configHeader + commentOutConfigValues(rendered), nil
}

// RenderConfig renders a configuration as TOML.
func RenderConfig(cfg *Config) (string, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal,
			"failed to render configuration")
	}
	return string(data), nil
}

// commentOutConfigValues takes the TOML content and comments out all non-comment, non-blank lines
// that contain configuration values (assignments)
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Keep blank lines as-is
		if trimmed == "" {
			result = append(result, line)
			continue
		}

		// Keep lines that are already comments
		if strings.HasPrefix(trimmed, "#") {
			result = append(result, line)
			continue
		}

		// Keep section headers (e.g., [sync], [lock]) as-is
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			result = append(result, line)
			continue
		}

		// Comment out configuration value lines
		result = append(result, "# "+line)
	}

	return strings.Join(result, "\n")
}
