package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultNotifierYAML = `# EarnFlow notifier config
# Priority: CLI flag > EARNFLOW_* env > this file > default.

kafka_brokers: "localhost:9092"
group_id:      "notifier"
redis_addr:    "localhost:6379"   # empty disables redelivery dedup
dedup_ttl:     "24h"
log_level:     "info"
metrics_addr:  ":9096"

channel:          "log"    # log | webhook | email
max_retries:      3
delivery_timeout: "30s"
base_delay:       "1s"

# --- webhook ---
# webhook_url: "https://hooks.example.com/earnflow"
# webhook_headers:
#   Authorization: "Bearer changeme"

# --- email (local MailHog) ---
smtp_host: "localhost"
smtp_port: 1025
smtp_from: "noreply@earnflow.dev"
# smtp_username: ""
# smtp_password: ""

# otel_endpoint: "localhost:4318"  # uncomment to enable OpenTelemetry tracing
`

// newInitCmd returns an "init" subcommand that writes a default config file.
func newInitCmd(serviceName, defaultYAML string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: fmt.Sprintf(`Write default configuration for %s.

If --config is given the file is written to that path.
Otherwise it is written to ~/.go-earn-flow/%s.yaml.
Fails if the file already exists unless --force is passed.`, serviceName, serviceName),
		RunE: func(cmd *cobra.Command, _ []string) error {
			dest := cfgFile
			if dest == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("home dir: %w", err)
				}
				dest = filepath.Join(home, ".go-earn-flow", serviceName+".yaml")
			}
			if err := writeConfig(dest, defaultYAML, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", dest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")
	return cmd
}

func writeConfig(dest, content string, force bool) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if !force {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", dest)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", dest, err)
		}
	}
	if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
