package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultRewardsAPIYAML = `# EarnFlow rewards API config
# Priority: CLI flag > EARNFLOW_* env > this file > default.

http_port:    "8080"
metrics_addr: ":9095"
log_level:    "info"       # debug | info | warn | error

kafka_brokers: "localhost:9092"   # empty disables event publishing
redis_addr:    "localhost:6379"

jwt_secret: "changeme"
token_ttl:  "24h"

session_idle_timeout: "30m"
reaper_schedule:      "@every 1m"
timer_period:         "1s"
min_withdrawal:       100

story_rate_limit:  10
start_rate_limit:  30
rate_limit_window: "1m"

gemini_model:  "gemini-2.5-flash"
story_timeout: "20s"
# gemini_api_key: ""       # or EARNFLOW_GEMINI_API_KEY; empty serves fallback text

kyc_mock_delay: "2s"
kyc_mock_code:  "1234"

support_email: "mpksupport1421@gmail.com"

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
