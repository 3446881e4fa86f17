package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/cmdutil"
	"github.com/kohakuhub/kohakuhub/internal/cli/credentials"
	"github.com/kohakuhub/kohakuhub/internal/cli/health"
	"github.com/kohakuhub/kohakuhub/internal/cli/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the status of the connected KohakuHub server.

This command checks the server health endpoints and displays liveness,
version and per-component readiness.

Examples:
  # Check status of connected server
  kohubctl status

  # Output as JSON
  kohubctl status -o json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// ServerStatus represents the server status for display.
type ServerStatus struct {
	Server     string             `json:"server" yaml:"server"`
	Status     string             `json:"status" yaml:"status"`
	Healthy    bool               `json:"healthy" yaml:"healthy"`
	Service    string             `json:"service,omitempty" yaml:"service,omitempty"`
	Version    string             `json:"version,omitempty" yaml:"version,omitempty"`
	Components []health.Component `json:"components,omitempty" yaml:"components,omitempty"`
	Error      string             `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	serverURL := cmdutil.Flags.ServerURL
	if serverURL == "" {
		// Load credential store
		store, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to initialize credential store: %w", err)
		}

		ctx, err := store.GetCurrentContext()
		if err != nil {
			return fmt.Errorf("not logged in. Run 'kohubctl login' first")
		}
		serverURL = ctx.ServerURL
	}
	if serverURL == "" {
		return fmt.Errorf("no server configured. Run 'kohubctl login' first")
	}

	status := ServerStatus{
		Server:  serverURL,
		Status:  "unreachable",
		Healthy: false,
	}

	client := &http.Client{Timeout: 5 * time.Second}

	// Check liveness endpoint
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		status.Error = err.Error()
	} else {
		func() {
			defer func() { _ = resp.Body.Close() }()
			var healthResp health.Response
			if err := json.NewDecoder(resp.Body).Decode(&healthResp); err == nil {
				status.Status = healthResp.Status
				status.Service = healthResp.Service
				status.Version = healthResp.Version
			} else {
				status.Status = "unknown"
				status.Error = "Failed to parse health response"
			}
		}()

		// Check readiness for per-component detail
		if readyResp, err := client.Get(serverURL + "/health/ready"); err == nil {
			func() {
				defer func() { _ = readyResp.Body.Close() }()
				var ready health.ReadyResponse
				if err := json.NewDecoder(readyResp.Body).Decode(&ready); err == nil {
					status.Healthy = ready.Healthy()
					status.Components = ready.Components
					if !status.Healthy {
						status.Status = ready.Status
					}
				}
			}()
		}
	}

	// Output based on format
	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}

	return nil
}

func printStatusTable(status ServerStatus) {
	fmt.Println()
	fmt.Println("KohakuHub Server Status")
	fmt.Println("=======================")
	fmt.Println()
	fmt.Printf("  Server:     %s\n", status.Server)

	if status.Healthy {
		fmt.Printf("  Status:     \033[32m● %s\033[0m\n", status.Status)
	} else if status.Status == "unreachable" {
		fmt.Printf("  Status:     \033[31m○ %s\033[0m\n", status.Status)
	} else {
		fmt.Printf("  Status:     \033[33m● %s\033[0m\n", status.Status)
	}

	if status.Service != "" {
		fmt.Printf("  Service:    %s\n", status.Service)
	}
	if status.Version != "" {
		fmt.Printf("  Version:    %s\n", status.Version)
	}
	if status.Error != "" {
		fmt.Printf("  Error:      %s\n", status.Error)
	}

	if len(status.Components) > 0 {
		fmt.Println()
		fmt.Println("  Components:")
		for _, c := range status.Components {
			if c.Status == "ok" {
				fmt.Printf("    \033[32m●\033[0m %-10s ok (%s)\n", c.Name, c.Latency)
			} else {
				fmt.Printf("    \033[31m○\033[0m %-10s %s: %s\n", c.Name, c.Status, c.Error)
			}
		}
	}
	fmt.Println()
}
