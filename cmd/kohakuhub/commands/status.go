package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kohakuhub/kohakuhub/internal/cli/health"
	"github.com/kohakuhub/kohakuhub/internal/cli/output"
)

var (
	statusOutput  string
	statusPidFile string
	statusAPIPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the KohakuHub server.

This command checks the server health by calling the health endpoints
and displays process state plus per-dependency readiness (database and
branch backend).

Examples:
  # Check status (uses default settings)
  kohakuhub status

  # Check status with custom API port
  kohakuhub status --api-port 9080

  # Output as JSON
  kohakuhub status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/kohakuhub/kohakuhub.pid)")
	statusCmd.Flags().IntVar(&statusAPIPort, "api-port", 8080, "API server port")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus represents the server status information.
type ServerStatus struct {
	Running    bool               `json:"running" yaml:"running"`
	PID        int                `json:"pid,omitempty" yaml:"pid,omitempty"`
	Version    string             `json:"version,omitempty" yaml:"version,omitempty"`
	Message    string             `json:"message" yaml:"message"`
	Healthy    bool               `json:"healthy" yaml:"healthy"`
	Components []health.Component `json:"components,omitempty" yaml:"components,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := ServerStatus{
		Running: false,
		Healthy: false,
		Message: "Server is not running",
	}

	// Use default PID file if not specified
	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	if pid, running := isProcessRunning(pidPath); running {
		status.Running = true
		status.PID = pid
	}

	client := &http.Client{Timeout: 2 * time.Second}

	// Liveness gives version; readiness gives per-dependency state.
	resp, err := client.Get(fmt.Sprintf("http://localhost:%d/health", statusAPIPort))
	if err == nil {
		var live health.Response
		decodeErr := json.NewDecoder(resp.Body).Decode(&live)
		_ = resp.Body.Close()
		if decodeErr == nil {
			status.Running = true
			status.Version = live.Version
		}
	} else if status.Running {
		// PID file says running but the listener is unreachable
		status.Message = "Server process exists but health check failed"
	}

	if status.Running {
		readyResp, err := client.Get(fmt.Sprintf("http://localhost:%d/health/ready", statusAPIPort))
		if err == nil {
			var ready health.ReadyResponse
			decodeErr := json.NewDecoder(readyResp.Body).Decode(&ready)
			_ = readyResp.Body.Close()
			if decodeErr == nil {
				status.Healthy = ready.Healthy()
				status.Components = ready.Components
				if status.Healthy {
					status.Message = "Server is running and healthy"
				} else {
					status.Message = "Server is running but a dependency is unhealthy"
				}
			}
		}
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

	if status.Running {
		if status.Healthy {
			fmt.Printf("  Status:     \033[32m● Running\033[0m\n")
		} else {
			fmt.Printf("  Status:     \033[33m● Running (unhealthy)\033[0m\n")
		}
		if status.PID != 0 {
			fmt.Printf("  PID:        %d\n", status.PID)
		}
		if status.Version != "" {
			fmt.Printf("  Version:    %s\n", status.Version)
		}
		for _, c := range status.Components {
			marker := "\033[32mok\033[0m"
			if c.Status != "healthy" {
				marker = fmt.Sprintf("\033[31m%s\033[0m", c.Error)
			}
			fmt.Printf("  %-11s %s\n", c.Name+":", marker)
		}
	} else {
		fmt.Printf("  Status:     \033[31m○ Stopped\033[0m\n")
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
