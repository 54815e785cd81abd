package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Global flag names shared by every command
const (
	ServerFlag  = "server"
	TimeoutFlag = "timeout"
)

// DefaultServer is the scanner service address used when neither the flag
// nor SCANCTL_SERVER is set
const DefaultServer = "http://localhost:8012"

// AddGlobalFlags registers the connection flags on the root command
func AddGlobalFlags(root *cobra.Command) {
	server := os.Getenv("SCANCTL_SERVER")
	if server == "" {
		server = DefaultServer
	}
	root.PersistentFlags().String(ServerFlag, server, "Scanner service base URL")
	root.PersistentFlags().Duration(TimeoutFlag, 30*time.Second, "Request timeout")
}

func clientFor(cmd *cobra.Command) *Client {
	server, err := cmd.Flags().GetString(ServerFlag)
	if err != nil || server == "" {
		server = DefaultServer
	}
	timeout, err := cmd.Flags().GetDuration(TimeoutFlag)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewClient(server, timeout)
}

// StartCmd returns the start command
func StartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <operation-id>",
		Short: "Open a scan session on a picking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := clientFor(cmd).StartSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			PrintSession(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show a scan session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := clientFor(cmd).GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			PrintSession(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

// ListenCmd returns the listen command
func ListenCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "listen <session-id>",
		Short: "Forward a keyboard-wedge scanner to a session",
		Long: `Read scanned barcodes from stdin, one per line, and replay each line as
key presses followed by Enter. The outcome of every scan is printed as
soon as the session has applied it.

Examples:
  scanctl listen 0b6f...            # scan into the terminal
  cat barcodes.txt | scanctl listen 0b6f...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listen(cmd.Context(), clientFor(cmd), args[0], cmd.InOrStdin(), cmd.OutOrStdout(), wait)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "How long to wait for each outcome")

	return cmd
}

func listen(ctx context.Context, client *Client, sessionID string, in io.Reader, out io.Writer, wait time.Duration) error {
	view, err := client.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Listening on %s (%s), Ctrl-D to stop\n", view.OperationName, sessionID)

	version := view.Version
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := client.SendKeys(ctx, sessionID, KeyEventsFor(line)); err != nil {
			return err
		}

		waitCtx, cancel := context.WithTimeout(ctx, wait)
		applied, err := client.WaitForOutcome(waitCtx, sessionID, line, version, 50*time.Millisecond)
		cancel()
		if err != nil {
			fmt.Fprintln(out, outcomeColor("error").Sprint(err.Error()))
			continue
		}

		version = applied.Version
		PrintOutcome(out, applied.LastOutcome)
		PrintProgress(out, applied)
		if applied.Closed {
			PrintSession(out, applied)
			return nil
		}
	}
	return scanner.Err()
}

// CameraCmd returns the camera command
func CameraCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "camera <session-id> <barcode>",
		Short: "Submit a barcode decoded by a camera",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := clientFor(cmd).CameraScan(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			PrintOutcome(cmd.OutOrStdout(), result.Outcome)
			PrintProgress(cmd.OutOrStdout(), &result.Session)
			return nil
		},
	}
}

// ToggleCmd returns the toggle command
func ToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <session-id>",
		Short: "Switch between product and location scanning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := clientFor(cmd).ToggleScanMode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scan mode: %s\n", view.ScanMode)
			return nil
		},
	}
}

// ReloadCmd returns the reload command
func ReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload <session-id>",
		Short: "Re-read the picking and its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := clientFor(cmd).Reload(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			PrintSession(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

// ValidateCmd returns the validate command
func ValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <session-id>",
		Short: "Validate the picking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := clientFor(cmd).Validate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			PrintSession(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

// CloseCmd returns the close command
func CloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <session-id>",
		Short: "Close a scan session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := clientFor(cmd).CloseSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			PrintSession(cmd.OutOrStdout(), view)
			return nil
		},
	}
}
