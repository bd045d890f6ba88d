package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream session events",
		Long: `Connect to the server's SSE endpoint and stream session events in real-time.

The first event is always "session" with the current state. After that:
  - room-created / room-joined: A room was bound
  - opponent-joined: Another client joined the created room
  - move-submitted: This session's move was published
  - opponent-moved: The opponent's move arrived (value hidden until resolved)
  - opponent-pending: The resolve delay passed without an opponent move
  - resolved: Both moves are known
  - reset: The session left its room
  - transport-error: Publishing or subscribing failed

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return streamEvents(ctx, cmd.OutOrStdout(), jsonOutput, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().IntVarP(&limit, "count", "n", 0, "Exit after this many events (0 streams until interrupted)")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

// eventBody is the part of an event payload shown in text mode
type eventBody struct {
	Session
	Nested Session `json:"session"`
	Error  string  `json:"error"`
}

func streamEvents(ctx context.Context, w io.Writer, jsonOutput bool, limit int) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/events"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	httpClient := &http.Client{
		Timeout: 0, // No timeout for SSE
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !jsonOutput {
		fmt.Fprintf(w, "Connected to %s\n", cfg.ServerURL)
	}

	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string
	seen := 0

	for scanner.Scan() {
		line := scanner.Text()

		if after, ok := strings.CutPrefix(line, "event: "); ok {
			currentEvent = after
		} else if after, ok := strings.CutPrefix(line, "data: "); ok {
			dataLines = append(dataLines, after)
		} else if line == "" {
			// End of event
			if currentEvent != "" {
				printEvent(w, currentEvent, strings.Join(dataLines, "\n"), jsonOutput)
				seen++
				if limit > 0 && seen >= limit {
					return nil
				}
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

func printEvent(w io.Writer, event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := SSEEvent{
			Time:  now,
			Event: event,
			Data:  data,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Fprintln(w, string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, event, summarizeEvent(event, data))
}

// summarizeEvent renders one line of text for an event payload
func summarizeEvent(event, data string) string {
	var body eventBody
	if err := json.Unmarshal([]byte(data), &body); err != nil {
		return strings.ReplaceAll(data, "\n", " ")
	}

	// The connect message is a bare session, the rest wrap one
	s := body.Nested
	if event == "session" {
		s = body.Session
	}

	parts := []string{"phase " + s.Phase}
	if s.RoomID != "" {
		parts = append(parts, "room "+s.RoomID)
	}
	if s.ResultText != "" {
		parts = append(parts, s.ResultText)
	}
	if body.Error != "" {
		parts = append(parts, "error: "+body.Error)
	}
	return strings.Join(parts, ", ")
}
