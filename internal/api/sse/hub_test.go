package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mcoot/rpsroom/internal/api/response"
	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/testutil"
)

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		data     string
		expected string
	}{
		{
			name:     "single line data",
			event:    "resolved",
			data:     `{"phase":"resolved"}`,
			expected: "event: resolved\ndata: {\"phase\":\"resolved\"}\n\n",
		},
		{
			name:     "multi-line data",
			event:    "session",
			data:     "{\n  \"phase\": \"idle\"\n}",
			expected: "event: session\ndata: {\ndata:   \"phase\": \"idle\"\ndata: }\n\n",
		},
		{
			name:     "empty data",
			event:    "ping",
			data:     "",
			expected: "event: ping\ndata: \n\n",
		},
		{
			name:     "crlf line endings",
			event:    "test",
			data:     "line1\r\nline2\r\n",
			expected: "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatMessage(tt.event, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatMessage(%q, %q)\ngot:  %q\nwant: %q",
					tt.event, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestEventName(t *testing.T) {
	tests := map[model.EventType]string{
		model.EventRoomCreated:     "room-created",
		model.EventOpponentPending: "opponent-pending",
		model.EventResolved:        "resolved",
		model.EventTransportError:  "transport-error",
	}
	for in, want := range tests {
		if got := EventName(in); got != want {
			t.Errorf("EventName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEventMessage(t *testing.T) {
	event := model.Event{
		Type:      model.EventTransportError,
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		RoomID:    "ab12cd",
		Snapshot: model.Snapshot{
			Identity: "alice",
			Phase:    model.PhaseAwaitingOpponent,
			RoomID:   "ab12cd",
		},
		Err: errors.New("publish ab12cd: connection reset"),
	}

	msg, err := EventMessage(event)
	if err != nil {
		t.Fatalf("EventMessage: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(string(msg), "\n\n"), "\n")
	if len(lines) != 2 || lines[0] != "event: transport-error" {
		t.Fatalf("unexpected message %q", string(msg))
	}

	var body response.Event
	if err := json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Type != "transport_error" || body.RoomID != "ab12cd" || body.Error == "" {
		t.Errorf("unexpected body %+v", body)
	}
	if body.Session.Phase != "awaiting_opponent" {
		t.Errorf("session phase = %q, want awaiting_opponent", body.Session.Phase)
	}
}

func TestHub_NotifyReachesAllClients(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	clients := []*Client{NewClient(), NewClient(), NewClient()}
	for _, c := range clients {
		if !hub.Register(c) {
			t.Fatal("Register returned false on a running hub")
		}
	}

	hub.Notify(model.Event{Type: model.EventReset, Snapshot: model.Snapshot{Identity: "alice", Phase: model.PhaseIdle}})

	for i, c := range clients {
		select {
		case msg := <-c.send:
			if !strings.HasPrefix(string(msg), "event: reset\n") {
				t.Errorf("client %d received %q", i+1, string(msg))
			}
		case <-time.After(time.Second):
			t.Errorf("client %d did not receive message", i+1)
		}
	}
	if hub.ClientCount() != 3 {
		t.Errorf("ClientCount() = %d, want 3", hub.ClientCount())
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient()
	hub.Register(client)
	hub.Unregister(client)

	// Unregister is processed before any later request on the loop
	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after unregister, want 0", hub.ClientCount())
	}
	if _, ok := <-client.send; ok {
		t.Error("send channel still open after unregister")
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()

	client := NewClient()
	hub.Register(client)
	hub.Close()
	hub.Close()

	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Fatal("client was not disconnected")
	}

	if hub.Register(NewClient()) {
		t.Error("Register succeeded on a stopped hub")
	}
}

func TestServeSSE_StreamsHelloAndEvents(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	hello, err := SessionMessage(model.Snapshot{Identity: "alice", Phase: model.PhaseIdle})
	if err != nil {
		t.Fatalf("SessionMessage: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, hub, hello)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	if name := readEventName(t, reader); name != "session" {
		t.Fatalf("first event = %q, want session", name)
	}

	hub.Notify(model.Event{Type: model.EventRoomCreated, RoomID: "ab12cd"})
	if name := readEventName(t, reader); name != "room-created" {
		t.Fatalf("second event = %q, want room-created", name)
	}
}

// readEventName reads one SSE message and returns its event name
func readEventName(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	var name string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			return name
		}
		if after, ok := strings.CutPrefix(line, "event: "); ok {
			name = after
		}
	}
}
