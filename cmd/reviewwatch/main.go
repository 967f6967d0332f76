// Package main provides a development client for the admin moderation event feed.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	host := flag.String("host", "localhost:8460", "API server host")
	email := flag.String("email", "root@rentloop.local", "Admin email")
	password := flag.String("password", "", "Admin password")
	flag.Parse()

	if *password == "" {
		log.Fatal("a -password is required")
	}

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	log.Printf("Logged in as %s", *email)

	feedURL := url.URL{
		Scheme:   "ws",
		Host:     *host,
		Path:     "/api/admin/events",
		RawQuery: "token=" + url.QueryEscape(token),
	}
	conn, _, err := websocket.DefaultDialer.Dial(feedURL.String(), nil)
	if err != nil {
		log.Fatalf("WebSocket dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()
	log.Printf("Connected to %s, watching for moderation events...", feedURL.Path)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("Read error: %v", err)
				return
			}
			printEvent(message)
		}
	}()

	select {
	case <-interrupt:
		log.Println("Interrupted, closing connection")
		deadline := time.Now().Add(2 * time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	case <-done:
	}
}

func login(host, email, password string) (string, error) {
	loginURL := fmt.Sprintf("http://%s/api/admin/auth/login", host)
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, _ := json.Marshal(payload)

	resp, err := http.Post(loginURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Token, nil
}

func printEvent(raw []byte) {
	var event struct {
		Type       string    `json:"type"`
		ActorType  string    `json:"actor_type"`
		ActorID    uint      `json:"actor_id"`
		TargetType string    `json:"target_type"`
		TargetID   uint      `json:"target_id"`
		Detail     string    `json:"detail"`
		OccurredAt time.Time `json:"occurred_at"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Printf("event (unparsed): %s", raw)
		return
	}
	log.Printf("[%s] %s by %s #%d on %s #%d %s",
		event.OccurredAt.Format(time.TimeOnly), event.Type,
		event.ActorType, event.ActorID, event.TargetType, event.TargetID, event.Detail)
}
