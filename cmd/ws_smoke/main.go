package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ws_smoke logs in as a demo client against a running server, opens the
// event stream and reports a points award, then prints the events received.
func main() {
	base := flag.String("addr", "127.0.0.1:8080", "server host:port")
	email := flag.String("email", "cliente@healthloop.com", "account email")
	password := flag.String("password", "demo123", "account password")
	flag.Parse()

	token, err := login(*base, *email, *password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws?token=%s", *base, token), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if typ := readType(conn, 2*time.Second); typ != "ready" {
		log.Fatalf("expected ready, got %q", typ)
	}

	body := []byte(`{"action":"video_completion","description":"ws smoke"}`)
	req, _ := http.NewRequest(http.MethodPost, "http://"+*base+"/api/v1/points/add", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("award: %v", err)
	}
	res.Body.Close()
	log.Printf("award status: %d", res.StatusCode)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			continue
		}
		log.Printf("event: %s", msg)
	}

	log.Println("smoke test finished")
}

func login(base, email, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	res, err := http.Post("http://"+base+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", res.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func readType(conn *websocket.Conn, wait time.Duration) string {
	conn.SetReadDeadline(time.Now().Add(wait))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return ""
	}
	var obj struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(msg, &obj)
	return obj.Type
}
