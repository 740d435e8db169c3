package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Simplified DTOs for the script
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type chatTurnRequest struct {
	SessionId string `json:"sessionId"`
	Message   string `json:"message"`
	ToolUsed  string `json:"toolUsed,omitempty"`
}

type chatTurnResponse struct {
	Intent struct {
		Type       string            `json:"type"`
		Confidence float64           `json:"confidence"`
		Slots      map[string]string `json:"slots"`
	} `json:"intent"`
	StageFrom   string `json:"stageFrom"`
	StageTo     string `json:"stageTo"`
	Suggestions []struct {
		ID    string  `json:"id"`
		Score float64 `json:"score"`
	} `json:"suggestions"`
}

var (
	userColor  = color.New(color.FgCyan, color.Bold)
	stageColor = color.New(color.FgYellow)
	toolColor  = color.New(color.FgGreen)
	errColor   = color.New(color.FgRed)
)

func main() {
	baseURL := flag.String("url", "http://localhost:3000/api", "API base URL")
	flag.Parse()

	sessionId := "sim-" + uuid.NewString()
	fmt.Println("=== Consulting Chat Simulation ===")
	fmt.Printf("Session: %s\n", sessionId)

	// each turn accepts the first suggestion so the next turn never sees it again
	lastTool := ""
	script := []string{
		"Hi there",
		"I'm the CTO at Acme Robotics, how much does pricing look like?",
		"We have 40 engineers and a budget of $50k, reach me at cto@acme.io",
		"Can we book a demo next week?",
		"Great, thanks",
	}

	for _, text := range script {
		userColor.Printf("\nUSER: %s\n", text)

		start := time.Now()
		res, err := sendTurn(*baseURL, chatTurnRequest{SessionId: sessionId, Message: text, ToolUsed: lastTool})
		elapsed := time.Since(start)
		if err != nil {
			errColor.Printf("Error: %v\n", err)
			continue
		}

		fmt.Printf("intent=%s (%.2f) slots=%v [%v]\n", res.Intent.Type, res.Intent.Confidence, res.Intent.Slots, elapsed)
		stageColor.Printf("stage %s -> %s\n", res.StageFrom, res.StageTo)

		ids := make([]string, 0, len(res.Suggestions))
		for _, s := range res.Suggestions {
			ids = append(ids, fmt.Sprintf("%s(%.3f)", s.ID, s.Score))
		}
		toolColor.Printf("suggest: %s\n", strings.Join(ids, ", "))

		lastTool = ""
		if len(res.Suggestions) > 0 {
			lastTool = res.Suggestions[0].ID
		}

		// capability recording is asynchronous on the server
		time.Sleep(200 * time.Millisecond)
	}
}

func sendTurn(baseURL string, payload chatTurnRequest) (*chatTurnResponse, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(baseURL+"/chat/turn", "application/json", bytes.NewBuffer(jsonBytes))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API Error %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	var res chatTurnResponse
	if err := json.Unmarshal(env.Data, &res); err != nil {
		log.Printf("unexpected payload: %s", env.Data)
		return nil, err
	}
	return &res, nil
}
