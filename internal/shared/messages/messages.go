package messages

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

type MessageText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Render replaces {name} placeholders in the title and body.
func (m MessageText) Render(vars map[string]string) MessageText {
	if len(vars) == 0 {
		return m
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	return MessageText{Title: r.Replace(m.Title), Body: r.Replace(m.Body)}
}

type Messages struct {
	TransferSent     MessageText `json:"transfer_sent"`
	TransferReceived MessageText `json:"transfer_received"`
	BankLinked       MessageText `json:"bank_linked"`
}

// Defaults is used when no catalog file is configured.
func Defaults() *Messages {
	return &Messages{
		TransferSent: MessageText{
			Title: "Transfer sent",
			Body:  "You sent ${amount} to {name}.",
		},
		TransferReceived: MessageText{
			Title: "Money received",
			Body:  "{name} sent you ${amount}.",
		},
		BankLinked: MessageText{
			Title: "Bank connected",
			Body:  "{bank} is now linked to your account.",
		},
	}
}

var (
	loaded   *Messages
	loadOnce sync.Once
	loadErr  error
)

// Load reads the notifications JSON file and caches the result.
// Safe to call from multiple goroutines. A missing file yields Defaults.
func Load(path string) (*Messages, error) {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			loaded = Defaults()
			return
		}
		if err != nil {
			loadErr = fmt.Errorf("failed to read messages file: %w", err)
			return
		}
		loaded, loadErr = Parse(data)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return loaded, nil
}

// Parse decodes a catalog; entries absent from data keep their default text.
func Parse(data []byte) (*Messages, error) {
	m := Defaults()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse messages file: %w", err)
	}
	return m, nil
}
