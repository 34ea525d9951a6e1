// Package aitest fakes the chat-completions endpoint for tests.
package aitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Reply is what the fake provider answers to one request.
// A Status of 0 means 200 with Content as the assistant message.
type Reply struct {
	Status  int
	Content string
}

// Request is the part of a chat request tests usually assert on.
type Request struct {
	Model          string
	System         string
	User           string
	ResponseFormat string
}

// Provider is an httptest server speaking the chat-completions wire format.
type Provider struct {
	*httptest.Server

	mu       sync.Mutex
	respond  func(Request) Reply
	requests []Request
}

// NewProvider starts a provider answering every request with respond.
// Point the client at BaseURL().
func NewProvider(respond func(Request) Reply) *Provider {
	p := &Provider{respond: respond}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", p.handle)
	p.Server = httptest.NewServer(mux)
	return p
}

// Fixed answers every request with the same content.
func Fixed(content string) *Provider {
	return NewProvider(func(Request) Reply { return Reply{Content: content} })
}

// Failing answers every request with the given HTTP status.
func Failing(status int) *Provider {
	return NewProvider(func(Request) Reply { return Reply{Status: status} })
}

func (p *Provider) BaseURL() string {
	return p.URL + "/v1"
}

// Requests returns the requests seen so far.
func (p *Provider) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func (p *Provider) handle(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := Request{Model: body.Model}
	for _, m := range body.Messages {
		switch m.Role {
		case "system":
			req.System = m.Content
		case "user":
			req.User = m.Content
		}
	}
	if body.ResponseFormat != nil {
		req.ResponseFormat = body.ResponseFormat.Type
	}

	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	reply := p.respond(req)
	w.Header().Set("Content-Type", "application/json")

	if reply.Status != 0 && reply.Status != http.StatusOK {
		w.WriteHeader(reply.Status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "fake provider failure", "type": "server_error"},
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   body.Model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": reply.Content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 11, "completion_tokens": 22, "total_tokens": 33},
	})
}
