// Command smoke walks a running server through the main API flow and
// reports each step.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type client struct {
	baseURL string
	http    *http.Client
}

// Request helper
func (c *client) send(method, path, token string, body interface{}) (int, envelope, error) {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, envelope{}, err
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, envelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, envelope{}, err
	}
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, env, err
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return resp.StatusCode, env, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return resp.StatusCode, env, nil
}

type step struct {
	name   string
	method string
	path   func() string
	token  func() string
	body   func() interface{}
	want   int
	after  func(data json.RawMessage) error
}

func runSmoke(c *client) error {
	var accessToken, refreshToken, sessionId string
	email := fmt.Sprintf("smoke-%s@example.com", uuid.NewString()[:8])
	none := func() string { return "" }
	access := func() string { return accessToken }
	fixed := func(p string) func() string { return func() string { return p } }

	steps := []step{
		{name: "Health", method: http.MethodGet, path: fixed("/health"), token: none, want: 200},
		{name: "Welcome", method: http.MethodGet, path: fixed("/chat/welcome"), token: none, want: 200},
		{
			name: "Register", method: http.MethodPost, path: fixed("/auth/register"), token: none, want: 201,
			body: func() interface{} { return map[string]string{"email": email, "password": "smoke-pass-1"} },
			after: func(data json.RawMessage) error {
				var res struct {
					AccessToken  string `json:"access_token"`
					RefreshToken string `json:"refresh_token"`
				}
				if err := json.Unmarshal(data, &res); err != nil {
					return err
				}
				accessToken, refreshToken = res.AccessToken, res.RefreshToken
				return nil
			},
		},
		{
			name: "Duplicate register", method: http.MethodPost, path: fixed("/auth/register"), token: none, want: 400,
			body: func() interface{} { return map[string]string{"email": email, "password": "smoke-pass-1"} },
		},
		{name: "Me", method: http.MethodGet, path: fixed("/auth/me"), token: access, want: 200},
		{
			name: "Chat (new session)", method: http.MethodPost, path: fixed("/chat/message"), token: access, want: 200,
			body: func() interface{} { return map[string]string{"message": "Explain binary search in one sentence."} },
			after: func(data json.RawMessage) error {
				var res struct {
					Response  string `json:"response"`
					SessionId string `json:"session_id"`
				}
				if err := json.Unmarshal(data, &res); err != nil {
					return err
				}
				sessionId = res.SessionId
				color.White("    %s", res.Response)
				return nil
			},
		},
		{
			name: "Chat (same session)", method: http.MethodPost, path: fixed("/chat/message"), token: access, want: 200,
			body: func() interface{} {
				return map[string]string{"message": "And its time complexity?", "session_id": sessionId}
			},
		},
		{name: "List sessions", method: http.MethodGet, path: fixed("/sessions"), token: access, want: 200},
		{name: "Get session", method: http.MethodGet, path: func() string { return "/sessions/" + sessionId }, token: access, want: 200},
		{name: "History", method: http.MethodGet, path: fixed("/chat/history"), token: access, want: 200},
		{
			name: "Anonymous chat", method: http.MethodPost, path: fixed("/chat/message/anonymous"), token: none, want: 200,
			body: func() interface{} { return map[string]string{"message": "What is a hash table?"} },
		},
		{name: "Refresh", method: http.MethodPost, path: fixed("/auth/refresh"), token: func() string { return refreshToken }, want: 200},
		{name: "Delete session", method: http.MethodDelete, path: func() string { return "/sessions/" + sessionId }, token: access, want: 200},
		{name: "Deleted session is gone", method: http.MethodGet, path: func() string { return "/sessions/" + sessionId }, token: access, want: 404},
		{
			name: "Logout", method: http.MethodPost, path: fixed("/auth/logout"), token: none, want: 200,
			body: func() interface{} { return map[string]string{"refresh_token": refreshToken} },
		},
		{name: "Refresh after logout", method: http.MethodPost, path: fixed("/auth/refresh"), token: func() string { return refreshToken }, want: 401},
	}

	failed := 0
	for i, s := range steps {
		color.Yellow("\n[%02d] %s", i+1, s.name)

		var body interface{}
		if s.body != nil {
			body = s.body()
		}
		status, env, err := c.send(s.method, s.path(), s.token(), body)
		if err != nil {
			color.Red("    Failed: %v", err)
			failed++
			continue
		}
		if status != s.want {
			color.Red("    Status %d, want %d: %s", status, s.want, env.Message)
			failed++
			continue
		}
		color.Green("    Status: %d %s", status, env.Message)

		if s.after != nil {
			if err := s.after(env.Data); err != nil {
				color.Red("    Failed: %v", err)
				failed++
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(steps))
	}
	color.Cyan("\n✅ All %d steps passed", len(steps))
	return nil
}

func main() {
	var baseURL string
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:           "smoke",
		Short:         "Run an end-to-end check against a running BitBraniac server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			color.Cyan("🚀 Smoke testing %s", baseURL)
			return runSmoke(&client{baseURL: baseURL, http: &http.Client{Timeout: timeout}})
		},
	}
	rootCmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:5000/api", "API base URL")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 90*time.Second, "per-request timeout")

	if err := rootCmd.Execute(); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}
