package notion

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
)

const callbackPage = `<html><body><h1>%s</h1><p>%s</p><p>You can close this window.</p></body></html>`

// CallbackServer receives the OAuth redirect on localhost
type CallbackServer struct {
	listener net.Listener
	once     sync.Once
	done     chan struct{}
	code     string
	err      error
}

// NewCallbackServer creates a new callback server. Port 0 picks a free port.
func NewCallbackServer(port int) (*CallbackServer, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	return &CallbackServer{
		listener: listener,
		done:     make(chan struct{}),
	}, nil
}

// Port returns the actual port the server is listening on
func (s *CallbackServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// RedirectURI returns the redirect URI to register with the OAuth client
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", s.Port())
}

// Wait serves the callback endpoint until one callback arrives or ctx ends
func (s *CallbackServer) Wait(ctx context.Context, expectedState string) (string, error) {
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/callback" {
				http.NotFound(w, r)
				return
			}
			code, err := readCallback(r, expectedState)
			w.Header().Set("Content-Type", "text/html")
			if err != nil {
				fmt.Fprintf(w, callbackPage, "Authentication Failed", err.Error())
			} else {
				fmt.Fprintf(w, callbackPage, "Authentication Successful!", "Return to the terminal.")
			}
			s.once.Do(func() {
				s.code, s.err = code, err
				close(s.done)
			})
		}),
	}

	go func() {
		_ = server.Serve(s.listener)
	}()
	defer server.Shutdown(context.Background())

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.done:
		return s.code, s.err
	}
}

func readCallback(r *http.Request, expectedState string) (string, error) {
	query := r.URL.Query()
	if errCode := query.Get("error"); errCode != "" {
		return "", fmt.Errorf("OAuth error: %s", errCode)
	}
	if expectedState != "" && query.Get("state") != expectedState {
		return "", fmt.Errorf("state mismatch")
	}
	code := query.Get("code")
	if code == "" {
		return "", fmt.Errorf("no authorization code received")
	}
	return code, nil
}

// Close closes the callback server
func (s *CallbackServer) Close() error {
	return s.listener.Close()
}
