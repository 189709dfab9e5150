package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mooselang/moose/channel"
	"github.com/mooselang/moose/kernel"
)

// HTTPParty dispatches RunComputation to a remote party's
// cmd/mooseparty daemon over HTTP, generalized from channel.Net's own
// "plain length-prefixed HTTP body" convention (itself grounded on
// tenant/tnproto.Remote's Net/Addr dial-target fields).
type HTTPParty struct {
	Name   string
	Addr   string // base URL of the party's run endpoint, e.g. "https://bob.example:8443"
	Client *http.Client
}

func (p *HTTPParty) Party() string { return p.Name }

func (p *HTTPParty) client() *http.Client {
	if p.Client != nil {
		return p.Client
	}
	return http.DefaultClient
}

func (p *HTTPParty) RunComputation(ctx context.Context, req RunComputationRequest) error {
	v := url.Values{}
	v.Set("role", req.Role)
	v.Set("session", strconv.FormatUint(uint64(req.SessionID), 10))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Addr+"/run?"+v.Encode(), bytes.NewReader(req.ComputationBytes))
	if err != nil {
		return err
	}
	resp, err := p.client().Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("runtime: RunComputation on %s failed: %s: %s", req.Role, resp.Status, body)
	}
	return nil
}

// PartyServer is the HTTP counterpart HTTPParty dials: it accepts a
// posted computation, runs it through a LocalParty exactly as the
// in-process simulation does, and blocks the HTTP response on
// completion. cmd/mooseparty registers a PartyServer's ServeHTTP at
// "/run".
type PartyServer struct {
	Name     string
	Registry *kernel.Registry
	Channel  channel.Manager
	Storage  Storage
	Logf     func(format string, args ...any)
}

func (s *PartyServer) local() *LocalParty {
	return &LocalParty{Name: s.Name, Registry: s.Registry, Channel: s.Channel, Storage: s.Storage, Logf: s.Logf}
}

func (s *PartyServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	role := r.URL.Query().Get("role")
	if role != "" && role != s.Name {
		http.Error(w, fmt.Sprintf("runtime: this party is %q, not %q", s.Name, role), http.StatusBadRequest)
		return
	}
	sessionID, err := strconv.ParseUint(r.URL.Query().Get("session"), 10, 32)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := RunComputationRequest{ComputationBytes: body, Role: s.Name, SessionID: uint32(sessionID)}
	if err := s.local().RunComputation(r.Context(), req); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
