package channel

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Net is the networked Manager: Send POSTs the value to the receiving
// party's HTTP endpoint, and Receive long-polls the local endpoint a
// peer posts to. It is grounded on tenant/tnproto.Remote's Net/Addr
// dial-target fields, simplified from that package's ion-framed RPC to
// a plain length-prefixed HTTP body — the spec requires the channel's
// send/receive semantics, not a specific wire format (spec.md §4.6).
type Net struct {
	// Addrs maps a party name to the base URL of its channel HTTP
	// endpoint, e.g. "https://bob.example:8443".
	Addrs map[string]string

	// Client is used for outgoing Send requests; http.DefaultClient if
	// nil.
	Client *http.Client

	local Memory
}

func (n *Net) client() *http.Client {
	if n.Client != nil {
		return n.Client
	}
	return http.DefaultClient
}

// Send delivers value to key.Receiver over HTTP.
func (n *Net) Send(ctx context.Context, key Key, value []byte) error {
	base, ok := n.Addrs[key.Receiver]
	if !ok {
		return fmt.Errorf("channel: no address registered for party %q", key.Receiver)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/rendezvous?"+key.query(), bytes.NewReader(value))
	if err != nil {
		return err
	}
	resp, err := n.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("channel: send to %s failed: %s: %s", key.Receiver, resp.Status, body)
	}
	return nil
}

// Receive blocks until a matching value has arrived via ServeHTTP.
func (n *Net) Receive(ctx context.Context, key Key) ([]byte, error) {
	return n.local.Receive(ctx, key)
}

// EndSession releases local rendezvous state for session; it does not
// notify peers, which release their own state independently when they
// end the same session.
func (n *Net) EndSession(session uint32) {
	n.local.EndSession(session)
}

// ServeHTTP accepts an inbound Send from a peer and fulfils the
// matching local Receive.
func (n *Net) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	key, err := parseKey(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	value, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := n.local.Send(r.Context(), key, value); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (k Key) query() string {
	v := url.Values{}
	v.Set("session", strconv.FormatUint(uint64(k.Session), 10))
	v.Set("sender", k.Sender)
	v.Set("receiver", k.Receiver)
	v.Set("rendezvous_key", k.RendezvousKey)
	return v.Encode()
}

func parseKey(v url.Values) (Key, error) {
	session, err := strconv.ParseUint(v.Get("session"), 10, 32)
	if err != nil {
		return Key{}, fmt.Errorf("channel: invalid session id: %w", err)
	}
	return Key{
		Session:       uint32(session),
		Sender:        v.Get("sender"),
		Receiver:      v.Get("receiver"),
		RendezvousKey: v.Get("rendezvous_key"),
	}, nil
}
