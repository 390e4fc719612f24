package usecase

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"TradeCouncil/internal/domain/models"
)

// MessageData is the template input used to build a peer message.
type MessageData struct {
	Ticker string
	Market string
}

type registeredPeer struct {
	peer models.Peer
	tmpl *template.Template
}

// PeerRegistry is the validated, immutable set of peers queried per round.
type PeerRegistry struct {
	peers []registeredPeer
}

// NewPeerRegistry validates every peer and compiles its message template.
// Any invalid entry fails the whole registry.
func NewPeerRegistry(peers []models.Peer) (*PeerRegistry, error) {
	if len(peers) == 0 {
		return nil, fmt.Errorf("peer registry: no peers configured")
	}
	seen := make(map[string]bool, len(peers))
	owner := make(map[string]string, len(peers))
	out := make([]registeredPeer, 0, len(peers))
	for _, p := range peers {
		if p.Name == "" {
			return nil, fmt.Errorf("peer registry: peer without name")
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("peer registry: duplicate peer %q", p.Name)
		}
		seen[p.Name] = true

		u, err := url.Parse(p.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("peer registry: peer %q has invalid url %q", p.Name, p.URL)
		}
		if p.Category == "" {
			return nil, fmt.Errorf("peer registry: peer %q has no category", p.Name)
		}
		if !knownCategory(p.Category) {
			return nil, fmt.Errorf("peer registry: peer %q has unknown category %q", p.Name, p.Category)
		}
		if prev, dup := owner[p.Category]; dup {
			return nil, fmt.Errorf("peer registry: peers %q and %q share category %q", prev, p.Name, p.Category)
		}
		owner[p.Category] = p.Name

		text := p.Template
		if strings.TrimSpace(text) == "" {
			text = "{{.Ticker}}"
		}
		tmpl, err := template.New(p.Name).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("peer registry: peer %q template: %w", p.Name, err)
		}
		out = append(out, registeredPeer{peer: p, tmpl: tmpl})
	}
	return &PeerRegistry{peers: out}, nil
}

func knownCategory(c string) bool {
	for _, known := range models.Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Peers returns the registered peers in configuration order.
func (r *PeerRegistry) Peers() []models.Peer {
	out := make([]models.Peer, len(r.peers))
	for i, rp := range r.peers {
		out[i] = rp.peer
	}
	return out
}

// Lookup finds a peer by name.
func (r *PeerRegistry) Lookup(name string) (models.Peer, bool) {
	for _, rp := range r.peers {
		if rp.peer.Name == name {
			return rp.peer, true
		}
	}
	return models.Peer{}, false
}

// Len returns the number of peers.
func (r *PeerRegistry) Len() int { return len(r.peers) }

func (rp registeredPeer) message(inst models.Instrument) (string, error) {
	var buf bytes.Buffer
	err := rp.tmpl.Execute(&buf, MessageData{Ticker: inst.Symbol, Market: string(inst.Market)})
	if err != nil {
		return "", fmt.Errorf("render message for %s: %w", rp.peer.Name, err)
	}
	return buf.String(), nil
}
