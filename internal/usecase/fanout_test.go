package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeCouncil/internal/domain/models"
)

func TestPeerRegistryRejectsBadConfig(t *testing.T) {
	_, err := NewPeerRegistry(nil)
	assert.Error(t, err)

	peers := testPeers()
	peers[1].Name = peers[0].Name
	_, err = NewPeerRegistry(peers)
	assert.ErrorContains(t, err, "duplicate")

	peers = testPeers()
	peers[2].URL = "localhost:8003"
	_, err = NewPeerRegistry(peers)
	assert.ErrorContains(t, err, "invalid url")

	peers = testPeers()
	peers[3].Template = "{{.Ticker"
	_, err = NewPeerRegistry(peers)
	assert.ErrorContains(t, err, "template")

	peers = testPeers()
	peers[0].Category = models.CategoryTechnical
	_, err = NewPeerRegistry(peers)
	assert.ErrorContains(t, err, "share category")

	peers = testPeers()
	peers[3].Category = "sentiment"
	_, err = NewPeerRegistry(peers)
	assert.ErrorContains(t, err, "unknown category")

	peers = testPeers()
	peers[4].Category = ""
	_, err = NewPeerRegistry(peers)
	assert.ErrorContains(t, err, "no category")
}

func TestPeerRegistryRendersMessages(t *testing.T) {
	reg, err := NewPeerRegistry(testPeers())
	require.NoError(t, err)
	assert.Equal(t, 5, reg.Len())

	p, found := reg.Lookup("risk_agent")
	require.True(t, found)
	assert.Equal(t, models.CategoryRisk, p.Category)

	msg, err := reg.peers[0].message(models.Instrument{Symbol: "AAPL", Market: models.MarketForeign})
	require.NoError(t, err)
	assert.Equal(t, "news AAPL (US)", msg)
}

func TestFanOutPartialFailures(t *testing.T) {
	reg, err := NewPeerRegistry(testPeers())
	require.NoError(t, err)

	var mu sync.Mutex
	messages := map[string]string{}
	caller := callerFunc(func(ctx context.Context, peer models.Peer, msg string) models.PeerCallResult {
		mu.Lock()
		messages[peer.Name] = msg
		mu.Unlock()
		switch peer.Name {
		case "news_agent", "expert_agent":
			return errResult(models.ErrorKindTimeout)
		default:
			return okResult("hold")
		}
	})

	out, err := NewFanOut(reg, caller, nil).Analyze(context.Background(), models.Instrument{Symbol: "MSFT", Market: models.MarketForeign})
	require.NoError(t, err)

	assert.Equal(t, 3, out.SuccessCount)
	assert.Equal(t, 5, out.TotalCount)
	require.Len(t, out.PeerResults, 5)
	assert.Equal(t, models.ErrorKindTimeout, out.PeerResults["news_agent"].Kind)
	assert.Equal(t, models.CategoryNews, out.PeerResults["news_agent"].Category)
	assert.True(t, out.PeerResults["risk_agent"].OK())
	assert.Equal(t, "risk MSFT", messages["risk_agent"])

	ok := out.Successful()
	assert.Len(t, ok, 3)
	assert.Contains(t, ok, models.CategoryTechnical)
}

func TestFanOutRunsConcurrently(t *testing.T) {
	reg, err := NewPeerRegistry(testPeers())
	require.NoError(t, err)

	// Every call waits until all five are in flight.
	var arrived int32
	all := make(chan struct{})
	caller := callerFunc(func(ctx context.Context, peer models.Peer, msg string) models.PeerCallResult {
		if atomic.AddInt32(&arrived, 1) == 5 {
			close(all)
		}
		select {
		case <-all:
			return okResult("buy")
		case <-time.After(2 * time.Second):
			return errResult(models.ErrorKindTimeout)
		}
	})

	out, err := NewFanOut(reg, caller, nil).Analyze(context.Background(), models.Instrument{Symbol: "A"})
	require.NoError(t, err)
	assert.Equal(t, 5, out.SuccessCount)
}

func TestFanOutRecoversPanickingCaller(t *testing.T) {
	reg, err := NewPeerRegistry(testPeers())
	require.NoError(t, err)

	caller := callerFunc(func(ctx context.Context, peer models.Peer, msg string) models.PeerCallResult {
		if peer.Name == "technical_agent" {
			panic("boom")
		}
		return okResult("sell")
	})

	out, err := NewFanOut(reg, caller, nil).Analyze(context.Background(), models.Instrument{Symbol: "A"})
	require.NoError(t, err)
	assert.Equal(t, 4, out.SuccessCount)
	assert.Equal(t, models.StatusError, out.PeerResults["technical_agent"].Status)
}

func TestFanOutAllFail(t *testing.T) {
	reg, err := NewPeerRegistry(testPeers())
	require.NoError(t, err)
	caller := callerFunc(func(context.Context, models.Peer, string) models.PeerCallResult {
		return errResult(models.ErrorKindConnect)
	})

	out, err := NewFanOut(reg, caller, nil).Analyze(context.Background(), models.Instrument{Symbol: "A"})
	require.NoError(t, err)
	assert.Zero(t, out.SuccessCount)
	assert.Equal(t, 5, out.TotalCount)
	assert.Empty(t, out.Successful())
}
