package stream

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"coinpulse/internal/domain"

	"github.com/gorilla/websocket"
)

// ErrManagerClosed is returned by Subscribe after Close.
var ErrManagerClosed = errors.New("stream: manager closed")

// Sink receives parsed ticks; the TickBuffer implements it.
type Sink interface {
	Record(assetID string, tick domain.Tick)
}

var dialWebsocket = func(ctx context.Context, url string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	return conn, err
}

// Manager owns at most one streaming connection for its consumer scope.
// Changing the subscribed asset set replaces the connection outright: the
// feed encodes the symbol set in the URL, so there is no incremental
// subscribe primitive to use.
//
// The generation counter fences replaced connections: a read loop or retry
// timer belonging to an older generation exits without side effects.
type Manager struct {
	baseURL   string
	sink      Sink
	baseDelay time.Duration
	maxDelay  time.Duration

	mu         sync.Mutex
	ctx        context.Context
	conn       *websocket.Conn
	state      domain.ConnectionState
	attempt    int
	gen        int
	symbols    []string
	retryTimer *time.Timer
	closed     bool
}

// NewManager creates a manager dialing against baseURL (scheme + host,
// e.g. "wss://stream.binance.com:9443") and forwarding ticks to sink.
func NewManager(baseURL string, sink Sink, baseDelay, maxDelay time.Duration) *Manager {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay < baseDelay {
		maxDelay = 30 * time.Second
	}
	return &Manager{
		baseURL:   baseURL,
		sink:      sink,
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
		state:     domain.Disconnected,
	}
}

// Subscribe replaces the current subscription with the given asset set and
// returns immediately; the connection is established in the background.
// Assets with no feed symbol are skipped and simply receive no live data.
func (m *Manager) Subscribe(ctx context.Context, assetIDs []string) error {
	symbols := resolveSymbols(assetIDs)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.ctx = ctx
	m.symbols = symbols
	m.stopRetryLocked()
	m.closeConnLocked()
	m.gen++
	m.attempt = 0

	if len(symbols) == 0 {
		m.state = domain.Disconnected
		m.mu.Unlock()
		log.Println("stream: no live feed symbols in subscription, staying disconnected")
		return nil
	}

	m.state = domain.Connecting
	gen := m.gen
	m.mu.Unlock()

	go m.connect(gen)
	return nil
}

// Close tears the connection down and cancels any pending reconnect.
// Safe to call more than once and on every exit path.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.stopRetryLocked()
	m.closeConnLocked()
	m.state = domain.Disconnected
}

// State reports the connection state and the current reconnect attempt.
func (m *Manager) State() (domain.ConnectionState, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.attempt
}

func (m *Manager) connect(gen int) {
	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	ctx := m.ctx
	url := m.baseURL + streamPath(m.symbols)
	m.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := dialWebsocket(ctx, url)

	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		log.Printf("stream: dial failed: %v", err)
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		return
	}
	m.conn = conn
	m.state = domain.Connected
	m.attempt = 0
	m.mu.Unlock()

	go m.readLoop(conn, gen)
}

func (m *Manager) readLoop(conn *websocket.Conn, gen int) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.handleDisconnect(gen, err)
			return
		}

		assetID, tick, perr := parseTickerMessage(raw)
		if perr != nil {
			log.Printf("stream: dropping message: %v", perr)
			continue
		}
		m.sink.Record(assetID, tick)
	}
}

func (m *Manager) handleDisconnect(gen int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || gen != m.gen {
		return
	}
	log.Printf("stream: connection lost: %v", err)
	m.closeConnLocked()
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the retry timer. Retries are unlimited: a
// lost feed degrades to baseline data, it is never a terminal failure.
func (m *Manager) scheduleReconnectLocked() {
	m.attempt++
	m.state = domain.Reconnecting
	delay := backoffDelay(m.baseDelay, m.maxDelay, m.attempt)
	log.Printf("stream: reconnecting in %v (attempt %d)", delay, m.attempt)

	// A fired timer can lose the Stop race against Subscribe and only
	// then take the lock, so the callback re-checks the generation it was
	// armed for and the current symbol set before dialing.
	armed := m.gen
	m.retryTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		if m.closed || armed != m.gen || len(m.symbols) == 0 {
			m.mu.Unlock()
			return
		}
		m.retryTimer = nil
		m.gen++
		gen := m.gen
		m.state = domain.Connecting
		m.mu.Unlock()

		m.connect(gen)
	})
}

func (m *Manager) stopRetryLocked() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
}

func (m *Manager) closeConnLocked() {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}

// backoffDelay grows base * 2^(attempt-1) up to max, with ±20% jitter so
// reconnecting clients do not stampede the feed in lockstep.
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			d = max
			break
		}
	}
	jitter := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(d) * jitter)
}

func resolveSymbols(assetIDs []string) []string {
	symbols := make([]string, 0, len(assetIDs))
	seen := make(map[string]bool, len(assetIDs))
	for _, assetID := range assetIDs {
		symbol, ok := domain.FeedSymbol(assetID)
		if !ok || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
