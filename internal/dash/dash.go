package dash

import (
	"context"
	"encoding/json"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/evaluator"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/ledger"
	"github.com/Alcrataz/drosera-ArbitrageDetectorTrap/internal/types"
)

// SourceRow is one venue in the rendered state.
type SourceRow struct {
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Liquidity float64 `json:"liquidity"`
}

// State is the last cycle as shown on the dashboard.
type State struct {
	Height   uint64      `json:"height"`
	GapBps   uint64      `json:"gapBps"`
	Accepted bool        `json:"accepted"`
	Reason   string      `json:"reason,omitempty"`
	Profit   float64     `json:"profit"`
	Sources  []SourceRow `json:"sources"`
	TS       int64       `json:"ts"`
}

type Store struct {
	mu    sync.RWMutex
	state State
	led   *ledger.Ledger

	connMu sync.Mutex
	conns  map[*websocket.Conn]struct{}
}

func NewStore(led *ledger.Ledger) *Store {
	return &Store{
		led:   led,
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Update refreshes the state from the last cycle and pushes it to every
// connected websocket client.
func (s *Store) Update(obs types.Observation, rep evaluator.Report) {
	rows := make([]SourceRow, 0, types.SourceCount)
	for i := range obs.Sources {
		rows = append(rows, SourceRow{
			Name:      obs.Sources[i].Name,
			Price:     toFloat(obs.Sources[i].Price),
			Liquidity: toFloat(obs.Sources[i].TotalLiquidity),
		})
	}
	st := State{
		Height:   obs.Height,
		GapBps:   rep.GapBps,
		Accepted: rep.Accepted,
		Reason:   rep.Reason,
		Profit:   toFloat(rep.Profit),
		Sources:  rows,
		TS:       time.Now().UnixMilli(),
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.broadcast(st)
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) broadcast(st State) {
	payload, err := json.Marshal(st)
	if err != nil {
		return
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for c := range s.conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = c.Close()
			delete(s.conns, c)
		}
	}
}

// toFloat renders an 18-dec fixed-point value as whole units, for
// display only.
func toFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f := new(big.Float).SetInt(v)
	f.Quo(f, big.NewFloat(math.Pow10(18)))
	out, _ := f.Float64()
	return out
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler builds the dashboard routes: JSON state and opportunity
// endpoints, a websocket push of every cycle, and a static page on /.
func Handler(s *Store, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.State())
	})
	mux.HandleFunc("/api/opps", func(w http.ResponseWriter, r *http.Request) {
		n := 50
		if q := r.URL.Query().Get("n"); q != "" {
			if v, err := strconv.Atoi(q); err == nil && v > 0 {
				n = v
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Records []types.OpportunityRecord `json:"records"`
			Metrics ledger.Metrics            `json:"metrics"`
		}{
			Records: s.led.Recent(n),
			Metrics: s.led.PerformanceMetrics(),
		})
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("ws upgrade failed", zap.Error(err))
			return
		}
		s.connMu.Lock()
		s.conns[conn] = struct{}{}
		s.connMu.Unlock()
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})
	return withCORS(mux)
}

// StartHTTP serves the dashboard until the context is cancelled.
func StartHTTP(ctx context.Context, s *Store, addr string, log *zap.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(s, log),
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() { <-ctx.Done(); _ = srv.Close() }()

	go func() {
		log.Info("dash listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("dash http server error", zap.Error(err))
		}
	}()
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const indexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  <title>Arbitrage Detector</title>
  <style>
    body{margin:0;background:#f8fafc;font:14px/1.4 ui-sans-serif,system-ui;color:#111827;}
    .wrap{max-width:920px;margin:24px auto;padding:0 16px;}
    table{width:100%;border-collapse:collapse;background:#fff;border-radius:12px;overflow:hidden;box-shadow:0 8px 24px rgba(0,0,0,.06);margin-bottom:16px;}
    thead{background:#f3f4f6;} th,td{padding:10px 12px;text-align:left;} tbody tr{border-top:1px solid #f3f4f6;}
    .pill{display:inline-block;font-size:12px;padding:2px 8px;border-radius:999px;}
    .ok{background:#dcfce7;color:#166534;} .bad{background:#fee2e2;color:#991b1b;}
    .sub{color:#6b7280;font-size:12px;}
  </style>
</head>
<body>
<div class="wrap">
  <h1 style="font-size:20px">Arbitrage Detector</h1>
  <p class="sub">height <span id="height">—</span> · gap <span id="gap">—</span> bps · <span id="decision" class="pill bad">—</span></p>
  <table>
    <thead><tr><th>Source</th><th>Price</th><th>Liquidity</th></tr></thead>
    <tbody id="sources"></tbody>
  </table>
  <h2 style="font-size:16px">Recent opportunities</h2>
  <table>
    <thead><tr><th>ID</th><th>Buy</th><th>Sell</th><th>Gap (bps)</th><th>Profit</th><th>Height</th><th>Executed</th></tr></thead>
    <tbody id="opps"></tbody>
  </table>
</div>
<script>
  function render(st){
    document.getElementById('height').textContent = st.height;
    document.getElementById('gap').textContent = st.gapBps;
    var d = document.getElementById('decision');
    d.textContent = st.accepted ? 'accepted' : (st.reason || 'rejected');
    d.className = 'pill ' + (st.accepted ? 'ok' : 'bad');
    document.getElementById('sources').innerHTML = (st.sources||[]).map(function(s){
      return '<tr><td>'+s.name+'</td><td>'+s.price.toFixed(2)+'</td><td>'+s.liquidity.toLocaleString()+'</td></tr>';
    }).join('');
  }
  async function opps(){
    var res = await fetch('/api/opps?n=20', {cache:'no-store'});
    if(!res.ok) return;
    var data = await res.json();
    document.getElementById('opps').innerHTML = (data.records||[]).map(function(r){
      return '<tr><td>'+r.id+'</td><td>'+r.buySource+'</td><td>'+r.sellSource+'</td><td>'+r.diffBps+'</td><td>'+r.profit+'</td><td>'+r.height+'</td><td>'+(r.executed?'yes':'no')+'</td></tr>';
    }).join('');
  }
  var ws = new WebSocket((location.protocol==='https:'?'wss://':'ws://')+location.host+'/ws');
  ws.onmessage = function(ev){ render(JSON.parse(ev.data)); opps(); };
  fetch('/api/state').then(function(r){return r.json()}).then(render);
  opps(); setInterval(opps, 5000);
</script>
</body>
</html>`
