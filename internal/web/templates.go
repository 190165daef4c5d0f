package web

import (
	"html/template"
	"sync"
	"time"

	"github.com/user/wifipilot/internal/model"
)

var dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>WiFi Pilot Dashboard</title>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }

        :root {
            --bg-primary: #0a0f0a;
            --bg-card: rgba(0, 40, 0, 0.4);
            --border-color: #1a4a1a;
            --text-primary: #00ff41;
            --text-secondary: #00cc33;
            --text-dim: #336633;
            --accent: #00ff41;
            --accent-glow: rgba(0, 255, 65, 0.3);
            --danger: #ff3333;
            --warn: #ffaa00;
        }

        body {
            font-family: 'Courier New', monospace;
            background: var(--bg-primary);
            color: var(--text-primary);
            min-height: 100vh;
            padding: 1.5rem;
        }

        .container { max-width: 1200px; margin: 0 auto; }

        header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 1.5rem;
            padding-bottom: 1rem;
            border-bottom: 1px solid var(--border-color);
        }

        h1 { font-size: 1.6rem; color: var(--accent); text-shadow: 0 0 10px var(--accent-glow); letter-spacing: 3px; }
        h2 { font-size: 1rem; color: var(--text-secondary); margin-bottom: 0.75rem; text-transform: uppercase; }

        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(320px, 1fr)); gap: 1rem; margin-bottom: 1rem; }
        .card { background: var(--bg-card); border: 1px solid var(--border-color); border-radius: 6px; padding: 1rem; }
        .stat-row { display: flex; justify-content: space-between; padding: 0.25rem 0; }
        .stat-label { color: var(--text-dim); }
        .status-badge { padding: 0.1rem 0.5rem; border-radius: 3px; font-size: 0.8rem; }
        .status-running { background: rgba(0,255,65,0.15); color: var(--accent); }
        .status-stopped { background: rgba(255,51,51,0.15); color: var(--danger); }
        .reason { font-size: 1.1rem; margin: 0.5rem 0; }
        .warn { color: var(--warn); }
        table { width: 100%; border-collapse: collapse; font-size: 0.85rem; }
        th, td { text-align: left; padding: 0.3rem; border-bottom: 1px solid var(--border-color); }
        th { color: var(--text-dim); }
        .empty-state { color: var(--text-dim); }
        button { background: none; border: 1px solid var(--border-color); color: var(--text-primary); cursor: pointer; padding: 0.1rem 0.4rem; font-family: inherit; }
        input { background: var(--bg-primary); border: 1px solid var(--border-color); color: var(--text-primary); padding: 0.2rem; font-family: inherit; }
        a { color: var(--text-secondary); }
    </style>
</head>
<body>
<div class="container">
    <header>
        <h1>WIFI PILOT</h1>
        <div>
            {{if .DaemonRunning}}<span class="status-badge status-running">Daemon running</span>{{else}}<span class="status-badge status-stopped">Daemon stopped</span>{{end}}
            {{if .UpdatedAt}}<span class="stat-label">updated {{.UpdatedAt}}</span>{{end}}
            <a href="/report">report</a>
        </div>
    </header>

    <div class="grid">
        <div class="card">
            <h2>Connection</h2>
            {{with .Current}}
            <div class="stat-row"><span class="stat-label">SSID</span><span>{{.SSID}}</span></div>
            <div class="stat-row"><span class="stat-label">BSSID</span><span>{{.BSSID}}</span></div>
            <div class="stat-row"><span class="stat-label">Signal</span><span>{{.RSSI}} dBm</span></div>
            <div class="stat-row"><span class="stat-label">Band</span><span>{{band .FrequencyMHz}}</span></div>
            <div class="stat-row"><span class="stat-label">Metered</span><span>{{if .IsMetered}}yes{{else}}no{{end}}</span></div>
            {{else}}<p class="empty-state">> Not connected</p>{{end}}
            <div class="stat-row"><span class="stat-label">Internet</span>
                <span>{{if .Online}}<span class="status-badge status-running">Online</span>{{else}}<span class="status-badge status-stopped">No internet</span>{{end}}</span></div>
        </div>

        <div class="card">
            <h2>Decision</h2>
            <div id="decision">
            {{with .LastDecision}}
                <div class="reason{{if .BadgeWarning}} warn{{end}}">{{.Reason}}</div>
                {{with .BestCandidate}}<div class="stat-row"><span class="stat-label">Candidate</span><span>{{.SSID}} ({{.SignalLevel}} dBm, {{band .FrequencyMHz}})</span></div>{{end}}
                <div class="stat-row"><span class="stat-label">Evaluated</span><span>{{.EvaluatedAt.Format "15:04:05"}}</span></div>
            {{else}}<p class="empty-state">> No decision yet</p>{{end}}
            </div>
            <div class="stat-row"><span class="stat-label">Switch threshold</span><span>{{.Threshold}} dBm</span></div>
            <div class="stat-row"><span class="stat-label">Mode</span>
                <span>{{if .Settings.IsPaused}}paused{{else if .Settings.IsGamingMode}}gaming{{else}}active{{end}}</span></div>
        </div>
    </div>

    <div class="grid">
        <div class="card">
            <h2>Suggestions</h2>
            {{if .Suggestions}}
            <table><thead><tr><th>Priority</th><th>SSID</th><th>Signal</th><th>Band</th></tr></thead>
            <tbody>{{range .Suggestions}}<tr><td>{{.Priority}}</td><td>{{.SSID}}</td><td>{{.SignalLevel}} dBm</td><td>{{band .Frequency}}</td></tr>{{end}}</tbody></table>
            {{else}}<p class="empty-state">> No suggestions</p>{{end}}
        </div>

        <div class="card">
            <h2>Probation</h2>
            {{if .Probation}}
            <table><thead><tr><th>BSSID</th><th>Remaining</th><th></th></tr></thead>
            <tbody>{{range .Probation}}<tr><td>{{.BSSID}}</td><td>{{remaining . $.Now}}</td><td><button onclick="retry('{{.BSSID}}')">retry</button></td></tr>{{end}}</tbody></table>
            {{else}}<p class="empty-state">> Nothing on probation</p>{{end}}
            <form onsubmit="return probate(event)" style="margin-top:0.5rem">
                <input id="bssid" placeholder="aa:bb:cc:dd:ee:ff"> <button type="submit">probate</button>
            </form>
        </div>
    </div>

    <div class="card">
        <h2>Recent decisions</h2>
        {{if .Recent}}
        <table><thead><tr><th>Time</th><th>Connected</th><th>RSSI</th><th>Reason</th></tr></thead>
        <tbody id="recent">{{range .Recent}}<tr><td>{{.Timestamp.Local.Format "15:04:05"}}</td><td>{{.CurrentSSID}}</td><td>{{.CurrentRSSI}}</td><td>{{.Reason}}</td></tr>{{end}}</tbody></table>
        {{else}}<p class="empty-state">> No decisions recorded</p>{{end}}
    </div>
</div>
<script>
    async function retry(bssid) {
        await fetch('/api/probation/' + encodeURIComponent(bssid), { method: 'DELETE' });
        location.reload();
    }
    async function probate(ev) {
        ev.preventDefault();
        const bssid = document.getElementById('bssid').value.trim();
        if (!bssid) return false;
        await fetch('/api/probation', { method: 'POST', headers: { 'Content-Type': 'application/json' }, body: JSON.stringify({ bssid }) });
        location.reload();
        return false;
    }
    const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    const ws = new WebSocket(proto + location.host + '/ws');
    let first = true;
    ws.onmessage = (msg) => {
        // the first message replays the decision already rendered
        if (first) { first = false; return; }
        location.reload();
    };
</script>
</body>
</html>`

var (
	templatesOnce sync.Once
	templates     *template.Template
)

// GetTemplates returns the parsed templates.
func GetTemplates() *template.Template {
	templatesOnce.Do(func() {
		templates = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
			"band": model.BandLabel,
			"remaining": func(p model.ProbationEntry, now time.Time) string {
				return p.Remaining(now).Round(time.Second).String()
			},
		}).Parse(dashboardHTML))
	})
	return templates
}
