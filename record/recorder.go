// Package record persists director output to SQLite so runs can be
// inspected or diffed after the fact.
package record

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/milk9111/cameraman/director"
	"github.com/milk9111/cameraman/statetree"
)

//go:embed schema.sql
var schema string

var (
	ErrNoRun  = errors.New("record: no run started")
	ErrClosed = errors.New("record: recorder is closed")
)

// Recorder writes ticks of one run at a time.
type Recorder struct {
	db  *sql.DB
	run string
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Recorder, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("record: storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Close releases the database.
func (r *Recorder) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// Run returns the current run id.
func (r *Recorder) Run() string {
	return r.run
}

// StartRun begins a new run. Later writes belong to it.
func (r *Recorder) StartRun(ctx context.Context, name string) (string, error) {
	if r == nil || r.db == nil {
		return "", ErrClosed
	}
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `INSERT INTO runs (id, name, started_at) VALUES (?, ?, ?)`,
		id, name, time.Now().UTC().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	r.run = id
	return id, nil
}

// Write stores one tick in a single transaction.
func (r *Recorder) Write(ctx context.Context, out director.TickOutput) (err error) {
	if r == nil || r.db == nil {
		return ErrClosed
	}
	if r.run == "" {
		return ErrNoRun
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tick %d: %w", out.Tick, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, v := range out.Rigs {
		_, err = tx.ExecContext(ctx, `
INSERT INTO rig_frames (
	run_id, tick, sim_time, rig, target, active,
	x, y, z, pitch, yaw, roll,
	fov, arm_length, blocked, snapped, tier, context, leaf
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
			r.run, out.Tick, out.Time, v.Name, v.Target, v.Name == out.ActiveRig,
			v.Location.X, v.Location.Y, v.Location.Z, v.Rotation.Pitch, v.Rotation.Yaw, v.Rotation.Roll,
			v.FOV, v.ArmLength, v.Blocked, v.Snapped, v.Tier, v.Context, v.Leaf,
		)
		if err != nil {
			return fmt.Errorf("insert rig %q tick %d: %w", v.Name, out.Tick, err)
		}
	}

	for _, a := range out.Agents {
		path, jerr := json.Marshal(a.Path)
		if jerr != nil {
			return fmt.Errorf("encode path: %w", jerr)
		}
		params, jerr := json.Marshal(a.Params)
		if jerr != nil {
			return fmt.Errorf("encode params: %w", jerr)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO agent_frames (
	run_id, tick, agent, agent_id, context, leaf, path, params, used_fallback, transitioned
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
			r.run, out.Tick, a.Name, a.ID, a.Context.String(), string(a.Leaf), string(path), string(params),
			a.UsedFallback, a.Transitioned,
		)
		if err != nil {
			return fmt.Errorf("insert agent %q tick %d: %w", a.Name, out.Tick, err)
		}
	}

	for _, ev := range out.Events {
		payload, jerr := json.Marshal(ev.Data)
		if jerr != nil {
			return fmt.Errorf("encode %s event: %w", ev.Type, jerr)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO events (run_id, tick, type, payload) VALUES (?, ?, ?, ?)`,
			r.run, out.Tick, ev.Type, string(payload))
		if err != nil {
			return fmt.Errorf("insert event tick %d: %w", out.Tick, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tick %d: %w", out.Tick, err)
	}
	return nil
}

// RunInfo describes a recorded run.
type RunInfo struct {
	ID        string
	Name      string
	StartedAt time.Time
}

// Runs lists runs, newest first.
func (r *Recorder) Runs(ctx context.Context) ([]RunInfo, error) {
	if r == nil || r.db == nil {
		return nil, ErrClosed
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, started_at FROM runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			info RunInfo
			ms   int64
		)
		if err := rows.Scan(&info.ID, &info.Name, &ms); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		info.StartedAt = time.UnixMilli(ms).UTC()
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// RigFrame is one stored rig row.
type RigFrame struct {
	Tick      uint64
	Time      float64
	Target    string
	Active    bool
	X, Y, Z   float64
	FOV       float64
	ArmLength float64
	Blocked   bool
	Snapped   bool
	Tier      string
}

// RigFrames returns a rig's frames for a run in tick order.
func (r *Recorder) RigFrames(ctx context.Context, run, rig string) ([]RigFrame, error) {
	if r == nil || r.db == nil {
		return nil, ErrClosed
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT tick, sim_time, target, active, x, y, z, fov, arm_length, blocked, snapped, tier
FROM rig_frames
WHERE run_id = ? AND rig = ?
ORDER BY tick
`, run, rig)
	if err != nil {
		return nil, fmt.Errorf("list rig frames: %w", err)
	}
	defer rows.Close()

	var frames []RigFrame
	for rows.Next() {
		var f RigFrame
		if err := rows.Scan(&f.Tick, &f.Time, &f.Target, &f.Active, &f.X, &f.Y, &f.Z, &f.FOV, &f.ArmLength, &f.Blocked, &f.Snapped, &f.Tier); err != nil {
			return nil, fmt.Errorf("scan rig frame: %w", err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// AgentFrame is one stored agent row.
type AgentFrame struct {
	Tick         uint64
	Context      string
	Leaf         statetree.NodeID
	Path         []statetree.NodeID
	Params       statetree.Params
	UsedFallback bool
}

// AgentFrames returns an agent's frames for a run in tick order.
func (r *Recorder) AgentFrames(ctx context.Context, run, agent string) ([]AgentFrame, error) {
	if r == nil || r.db == nil {
		return nil, ErrClosed
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT tick, context, leaf, path, params, used_fallback
FROM agent_frames
WHERE run_id = ? AND agent = ?
ORDER BY tick
`, run, agent)
	if err != nil {
		return nil, fmt.Errorf("list agent frames: %w", err)
	}
	defer rows.Close()

	var frames []AgentFrame
	for rows.Next() {
		var (
			f            AgentFrame
			leaf         string
			path, params string
		)
		if err := rows.Scan(&f.Tick, &f.Context, &leaf, &path, &params, &f.UsedFallback); err != nil {
			return nil, fmt.Errorf("scan agent frame: %w", err)
		}
		f.Leaf = statetree.NodeID(leaf)
		if err := json.Unmarshal([]byte(path), &f.Path); err != nil {
			return nil, fmt.Errorf("decode path: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &f.Params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// EventCounts returns how many events of each type a run recorded.
func (r *Recorder) EventCounts(ctx context.Context, run string) (map[string]int, error) {
	if r == nil || r.db == nil {
		return nil, ErrClosed
	}
	rows, err := r.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM events WHERE run_id = ? GROUP BY type`, run)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			typ string
			n   int
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}
