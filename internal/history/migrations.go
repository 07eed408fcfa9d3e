package history

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    day INTEGER NOT NULL,
    root TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_day ON runs(day);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS case_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    dir TEXT NOT NULL,
    name TEXT NOT NULL,
    status TEXT NOT NULL,
    duration_ns INTEGER NOT NULL DEFAULT 0,
    stdout TEXT,
    stderr TEXT
);

CREATE INDEX IF NOT EXISTS idx_case_results_run_id ON case_results(run_id);
`
