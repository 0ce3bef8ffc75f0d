package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ratio_config (
    categoria            TEXT NOT NULL,
    subcategoria         TEXT NOT NULL,
    nombre_parametro     TEXT NOT NULL,
    valor                REAL NOT NULL,
    descripcion          TEXT NOT NULL DEFAULT '',
    unidad               TEXT NOT NULL DEFAULT '',
    editable             INTEGER NOT NULL DEFAULT 1,
    updated_at           TEXT NOT NULL,
    PRIMARY KEY (categoria, subcategoria, nombre_parametro)
);

CREATE TABLE IF NOT EXISTS inventory (
    nombre               TEXT PRIMARY KEY,
    cantidad             INTEGER NOT NULL CHECK (cantidad >= 0),
    updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS change_history (
    id                   TEXT PRIMARY KEY,
    tipo_registro        TEXT NOT NULL,
    registro             TEXT NOT NULL,
    campo                TEXT NOT NULL,
    valor_anterior       TEXT NOT NULL DEFAULT '',
    valor_nuevo          TEXT NOT NULL DEFAULT '',
    usuario              TEXT NOT NULL,
    motivo               TEXT NOT NULL DEFAULT '',
    changed_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS plan_runs (
    id                   TEXT PRIMARY KEY,
    year                 INTEGER NOT NULL,
    month                INTEGER NOT NULL,
    state                TEXT NOT NULL,
    generated_at         TEXT NOT NULL,
    payload              TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_changed ON change_history(changed_at);
CREATE INDEX IF NOT EXISTS idx_history_record ON change_history(tipo_registro, registro);
CREATE INDEX IF NOT EXISTS idx_plan_runs_period ON plan_runs(year, month, generated_at);
`
