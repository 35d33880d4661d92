package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/pansql/internal/codegen"
)

const keyDomain = "pansql/build/v1"

// Key derives the cache key of a compilation. Source text is NFC
// normalized so that equivalent encodings of the same script share an
// entry. inputs are the other files the output depends on, in a stable
// order.
func Key(version, name, source string, inputs ...[]byte) string {
	h := sha256.New()
	h.Write([]byte(keyDomain))
	h.Write([]byte{0})
	for _, part := range [][]byte{[]byte(version), []byte(name), norm.NFC.Bytes([]byte(source))} {
		writePart(h, part)
	}
	for _, in := range inputs {
		writePart(h, in)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Parts are length prefixed so that moving bytes between adjacent parts
// changes the key.
func writePart(h io.Writer, part []byte) {
	fmt.Fprintf(h, "%d:", len(part))
	h.Write(part)
	h.Write([]byte{0})
}

// Get returns the script cached under key and counts the hit.
func (s *Store) Get(ctx context.Context, key string) (*codegen.Script, bool, error) {
	var script codegen.Script
	err := s.db.QueryRowContext(ctx, `
		SELECT name, code, project_file, connectors
		FROM builds WHERE key = ?
	`, key).Scan(&script.Name, &script.Code, &script.ProjectFile, &script.Connectors)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get build %s: %w", key, err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE builds SET hits = hits + 1 WHERE key = ?`, key); err != nil {
		return nil, false, fmt.Errorf("count hit %s: %w", key, err)
	}
	return &script, true, nil
}

// Put caches script under key. Putting an existing key replaces the entry
// and makes it the most recent.
func (s *Store) Put(ctx context.Context, key string, script *codegen.Script) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO builds (key, name, code, project_file, connectors, seq)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM builds))
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			code = excluded.code,
			project_file = excluded.project_file,
			connectors = excluded.connectors,
			seq = excluded.seq
	`, key, script.Name, script.Code, script.ProjectFile, script.Connectors)
	if err != nil {
		return fmt.Errorf("put build %s: %w", key, err)
	}
	return nil
}

// Prune deletes all but the keep most recent entries of the named script
// and returns how many were removed.
func (s *Store) Prune(ctx context.Context, name string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM builds
		WHERE name = ? AND key NOT IN (
			SELECT key FROM builds WHERE name = ? ORDER BY seq DESC LIMIT ?
		)
	`, name, name, keep)
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", name, err)
	}
	return res.RowsAffected()
}

// Stats summarises the cache.
type Stats struct {
	Entries int64
	Hits    int64
}

// Stats counts entries and recorded hits.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM builds`).Scan(&st.Entries, &st.Hits)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	return st, nil
}
