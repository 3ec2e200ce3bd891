package registry

import (
	"context"
	"database/sql"
	"time"

	"go.trai.ch/zerr"
)

// BuildRecord is a stored build.
type BuildRecord struct {
	ID         string
	Manifest   string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the build is running or if it crashed
	Summary
}

// AssetRecord is a stored asset.
type AssetRecord struct {
	ID      string
	BuildID string
	HostID  uint64
	Name    string
	Kind    string
	Width   int
	Height  int
	File    string
}

// Builds returns up to limit builds, newest first. A limit of 0 returns
// all of them.
func (r *Registry) Builds(ctx context.Context, limit int) ([]BuildRecord, error) {
	q := `SELECT id, manifest, started_at, finished_at, targets, textures, materials, failed, skipped
	      FROM builds ORDER BY rowid DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to query builds")
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []BuildRecord
	for rows.Next() {
		var rec BuildRecord
		var started string
		var finished sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Manifest, &started, &finished,
			&rec.Targets, &rec.Textures, &rec.Materials, &rec.Failed, &rec.Skipped); err != nil {
			return nil, zerr.Wrap(err, "failed to scan build")
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished.Valid {
			rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Assets returns the assets registered by a build, in registration order.
func (r *Registry) Assets(ctx context.Context, buildID string) ([]AssetRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, build_id, host_id, name, kind, width, height, file
		 FROM assets WHERE build_id = ? ORDER BY rowid`, buildID)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to query assets"), "build", buildID)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []AssetRecord
	for rows.Next() {
		var rec AssetRecord
		var hostID int64
		var width, height sql.NullInt64
		var file sql.NullString
		if err := rows.Scan(&rec.ID, &rec.BuildID, &hostID, &rec.Name, &rec.Kind, &width, &height, &file); err != nil {
			return nil, zerr.Wrap(err, "failed to scan asset")
		}
		rec.HostID = uint64(hostID)
		rec.Width = int(width.Int64)
		rec.Height = int(height.Int64)
		rec.File = file.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
