package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/jgoulah/screenflux/pkg/models"
	_ "modernc.org/sqlite"
)

var (
	// ErrStoreNotFound is returned when the knowledge store file does not exist
	ErrStoreNotFound = errors.New("knowledge store not found")
	// ErrStoreUnreadable is returned when the knowledge store exists but cannot be read
	ErrStoreUnreadable = errors.New("knowledge store not readable")
)

// cocoaEpochOffset converts Core Data timestamps (2001-01-01) to Unix seconds
const cocoaEpochOffset = 978307200

// usageQuery selects the /app/usage stream.
// Modified from https://rud.is/b/2019/10/28/spelunking-macos-screentime-app-usage-with-r/
var usageQuery = fmt.Sprintf(`
	SELECT
		ZOBJECT.ZVALUESTRING,
		(ZOBJECT.ZENDDATE - ZOBJECT.ZSTARTDATE),
		(ZOBJECT.ZSTARTDATE + %[1]d),
		(ZOBJECT.ZENDDATE + %[1]d),
		(ZOBJECT.ZCREATIONDATE + %[1]d),
		ZOBJECT.ZSECONDSFROMGMT,
		ZSOURCE.ZDEVICEID,
		ZSYNCPEER.ZMODEL
	FROM ZOBJECT
	LEFT JOIN ZSTRUCTUREDMETADATA ON ZOBJECT.ZSTRUCTUREDMETADATA = ZSTRUCTUREDMETADATA.Z_PK
	LEFT JOIN ZSOURCE ON ZOBJECT.ZSOURCE = ZSOURCE.Z_PK
	LEFT JOIN ZSYNCPEER ON ZSOURCE.ZDEVICEID = ZSYNCPEER.ZDEVICEID
	WHERE ZOBJECT.ZSTREAMNAME = '/app/usage'
	ORDER BY ZOBJECT.ZSTARTDATE DESC
	`, cocoaEpochOffset)

// Store wraps a read-only connection to knowledgeC.db
type Store struct {
	conn *sql.DB
	path string
}

// Check verifies the store exists and is readable
func Check(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w at %s", ErrStoreNotFound, path)
		}
		return fmt.Errorf("%w at %s: %v", ErrStoreUnreadable, path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w at %s: %v", ErrStoreUnreadable, path, err)
	}
	return f.Close()
}

// Open checks the store preconditions and opens it read-only
func Open(path string) (*Store, error) {
	if err := Check(path); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("opening knowledge store: %w", err)
	}

	// database/sql opens lazily, so surface permission problems here
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w at %s: %v", ErrStoreUnreadable, path, err)
	}

	return &Store{conn: conn, path: path}, nil
}

// Path returns the file the store was opened from
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// FetchUsage returns every /app/usage row, newest first
func (s *Store) FetchUsage(ctx context.Context) ([]models.RawRow, error) {
	rows, err := s.conn.QueryContext(ctx, usageQuery)
	if err != nil {
		return nil, fmt.Errorf("querying app usage: %w", err)
	}
	defer rows.Close()

	var results []models.RawRow
	for rows.Next() {
		var (
			app                       sql.NullString
			usage, start, end, create sql.NullFloat64
			tz                        sql.NullInt64
			deviceID, deviceModel     sql.NullString
		)

		if err := rows.Scan(&app, &usage, &start, &end, &create, &tz, &deviceID, &deviceModel); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		results = append(results, models.RawRow{
			App:         app.String,
			Usage:       usage.Float64,
			StartEpoch:  start.Float64,
			EndEpoch:    end.Float64,
			CreatedAt:   create.Float64,
			TZOffset:    tz.Int64,
			DeviceID:    nullableString(deviceID),
			DeviceModel: nullableString(deviceModel),
		})
	}

	return results, rows.Err()
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
