package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

var _ Store = (*SqliteStore)(nil)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a new store backed by the Sqlite database at dbPath.
// Connections are opened lazily; the schema is created with the first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}
		db.SetMaxOpenConns(1)

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateSession(ctx context.Context, vessel, sensor string, config any) (sessionID int64, err error) {
	configData, err := toConfigData(config)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, vessel, sensor, configData)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (session *sonar.SurveySession, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}
	return loadSession(ctx, db, id)
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*sonar.SurveySession, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess sonar.SurveySession
		var config sql.NullString
		if err = rows.Scan(&sess.ID, &sess.StartTime, &sess.Vessel, &sess.Sensor, &config); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		if config.Valid {
			sess.Config = &config.String
		}
		sessions = append(sessions, &sess)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating sessions: %w", err)
	}
	return
}

func loadSession(ctx context.Context, db *sql.DB, id int64) (session *sonar.SurveySession, err error) {
	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var sess sonar.SurveySession
	var config sql.NullString
	if err = stmt.QueryRowContext(ctx, id).Scan(&sess.ID, &sess.StartTime, &sess.Vessel, &sess.Sensor, &config); err != nil {
		err = fmt.Errorf("scanning session: %w", err)
		return
	}
	if config.Valid {
		sess.Config = &config.String
	}

	return &sess, nil
}

func (s *SqliteStore) StoreFixes(ctx context.Context, sessionID int64, fixes []navigation.Fix) (err error) {
	if len(fixes) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	values := make([]any, 0, min(len(fixes), fixesPerInsert)*fixColumns)
	for chunk := range slices.Chunk(fixes, fixesPerInsert) {
		values = values[:0]
		for i := range chunk {
			data := toFixData(sessionID, &chunk[i])
			values = append(values,
				data.SessionID,
				data.Timestamp,
				data.X,
				data.Y,
				data.Z,
				data.VX,
				data.VY,
				data.VZ,
				data.Roll,
				data.Pitch,
				data.Yaw,
			)
		}

		if _, err = tx.ExecContext(ctx, multiInsertSQL(insertFixesSQL, fixColumns, len(chunk)), values...); err != nil {
			return fmt.Errorf("batch inserting fixes: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *SqliteStore) StorePing(ctx context.Context, sessionID int64, p *sonar.Ping) (pingID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		err = fmt.Errorf("beginning transaction: %w", err)
		return
	}
	defer rollbackWithError(tx, &err)

	data := toPingData(sessionID, p)

	result, err := tx.ExecContext(ctx, insertPingSQL,
		data.SessionID,
		data.Timestamp,
		data.Roll,
		data.Pitch,
		data.Heading,
		data.FirstInFile,
	)
	if err != nil {
		err = fmt.Errorf("inserting ping: %w", err)
		return
	}

	if pingID, err = result.LastInsertId(); err != nil {
		err = fmt.Errorf("getting ping ID: %w", err)
		return
	}

	values := make([]any, 0, min(len(p.Beams), beamsPerInsert)*beamColumns)
	for offset := 0; offset < len(p.Beams); offset += beamsPerInsert {
		chunk := p.Beams[offset:min(offset+beamsPerInsert, len(p.Beams))]

		values = values[:0]
		for i, beam := range chunk {
			values = append(values, pingID, offset+i, beam.X, beam.Y, beam.Z)
		}

		if _, err = tx.ExecContext(ctx, multiInsertSQL(insertBeamsSQL, beamColumns, len(chunk)), values...); err != nil {
			err = fmt.Errorf("batch inserting beams: %w", err)
			return
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("committing transaction: %w", err)
		return
	}

	return pingID, nil
}

// ReadFixes loads the navigation fixes of a session ordered by timestamp.
// Fixes sharing a timestamp are returned in insertion order.
func (s *SqliteStore) ReadFixes(ctx context.Context, sessionID int64, opts ...ReaderOption) (fixes []navigation.Fix, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	cfg := newReaderConfig(opts...)
	if err = cfg.validate(); err != nil {
		return
	}
	start, end := cfg.bounds()

	rows, err := db.QueryContext(ctx, selectFixesSQL, sessionID, start, end)
	if err != nil {
		err = fmt.Errorf("querying fixes: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var f navigation.Fix
		if err = rows.Scan(
			&f.Timestamp,
			&f.Position.X,
			&f.Position.Y,
			&f.Position.Z,
			&f.Velocity.X,
			&f.Velocity.Y,
			&f.Velocity.Z,
			&f.Attitude.Roll,
			&f.Attitude.Pitch,
			&f.Attitude.Yaw,
		); err != nil {
			err = fmt.Errorf("scanning fix: %w", err)
			return
		}
		fixes = append(fixes, f)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating fixes: %w", err)
	}
	return
}

// ReadPings creates a PingReader streaming the pings of a session. Each
// ping is assembled from its beam rows; a ping with a beam index gap or a
// missing beam coordinate is reported as sonar.ErrMalformedRecord.
//
// The returned reader must be closed after use to release database resources.
// Each reader instance should only be used from a single goroutine.
func (s *SqliteStore) ReadPings(ctx context.Context, sessionID int64, opts ...ReaderOption) (PingReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqlitePingReader(ctx, db, sessionID, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
