package storage

import (
	_ "embed"
)

const (
	insertSessionSQL = `
INSERT INTO sessions (start_time,
                      vessel,
                      sensor,
                      config)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`

	selectSessionSQL = `
SELECT id,
       start_time,
       vessel,
       sensor,
       config
FROM sessions
WHERE id = ?`

	selectSessionsSQL = `
SELECT id,
       start_time,
       vessel,
       sensor,
       config
FROM sessions
ORDER BY start_time, id`

	insertFixesSQL = `
INSERT INTO fixes (session_id,
                   timestamp,
                   x,
                   y,
                   z,
                   vx,
                   vy,
                   vz,
                   roll,
                   pitch,
                   yaw)
VALUES `

	selectFixesSQL = `
SELECT timestamp,
       x,
       y,
       z,
       vx,
       vy,
       vz,
       roll,
       pitch,
       yaw
FROM fixes
WHERE session_id = ?
  AND timestamp BETWEEN ? AND ?
ORDER BY timestamp, id`

	insertPingSQL = `
INSERT INTO pings (session_id,
                   timestamp,
                   roll,
                   pitch,
                   heading,
                   first_in_file)
VALUES (?, ?, ?, ?, ?, ?)`

	insertBeamsSQL = `
INSERT INTO beams (ping_id,
                   beam_index,
                   x,
                   y,
                   z)
VALUES `

	selectPingBoundsSQL = `
SELECT COALESCE(MIN(timestamp), 0),
       COALESCE(MAX(timestamp), 0)
FROM pings
WHERE session_id = ?`

	selectPingsSQL = `
SELECT p.id,
       p.timestamp,
       p.roll,
       p.pitch,
       p.heading,
       p.first_in_file,
       b.beam_index,
       b.x,
       b.y,
       b.z
FROM pings p
         LEFT JOIN beams b ON b.ping_id = p.id
WHERE p.session_id = ?
  AND p.timestamp BETWEEN ? AND ?
ORDER BY p.timestamp, p.id, b.beam_index`
)

const (
	fixColumns  = 11
	beamColumns = 5

	fixesPerInsert = 500
	beamsPerInsert = 1000
)

var (
	//go:embed schema.sql
	initSchemaSQL string

	//go:embed indexes.sql
	initIndexesSQL string
)
