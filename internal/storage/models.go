package storage

import (
	"database/sql"
)

type fixData struct {
	SessionID int64
	Timestamp int64
	X         float64
	Y         float64
	Z         float64
	VX        float64
	VY        float64
	VZ        float64
	Roll      float64
	Pitch     float64
	Yaw       float64
}

type pingData struct {
	ID          int64
	SessionID   int64
	Timestamp   int64
	Roll        sql.NullFloat64
	Pitch       sql.NullFloat64
	Heading     sql.NullFloat64
	FirstInFile bool
}

type beamData struct {
	PingID int64
	Index  sql.NullInt64
	X      sql.NullFloat64
	Y      sql.NullFloat64
	Z      sql.NullFloat64
}

// pingRow is one row of the pings/beams join
type pingRow struct {
	ping pingData
	beam beamData
}
