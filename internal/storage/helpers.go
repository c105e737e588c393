package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
	"github.com/roman-kulish/mbes-survey/internal/sonar"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if rErr := rb.Rollback(); rErr != nil && !errors.Is(rErr, sql.ErrTxDone) && *err == nil {
		*err = rErr
	}
}

func toConfigData(config any) (configData sql.NullString, err error) {
	if config == nil {
		return
	}

	switch c := config.(type) {
	case string:
		configData.String = c
	case []byte:
		configData.String = string(c)
	default:
		var p []byte
		if p, err = json.Marshal(config); err != nil {
			return configData, fmt.Errorf("marshaling config: %w", err)
		}
		configData.String = string(p)
	}

	configData.Valid = true
	return
}

func toFixData(sessionID int64, f *navigation.Fix) *fixData {
	return &fixData{
		SessionID: sessionID,
		Timestamp: f.Timestamp,
		X:         f.Position.X,
		Y:         f.Position.Y,
		Z:         f.Position.Z,
		VX:        f.Velocity.X,
		VY:        f.Velocity.Y,
		VZ:        f.Velocity.Z,
		Roll:      f.Attitude.Roll,
		Pitch:     f.Attitude.Pitch,
		Yaw:       f.Attitude.Yaw,
	}
}

func toPingData(sessionID int64, p *sonar.Ping) *pingData {
	data := pingData{
		SessionID:   sessionID,
		Timestamp:   p.Timestamp,
		FirstInFile: p.FirstInFile,
	}
	if p.Attitude != nil {
		data.Roll = sql.NullFloat64{Float64: p.Attitude.Roll, Valid: true}
		data.Pitch = sql.NullFloat64{Float64: p.Attitude.Pitch, Valid: true}
		data.Heading = sql.NullFloat64{Float64: p.Attitude.Yaw, Valid: true}
	}
	return &data
}

// attitude decodes the optional ping attitude. With legacy set, a heading of
// exactly zero means the sensor had no orientation reading.
func (d *pingData) attitude(legacy bool) (*navigation.Attitude, error) {
	valid := 0
	for _, v := range []sql.NullFloat64{d.Roll, d.Pitch, d.Heading} {
		if v.Valid {
			valid++
		}
	}

	switch valid {
	case 0:
		return nil, nil
	case 3:
		if legacy {
			return sonar.AttitudeFromSentinel(d.Roll.Float64, d.Pitch.Float64, d.Heading.Float64), nil
		}
		return &navigation.Attitude{Roll: d.Roll.Float64, Pitch: d.Pitch.Float64, Yaw: d.Heading.Float64}, nil
	default:
		return nil, fmt.Errorf("%w: ping %d has a partial attitude", sonar.ErrMalformedRecord, d.ID)
	}
}

func (b *beamData) vec() (r3.Vec, error) {
	if !b.X.Valid || !b.Y.Valid || !b.Z.Valid {
		return r3.Vec{}, fmt.Errorf("%w: ping %d beam %d has missing coordinates", sonar.ErrMalformedRecord, b.PingID, b.Index.Int64)
	}
	return r3.Vec{X: b.X.Float64, Y: b.Y.Float64, Z: b.Z.Float64}, nil
}

// multiInsertSQL appends n groups of cols placeholders to a VALUES prefix.
func multiInsertSQL(prefix string, cols, n int) string {
	group := "(" + strings.TrimSuffix(strings.Repeat("?, ", cols), ", ") + ")"

	var sb strings.Builder
	sb.Grow(len(prefix) + n*(len(group)+2))
	sb.WriteString(prefix)
	for i := range n {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(group)
	}
	return sb.String()
}
