package project_types

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// tokens this close to expiry are refreshed before use
const TokenGrace = time.Hour

type User struct {
	ID           int64  `db:"id"`
	AccessToken  string `db:"access_token"`
	RefreshToken string `db:"refresh_token"`
	ExpiresAt    int64  `db:"expires_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (u *User) TokenExpired(now time.Time) bool {
	return time.Unix(u.ExpiresAt, 0).Before(now.Add(TokenGrace))
}

// Activity is one recorded session. Track is nil for activities without
// GPS (indoor, manual entries).
type Activity struct {
	ID           int64
	Name         string
	Distance     float64
	MovingTime   int64
	ElapsedTime  int64
	StartDate    time.Time
	KudosCount   int
	AverageSpeed float64
	Type         string
	SportType    string
	Track        orb.LineString
}

// Point serializes as {"x": lng, "y": lat}, which is what the browser reads.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Data is the /data payload.
type Data struct {
	Activities *geojson.FeatureCollection `json:"activities"`
	Cells      []string                   `json:"cells"`
	Hexes      *geojson.FeatureCollection `json:"hexes"`
	Centroid   *Point                     `json:"centroid"`
}
