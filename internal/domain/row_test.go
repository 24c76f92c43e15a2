package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     string
		lon     string
		wantLat float64
		wantLon float64
		wantErr bool
	}{
		{name: "valid", lat: "59.95", lon: "24.5", wantLat: 59.95, wantLon: 24.5},
		{name: "bounds inclusive", lat: "-90", lon: "180", wantLat: -90, wantLon: 180},
		{name: "whitespace trimmed", lat: " 10.5 ", lon: " -20 ", wantLat: 10.5, wantLon: -20},
		{name: "lat above range", lat: "90.01", lon: "0", wantErr: true},
		{name: "lon below range", lat: "0", lon: "-180.5", wantErr: true},
		{name: "non numeric lat", lat: "north", lon: "0", wantErr: true},
		{name: "empty lon", lat: "0", lon: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := InputRow{Lat: tt.lat, Lon: tt.lon}
			lat, lon, err := row.ParseCoordinates()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidCoordinate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLat, lat)
			assert.Equal(t, tt.wantLon, lon)
		})
	}
}

func TestRowID_Deterministic(t *testing.T) {
	a := InputRow{Timestamp: "2024-04-26T15:00:00Z", Lat: "59.95", Lon: "24.5"}
	b := InputRow{Timestamp: "2024-04-26T15:00:00Z", Lat: "59.95", Lon: "24.5"}

	assert.Equal(t, RowID(a), RowID(b))
	assert.Regexp(t, `^pt-[0-9a-f]{16}$`, RowID(a))
}

func TestRowID_DistinguishesRows(t *testing.T) {
	base := InputRow{Timestamp: "2024-04-26T15:00:00Z", Lat: "59.95", Lon: "24.5"}
	otherTime := base
	otherTime.Timestamp = "2024-04-26T16:00:00Z"
	otherPlace := base
	otherPlace.Lon = "24.6"

	assert.NotEqual(t, RowID(base), RowID(otherTime))
	assert.NotEqual(t, RowID(base), RowID(otherPlace))
}

func TestObservation_Empty(t *testing.T) {
	assert.True(t, Observation{}.Empty())

	v := 12.5
	assert.False(t, Observation{SwellHeightM: &v}.Empty())
	assert.False(t, Observation{CurrentDirDegTo: &v}.Empty())
}
