package dbsession_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechXTT/dbsession"
	"github.com/TechXTT/dbsession/pkg/record"
)

type Stamp struct {
	At time.Time `db:"at"`
}

type order struct {
	ID     int64  `db:"id"`
	Status string `db:"status"`
	Secret string `db:"-"`
	Stamp
}

type coord struct{ lat, lng float64 }

func (c *coord) Fields() []record.Field {
	return []record.Field{record.Bind("Lat", &c.lat), record.Bind("Lng", &c.lng)}
}

func TestParamsOf(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	p, err := dbsession.ParamsOf(order{ID: 3, Status: "open", Secret: "s", Stamp: Stamp{At: at}})
	require.NoError(t, err)
	assert.Equal(t, []dbsession.Param{
		{Name: "id", Value: int64(3)},
		{Name: "status", Value: "open"},
		{Name: "at", Value: at},
	}, p)

	p, err = dbsession.ParamsOf(&coord{lat: 1.5, lng: -2})
	require.NoError(t, err)
	assert.Equal(t, []dbsession.Param{
		dbsession.Named("Lat", 1.5),
		dbsession.Named("Lng", -2.0),
	}, p)

	p, err = dbsession.ParamsOf(map[string]any{"b": 2, "a": nil})
	require.NoError(t, err)
	assert.Equal(t, []dbsession.Param{
		{Name: "a", Value: nil},
		{Name: "b", Value: 2},
	}, p)

	explicit := []dbsession.Param{dbsession.Named("x", 1)}
	p, err = dbsession.ParamsOf(explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, p)
}

func TestParamsOf_Absent(t *testing.T) {
	p, err := dbsession.ParamsOf(nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = dbsession.ParamsOf((*order)(nil))
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestParamsOf_Unsupported(t *testing.T) {
	_, err := dbsession.ParamsOf(42)
	assert.ErrorIs(t, err, dbsession.ErrUnsupportedParams)

	assert.Panics(t, func() { dbsession.MustParams("text") })
}
