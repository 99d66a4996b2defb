package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const powerBody = `{
  "properties": {
    "parameter": {
      "T2M":               {"20261008": 18.5, "20261009": 21.0, "20261010": 22.4},
      "PRECTOTCORR":       {"20261008": 0.0,  "20261009": 12.7, "20261010": -999},
      "RH2M":              {"20261008": 61.2, "20261009": 74.0, "20261010": 70.1},
      "ALLSKY_SFC_SW_DWN": {"20261008": 4.1,  "20261009": 3.2,  "20261010": 4.4},
      "WS2M":              {"20261008": 2.2,  "20261009": 3.9,  "20261010": 2.0}
    }
  }
}`

func TestParsePower_SkipsIncompleteDays(t *testing.T) {
	c, err := parsePower([]byte(powerBody))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 10, 9, 0, 0, 0, 0, time.UTC), c.Date)
	assert.Equal(t, 21.0, c.TemperatureC)
	assert.Equal(t, 12.7, c.PrecipitationMM)
	assert.Equal(t, 74.0, c.Humidity)
	assert.Equal(t, 3.2, c.SolarRadiation)
	assert.Equal(t, 3.9, c.WindSpeed)
}

func TestParsePower_NoCompleteDay(t *testing.T) {
	_, err := parsePower([]byte(`{"properties":{"parameter":{"T2M":{"20261010":-999}}}}`))
	assert.ErrorIs(t, err, ErrPartialData)

	_, err = parsePower([]byte(`not json`))
	assert.Error(t, err)
}

func TestPowerClient_FetchAndCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		q := r.URL.Query()
		assert.Equal(t, "41.8780", q.Get("latitude"))
		assert.Equal(t, "-93.0980", q.Get("longitude"))
		assert.Equal(t, "20261004", q.Get("start"))
		assert.Equal(t, "20261010", q.Get("end"))
		assert.Contains(t, q.Get("parameters"), "PRECTOTCORR")
		fmt.Fprint(w, powerBody)
	}))
	defer srv.Close()

	cache := newMemCache()
	c := NewPowerClient(srv.URL, cache)
	loc := Location{Lat: 41.878, Lon: -93.098}
	date := time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)

	got, err := c.Climate(context.Background(), loc, date)
	require.NoError(t, err)
	assert.Equal(t, 21.0, got.TemperatureC)
	assert.Equal(t, 1, cache.puts)

	// Second call is served from memory.
	_, err = c.Climate(context.Background(), loc, date)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// A fresh client sharing the cache never hits the network.
	c2 := NewPowerClient(srv.URL, cache)
	got2, err := c2.Climate(context.Background(), loc, date)
	require.NoError(t, err)
	assert.Equal(t, got, got2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPowerClient_BacksOffAfterFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewPowerClient(srv.URL, nil)
	loc := Location{Lat: 1, Lon: 2}
	date := time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)

	_, err := c.Climate(context.Background(), loc, date)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	_, err = c.Climate(context.Background(), loc, date)
	assert.True(t, errors.Is(err, ErrBackoff))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPointClients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ndvi":
			assert.Equal(t, "2026-07-01", r.URL.Query().Get("date"))
			fmt.Fprint(w, `{"date":"2026-07-01","ndvi":0.72}`)
		case "/soil":
			fmt.Fprint(w, `{"soil_moisture":0.31,"units":"m3/m3"}`)
		case "/null":
			fmt.Fprint(w, `{"ndvi":null}`)
		case "/range":
			fmt.Fprint(w, `{"soil_moisture":4.2}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	loc := Location{Lat: 10, Lon: 20}
	date := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	v, err := NewVegetationClient(srv.URL+"/ndvi", nil).NDVI(ctx, loc, date)
	require.NoError(t, err)
	assert.Equal(t, 0.72, v)

	sm, err := NewSoilMoistureClient(srv.URL+"/soil", newMemCache()).SoilMoisture(ctx, loc, date)
	require.NoError(t, err)
	assert.Equal(t, 0.31, sm)

	_, err = NewVegetationClient(srv.URL+"/null", nil).NDVI(ctx, loc, date)
	assert.ErrorIs(t, err, ErrPartialData)

	_, err = NewSoilMoistureClient(srv.URL+"/range", nil).SoilMoisture(ctx, loc, date)
	assert.ErrorIs(t, err, ErrPartialData)

	_, err = NewVegetationClient(srv.URL+"/missing", nil).NDVI(ctx, loc, date)
	assert.Error(t, err)

	_, err = NewVegetationClient("", nil).NDVI(ctx, loc, date)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
