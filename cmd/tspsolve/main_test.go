package main

import (
	"bytes"
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"routekit/internal/opt"
)

func TestWriteTour(t *testing.T) {
	var buf bytes.Buffer
	err := writeTour(&buf, []opt.TourStop{
		{Sequence: 1, NodeID: 4, Cost: 0, AggCost: 0},
		{Sequence: 2, NodeID: 7, Cost: 2.5, AggCost: 2.5},
	})
	require.NoError(t, err)
	assert.Equal(t, "seq,node,cost,agg_cost\n1,4,0,0\n2,7,2.5,2.5\n", buf.String())
}

func TestRequestFromOnlySetFlags(t *testing.T) {
	app := cli.NewApp()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.Int("tries", 0, "")
	set.Float64("cooling", 0, "")
	set.Duration("time-limit", 0, "")
	set.Int64("start-id", 0, "")
	set.Int64("end-id", 0, "")
	set.Int("max-changes", 0, "")
	require.NoError(t, set.Parse([]string{"--tries", "7", "--time-limit", "1500ms", "--start-id", "3"}))
	c := cli.NewContext(app, set, nil)

	req := requestFrom(c)
	require.NotNil(t, req.TriesPerTemperature)
	assert.Equal(t, 7, *req.TriesPerTemperature)
	require.NotNil(t, req.MaxProcessingTime)
	assert.Equal(t, (1500 * time.Millisecond).Seconds(), *req.MaxProcessingTime)
	assert.Equal(t, int64(3), req.StartID)
	assert.Nil(t, req.CoolingFactor)
	assert.Nil(t, req.MaxChangesPerTemperature)
	assert.Nil(t, req.Randomize)
}
