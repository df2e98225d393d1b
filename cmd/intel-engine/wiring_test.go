// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intel-engine/internal/collect"
	"github.com/pdiddy/intel-engine/internal/oracle"
	"github.com/pdiddy/intel-engine/pkg/types"
)

func withDefaults(t *testing.T) {
	t.Helper()
	saved := cfg
	cfg = types.DefaultConfig()
	t.Cleanup(func() { cfg = saved })
}

func names(cs []collect.Collector) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name())
	}
	return out
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"taiwan", "strait", "china"}, splitList([]string{"taiwan, strait", " ", "china"}))
	assert.Nil(t, splitList(nil))
}

func TestSweepCollectorsSkipsDomainsWithoutInputs(t *testing.T) {
	withDefaults(t)

	plan := cfg.Sweep
	cs, err := sweepCollectors(nil, plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"cybint", "adsint", "maritint"}, names(cs))
}

func TestSweepCollectorsFullPlan(t *testing.T) {
	withDefaults(t)

	plan := cfg.Sweep
	plan.Keywords = []string{"taiwan"}
	plan.Locations = []string{"Kaohsiung"}
	plan.SignalFile = "intercepts.log"
	plan.Domains = []string{"signals", "osint", "SOCMINT", "geoint", "cybint"}

	cs, err := sweepCollectors(nil, plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"signals", "osint", "socmint", "geoint", "cybint"}, names(cs))

	news := cs[1].(*collect.NewsCollector)
	assert.Equal(t, 10, news.Limit)
	assert.Equal(t, cfg.Search.FallbackDelay, news.FallbackDelay)
}

func TestSweepCollectorsErrors(t *testing.T) {
	withDefaults(t)

	tests := []struct {
		name string
		edit func(*types.SweepConfig)
	}{
		{name: "unknown domain", edit: func(p *types.SweepConfig) { p.Domains = []string{"HUMINT"} }},
		{name: "unknown flight region", edit: func(p *types.SweepConfig) { p.Domains = []string{"ADSINT"}; p.FlightRegion = "atlantis" }},
		{name: "unknown sea region", edit: func(p *types.SweepConfig) { p.Domains = []string{"MARITINT"}; p.SeaRegion = "atlantis" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := cfg.Sweep
			tt.edit(&plan)
			_, err := sweepCollectors(nil, plan)
			assert.Error(t, err)
		})
	}
}

func TestSweepPlanFromAssessment(t *testing.T) {
	withDefaults(t)

	a := oracle.Assessment{
		Type:     "country",
		Keywords: []string{"Ukraine", "Kyiv", "Donbas"},
		Domains:  []string{"OSINT", "GEOINT", "HUMINT", "signals"},
	}
	plan := sweepPlan(a, "Ukraine", 20)
	assert.Equal(t, []string{"Ukraine", "Kyiv"}, plan.Keywords)
	assert.Equal(t, []string{"Ukraine"}, plan.Locations)
	assert.Equal(t, []string{"OSINT", "GEOINT", "COMINT"}, plan.Domains)
	assert.Equal(t, 20, plan.Limit)
	assert.Equal(t, "global", plan.FlightRegion)
}

func TestSweepPlanFallbackAssessment(t *testing.T) {
	withDefaults(t)

	plan := sweepPlan(oracle.FallbackAssessment("ransomware"), "ransomware", 10)
	assert.Equal(t, []string{"ransomware"}, plan.Keywords)
	assert.Empty(t, plan.Locations, "only place-like targets are geocoded")
	assert.Equal(t, []string{"OSINT", "CYBINT"}, plan.Domains)
}

func TestResolveRegion(t *testing.T) {
	r, err := resolveRegion(collect.FlightRegions, "taiwan", "")
	require.NoError(t, err)
	assert.Equal(t, "Taiwan", r.Name)

	r, err = resolveRegion(collect.FlightRegions, "taiwan", "10,20,30,40")
	require.NoError(t, err)
	assert.Equal(t, "Custom", r.Name)
	assert.Equal(t, 10.0, r.LatMin)
	assert.Equal(t, 40.0, r.LonMax)
}
