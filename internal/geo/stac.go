// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/pdiddy/intel-engine/internal/httputil"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// BBox is a west, south, east, north box in degrees.
type BBox [4]float64

// Around returns the box of half-width margin centered on loc.
func Around(loc Location, margin float64) BBox {
	return BBox{loc.Lon - margin, loc.Lat - margin, loc.Lon + margin, loc.Lat + margin}
}

// SceneQuery selects imagery.
type SceneQuery struct {
	BBox       BBox
	Start, End time.Time
	CloudMax   float64
	Limit      int
}

// Scene is one imagery item's metadata.
type Scene struct {
	ID         string
	Collection string
	Platform   string
	Datetime   time.Time
	CloudCover float64

	// Properties is the raw properties object as returned.
	Properties json.RawMessage
}

// Catalog searches a STAC API for scenes.
type Catalog struct {
	Client *http.Client
	Config types.GeoConfig
	Logger *zap.Logger
}

// NewCatalog returns a catalog client bounded by cfg.Timeout.
func NewCatalog(cfg types.GeoConfig) *Catalog {
	return &Catalog{Client: &http.Client{Timeout: cfg.Timeout}, Config: cfg}
}

type stacSearch struct {
	Collections []string                      `json:"collections"`
	BBox        []float64                     `json:"bbox"`
	Datetime    string                        `json:"datetime"`
	Query       map[string]map[string]float64 `json:"query,omitempty"`
	Limit       int                           `json:"limit"`
}

type stacFeatureCollection struct {
	Features []struct {
		ID         string          `json:"id"`
		Collection string          `json:"collection"`
		Properties json.RawMessage `json:"properties"`
	} `json:"features"`
}

// Search posts q to {STACURL}/search and returns the matching scenes.
func (c *Catalog) Search(ctx context.Context, q SceneQuery) ([]Scene, error) {
	body := stacSearch{
		Collections: []string{c.Config.Collection},
		BBox:        q.BBox[:],
		Datetime:    q.Start.UTC().Format(time.RFC3339) + "/" + q.End.UTC().Format(time.RFC3339),
		Limit:       q.Limit,
	}
	if q.CloudMax > 0 {
		body.Query = map[string]map[string]float64{"eo:cloud_cover": {"lt": q.CloudMax}}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling search: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.Config.STACURL, "/")+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var fc stacFeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decoding catalog response: %w", err)
	}

	scenes := make([]Scene, 0, len(fc.Features))
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}
	for _, f := range fc.Features {
		// The id keys the stored record; scenes without one cannot be deduplicated.
		if strings.TrimSpace(f.ID) == "" {
			log.Warn("catalog scene without id, skipping", zap.String("collection", f.Collection))
			continue
		}
		var props map[string]any
		if len(f.Properties) > 0 {
			if err := json.Unmarshal(f.Properties, &props); err != nil {
				log.Warn("decoding scene properties", zap.String("scene", f.ID), zap.Error(err))
			}
		}
		s := Scene{
			ID:         f.ID,
			Collection: f.Collection,
			Platform:   cast.ToString(props["platform"]),
			CloudCover: cast.ToFloat64(props["eo:cloud_cover"]),
			Properties: f.Properties,
		}
		if dt, err := cast.ToTimeE(props["datetime"]); err == nil {
			s.Datetime = dt.UTC()
		}
		scenes = append(scenes, s)
	}
	return scenes, nil
}
