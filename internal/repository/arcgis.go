package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"area-resolver-api/internal/models"

	"github.com/paulmach/orb/geojson"
)

const (
	// DefaultQueryTimeout bounds a single spatial query.
	DefaultQueryTimeout = 10 * time.Second

	// DefaultBulkTimeout bounds a full-layer download, including all pages.
	DefaultBulkTimeout = 30 * time.Second

	// DefaultMaxPages caps exceededTransferLimit paging for a bulk download.
	DefaultMaxPages = 50

	// maxResponseBytes limits one response body to 64 MB.
	maxResponseBytes = 64 << 20
)

// ArcGISOption configures an ArcGISClient.
type ArcGISOption func(*ArcGISClient)

// WithHTTPClient overrides the HTTP client (useful for testing).
func WithHTTPClient(client *http.Client) ArcGISOption {
	return func(c *ArcGISClient) {
		c.client = client
	}
}

// WithQueryTimeout sets the timeout for a point query.
func WithQueryTimeout(d time.Duration) ArcGISOption {
	return func(c *ArcGISClient) {
		if d > 0 {
			c.queryTimeout = d
		}
	}
}

// WithBulkTimeout sets the timeout for a full-layer download.
func WithBulkTimeout(d time.Duration) ArcGISOption {
	return func(c *ArcGISClient) {
		if d > 0 {
			c.bulkTimeout = d
		}
	}
}

// WithMaxPages sets the maximum number of pages fetched by DownloadAllFeatures.
func WithMaxPages(n int) ArcGISOption {
	return func(c *ArcGISClient) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// ArcGISClient queries ArcGIS REST feature layers for boundary polygons.
type ArcGISClient struct {
	client       *http.Client
	queryTimeout time.Duration
	bulkTimeout  time.Duration
	maxPages     int
}

// NewArcGISClient creates a new boundary service client
func NewArcGISClient(opts ...ArcGISOption) *ArcGISClient {
	c := &ArcGISClient{
		queryTimeout: DefaultQueryTimeout,
		bulkTimeout:  DefaultBulkTimeout,
		maxPages:     DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	return c
}

// QueryContainingFeature asks the layer for the polygon intersecting point.
// A successful response with no features returns (nil, nil).
func (c *ArcGISClient) QueryContainingFeature(ctx context.Context, layer models.BoundaryLayer, point models.Point) (*geojson.Feature, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("geometry", formatCoord(point.Lng)+","+formatCoord(point.Lat))
	params.Set("geometryType", "esriGeometryPoint")
	params.Set("inSR", "4326")
	params.Set("spatialRel", "esriSpatialRelIntersects")
	params.Set("outFields", "*")
	params.Set("f", "geojson")

	page, err := c.fetch(ctx, layer, params)
	if err != nil {
		return nil, err
	}
	if len(page.collection.Features) == 0 {
		return nil, nil
	}
	return page.collection.Features[0], nil
}

// DownloadAllFeatures fetches every feature of the layer without a spatial filter.
func (c *ArcGISClient) DownloadAllFeatures(ctx context.Context, layer models.BoundaryLayer) ([]*geojson.Feature, error) {
	ctx, cancel := context.WithTimeout(ctx, c.bulkTimeout)
	defer cancel()

	var features []*geojson.Feature
	for pageNum := 0; pageNum < c.maxPages; pageNum++ {
		params := url.Values{}
		params.Set("where", "1=1")
		params.Set("outFields", "*")
		params.Set("f", "geojson")
		if pageNum > 0 {
			params.Set("resultOffset", strconv.Itoa(len(features)))
		}

		page, err := c.fetch(ctx, layer, params)
		if err != nil {
			return nil, err
		}
		features = append(features, page.collection.Features...)

		if !page.exceededTransferLimit || len(page.collection.Features) == 0 {
			return features, nil
		}
	}

	return nil, models.NewNetworkError(
		fmt.Sprintf("layer %s: bulk download exceeded %d pages", layer.Name, c.maxPages), nil)
}

type queryPage struct {
	collection            *geojson.FeatureCollection
	exceededTransferLimit bool
}

// arcgisEnvelope captures the parts of a response orb does not decode.
type arcgisEnvelope struct {
	Type  string `json:"type"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	ExceededTransferLimit bool `json:"exceededTransferLimit"`
	Properties            struct {
		ExceededTransferLimit bool `json:"exceededTransferLimit"`
	} `json:"properties"`
}

func (c *ArcGISClient) fetch(ctx context.Context, layer models.BoundaryLayer, params url.Values) (*queryPage, error) {
	if layer.EndpointBaseURL == "" {
		return nil, models.NewNetworkError(fmt.Sprintf("layer %s: endpoint is empty", layer.Name), nil)
	}

	endpoint := strings.TrimRight(layer.EndpointBaseURL, "/") + "/query?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, models.NewNetworkError(fmt.Sprintf("layer %s: creating request", layer.Name), err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, models.NewNetworkError(fmt.Sprintf("layer %s: HTTP GET", layer.Name), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewNetworkError(fmt.Sprintf("layer %s: status %d", layer.Name, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, models.NewNetworkError(fmt.Sprintf("layer %s: reading response", layer.Name), err)
	}

	var env arcgisEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, models.NewNetworkError(fmt.Sprintf("layer %s: malformed response", layer.Name), err)
	}
	if env.Error != nil {
		return nil, models.NewNetworkError(
			fmt.Sprintf("layer %s: service error %d: %s", layer.Name, env.Error.Code, env.Error.Message), nil)
	}
	if env.Type != "FeatureCollection" {
		return nil, models.NewNetworkError(fmt.Sprintf("layer %s: unexpected GeoJSON type %q", layer.Name, env.Type), nil)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, models.NewNetworkError(fmt.Sprintf("layer %s: malformed feature collection", layer.Name), err)
	}

	return &queryPage{
		collection:            fc,
		exceededTransferLimit: env.ExceededTransferLimit || env.Properties.ExceededTransferLimit,
	}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
