// Package advisory talks to the external agronomy advisory service for soil
// analysis and crop, fertilizer and pesticide recommendations.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NYARANGA-ROB/Smart/internal/config"
	"github.com/NYARANGA-ROB/Smart/internal/models"
)

// SoilSample describes the field measurements submitted for analysis.
type SoilSample struct {
	Location      models.GeoPoint `json:"location"`
	SoilType      string          `json:"soilType"`
	PHLevel       float64         `json:"phLevel"`
	Nitrogen      float64         `json:"nitrogen"`
	Phosphorus    float64         `json:"phosphorus"`
	Potassium     float64         `json:"potassium"`
	OrganicMatter float64         `json:"organicMatter"`
	Moisture      float64         `json:"moisture"`
}

// SoilAnalysis is the advisory service's assessment of a sample.
type SoilAnalysis struct {
	Fertility   string   `json:"fertility"`
	Score       float64  `json:"score"`
	Limitations []string `json:"limitations"`
	Suggestions []string `json:"suggestions"`
}

// CropQuery asks for ranked crop suggestions given analysed soil and the
// season's constraints.
type CropQuery struct {
	Analysis       *SoilAnalysis   `json:"soilAnalysis"`
	Location       models.GeoPoint `json:"location"`
	Season         string          `json:"season"`
	AvailableWater float64         `json:"availableWater"`
	Budget         float64         `json:"budget"`
	Labor          string          `json:"laborAvailability"`
}

// CropRecommendation is one ranked crop suggestion.
type CropRecommendation struct {
	CropID     string  `json:"cropId"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// FertilizerQuery asks for a fertilizer schedule for one crop within a budget.
type FertilizerQuery struct {
	Crop     string        `json:"crop"`
	Analysis *SoilAnalysis `json:"soilAnalysis"`
	Budget   float64       `json:"budget"`
}

// FertilizerPlan is the returned schedule.
type FertilizerPlan struct {
	Products      []string `json:"products"`
	Schedule      string   `json:"schedule"`
	EstimatedCost float64  `json:"estimatedCost"`
}

// PesticideQuery asks for treatments against a pest class on a crop.
type PesticideQuery struct {
	CropID   string  `json:"cropId"`
	PestType string  `json:"pestType"`
	Severity string  `json:"severity"`
	Budget   float64 `json:"budget"`
}

// PesticideRecommendation is one suggested treatment.
type PesticideRecommendation struct {
	Product     string  `json:"product"`
	Type        string  `json:"type"`
	Dosage      string  `json:"dosage"`
	Cost        float64 `json:"cost"`
	Organic     bool    `json:"organic"`
	Precautions string  `json:"precautions"`
}

// Service is the advisory API surface the handlers depend on.
type Service interface {
	AnalyzeSoil(ctx context.Context, sample SoilSample) (*SoilAnalysis, error)
	RecommendCrops(ctx context.Context, q CropQuery) ([]CropRecommendation, error)
	RecommendFertilizer(ctx context.Context, q FertilizerQuery) (*FertilizerPlan, error)
	RecommendPesticides(ctx context.Context, q PesticideQuery) ([]PesticideRecommendation, error)
}

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(cfg config.AdvisoryConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		rb, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("advisory %s returned %d: %s", path, resp.StatusCode, string(rb))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) AnalyzeSoil(ctx context.Context, sample SoilSample) (*SoilAnalysis, error) {
	var out SoilAnalysis
	if err := c.post(ctx, "/v1/soil/analyze", sample, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecommendCrops(ctx context.Context, q CropQuery) ([]CropRecommendation, error) {
	var out struct {
		Recommendations []CropRecommendation `json:"recommendations"`
	}
	if err := c.post(ctx, "/v1/crops/recommend", q, &out); err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}

func (c *Client) RecommendFertilizer(ctx context.Context, q FertilizerQuery) (*FertilizerPlan, error) {
	var out FertilizerPlan
	if err := c.post(ctx, "/v1/fertilizer/recommend", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecommendPesticides(ctx context.Context, q PesticideQuery) ([]PesticideRecommendation, error) {
	var out struct {
		Recommendations []PesticideRecommendation `json:"recommendations"`
	}
	if err := c.post(ctx, "/v1/pesticides/recommend", q, &out); err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}
