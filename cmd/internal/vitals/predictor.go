package vitals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Prediction is a risk assessment for one reading.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Predictor scores a reading. Implementations must treat failure as a normal
// outcome; ingest never blocks on a prediction.
type Predictor interface {
	Predict(ctx context.Context, r Reading) (Prediction, error)
}

// HTTPPredictor calls an external model service over HTTP.
type HTTPPredictor struct {
	baseURL string
	client  *http.Client
}

// DefaultPredictorTimeout bounds each prediction call.
const DefaultPredictorTimeout = 2 * time.Second

// NewHTTPPredictor creates a predictor targeting baseURL (POST {baseURL}/predict).
func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	if timeout <= 0 {
		timeout = DefaultPredictorTimeout
	}
	return &HTTPPredictor{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	HeartRate    int     `json:"heart_rate"`
	Systolic     int     `json:"systolic"`
	Diastolic    int     `json:"diastolic"`
	SpO2         int     `json:"spo2"`
	TemperatureC float64 `json:"temperature_c"`
}

// Predict posts the reading's measurements and decodes the model's answer.
func (p *HTTPPredictor) Predict(ctx context.Context, r Reading) (Prediction, error) {
	body, err := json.Marshal(predictRequest{
		HeartRate:    r.HeartRate,
		Systolic:     r.Systolic,
		Diastolic:    r.Diastolic,
		SpO2:         r.SpO2,
		TemperatureC: r.TemperatureC,
	})
	if err != nil {
		return Prediction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Prediction{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Prediction{}, fmt.Errorf("predictor: unexpected status %d", resp.StatusCode)
	}

	var out Prediction
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Prediction{}, err
	}
	return out, nil
}
