package service

import (
	"encoding/json"
	"fmt"
)

// Metrics are the values achievement criteria can test.
type Metrics struct {
	TotalTests   int
	AverageWPM   float64
	BestWPM      float64
	BestAccuracy float64
	Languages    int
}

// Criteria is the JSON document stored with an achievement.
type Criteria struct {
	Metric string  `json:"metric"`
	Min    float64 `json:"min"`
}

// Met reports whether metrics satisfy the criteria document.
func Met(criteria string, m Metrics) (bool, error) {
	var c Criteria
	if err := json.Unmarshal([]byte(criteria), &c); err != nil {
		return false, fmt.Errorf("failed to decode criteria: %w", err)
	}
	var value float64
	switch c.Metric {
	case "totalTests":
		value = float64(m.TotalTests)
	case "averageWpm":
		value = m.AverageWPM
	case "bestWpm":
		value = m.BestWPM
	case "bestAccuracy":
		value = m.BestAccuracy
	case "languages":
		value = float64(m.Languages)
	default:
		return false, fmt.Errorf("unknown metric %q", c.Metric)
	}
	return value >= c.Min, nil
}
