package model

import (
	"encoding/json"
	"time"

	"routekit/internal/opt"
)

// Point is a coordinate as it crosses the API and storage boundary.
type Point struct {
	ID int64   `json:"id" validate:"ne=0"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type DatasetIn struct {
	Name   string  `json:"name" validate:"required,max=200"`
	Points []Point `json:"points" validate:"required,min=1,dive"`
}

type Dataset struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Name      string    `json:"name"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// TSPRequest carries either a stored dataset id or inline points. Annealing
// parameters use the names of the pgr_TSPeuclidean arguments; unset ones fall
// back to the tenant's solver config and then the built-in defaults.
type TSPRequest struct {
	DatasetID                string   `json:"datasetId,omitempty" validate:"required_without=Points,omitempty,uuid"`
	Points                   []Point  `json:"points,omitempty" validate:"required_without=DatasetID,omitempty,dive"`
	StartID                  int64    `json:"start_id,omitempty"`
	EndID                    int64    `json:"end_id,omitempty"`
	MaxProcessingTime        *float64 `json:"max_processing_time,omitempty"` // seconds
	TriesPerTemperature      *int     `json:"tries_per_temperature,omitempty"`
	MaxChangesPerTemperature *int     `json:"max_changes_per_temperature,omitempty"`
	MaxConsecutiveNonChanges *int     `json:"max_consecutive_non_changes,omitempty"`
	InitialTemperature       *float64 `json:"initial_temperature,omitempty"`
	FinalTemperature         *float64 `json:"final_temperature,omitempty"`
	CoolingFactor            *float64 `json:"cooling_factor,omitempty"`
	Randomize                *bool    `json:"randomize,omitempty"`
	Seed                     int64    `json:"seed,omitempty"`
	Starts                   int      `json:"starts,omitempty" validate:"omitempty,min=1,max=64"`
}

type TSPResponse struct {
	RunID   string            `json:"runId"`
	Stops   []opt.TourStop    `json:"stops"`
	Cost    float64           `json:"cost"`
	Metrics opt.AnnealMetrics `json:"metrics"`
	Seed    int64             `json:"seed"`
	Start   int               `json:"start,omitempty"`
}

// StopIn is one stop of a vehicle or order. A nil Closes leaves the window open.
type StopIn struct {
	Node    int64    `json:"node"`
	Kind    string   `json:"kind,omitempty" validate:"omitempty,oneof=start pickup delivery end"`
	Order   int64    `json:"order,omitempty"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Demand  float64  `json:"demand,omitempty"`
	Opens   float64  `json:"opens,omitempty"`
	Closes  *float64 `json:"closes,omitempty"`
	Service float64  `json:"service,omitempty" validate:"gte=0"`
}

type VehicleIn struct {
	ID       int64    `json:"id"`
	Capacity float64  `json:"capacity" validate:"gte=0"`
	Speed    float64  `json:"speed,omitempty" validate:"gte=0"`
	Start    StopIn   `json:"start"`
	End      StopIn   `json:"end"`
	Stops    []StopIn `json:"stops,omitempty" validate:"dive"`
}

type FleetIn struct {
	Vehicles []VehicleIn `json:"vehicles" validate:"dive"`
}

type FleetCompareRequest struct {
	A FleetIn `json:"a"`
	B FleetIn `json:"b"`
}

type FleetReport struct {
	Cost          opt.CostVector  `json:"cost"`
	CostString    string          `json:"costString"`
	Feasible      bool            `json:"feasible"`
	TotalDuration float64         `json:"totalDuration"`
	TotalWaitTime float64         `json:"totalWaitTime"`
	TotalTWV      int             `json:"totalTwv"`
	TotalCV       int             `json:"totalCv"`
	Stops         []opt.FleetStop `json:"stops"`
}

type FleetCompareResponse struct {
	Ordering string      `json:"ordering"`
	A        FleetReport `json:"a"`
	B        FleetReport `json:"b"`
}

type OrderIn struct {
	ID       int64   `json:"id"`
	Demand   float64 `json:"demand" validate:"gte=0"`
	Pickup   StopIn  `json:"pickup"`
	Delivery StopIn  `json:"delivery"`
}

type PickDeliverRequest struct {
	Orders        []OrderIn   `json:"orders" validate:"required,min=1,dive"`
	Vehicles      []VehicleIn `json:"vehicles" validate:"required,min=1,dive"`
	MaxIterations int         `json:"maxIterations,omitempty" validate:"gte=0"`
}

type PickDeliverResponse struct {
	RunID string `json:"runId"`
	FleetReport
	Metrics opt.PickDeliverMetrics `json:"metrics"`
}

const (
	RunKindTSP         = "tsp"
	RunKindPickDeliver = "pickdeliver"

	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Run is a persisted solver invocation.
type Run struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenantId"`
	Kind       string          `json:"kind"`
	DatasetID  string          `json:"datasetId,omitempty"`
	Status     string          `json:"status"`
	Cost       float64         `json:"cost"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"durationMs"`
	CreatedAt  time.Time       `json:"createdAt"`
	Result     json.RawMessage `json:"result,omitempty"`
}
