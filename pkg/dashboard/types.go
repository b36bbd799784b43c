package dashboard

import "time"

// Server states as reported by the build pipeline.
const (
	StatusInstalling = "installing"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
)

// Assignment states.
const (
	AssignedStatusAssigned    = "assigned"
	AssignedStatusNotAssigned = "not assigned"
)

// Region codes and their depot numbers. Depot 3 was retired with the
// old AMS facility and is intentionally absent.
var depotRegions = map[int]string{
	1: "CBG",
	2: "DUB",
	4: "DAL",
}

// Server is one machine in a rack as the build pipeline sees it.
type Server struct {
	RackID         string `json:"rackID"`
	Hostname       string `json:"hostname"`
	DBID           string `json:"dbid"`
	SerialNumber   string `json:"serial_number"`
	PercentBuilt   int    `json:"percent_built"`
	AssignedStatus string `json:"assigned_status"`
	MachineType    string `json:"machine_type"`
	Status         string `json:"status"`
}

// ServerDetails extends Server with hardware and timing information.
type ServerDetails struct {
	Server

	IPAddress           string     `json:"ip_address,omitempty"`
	MACAddress          string     `json:"mac_address,omitempty"`
	CPUModel            string     `json:"cpu_model,omitempty"`
	RAMGB               int        `json:"ram_gb,omitempty"`
	StorageGB           int        `json:"storage_gb,omitempty"`
	InstallStartTime    *time.Time `json:"install_start_time,omitempty"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
	LastHeartbeat       *time.Time `json:"last_heartbeat,omitempty"`
}

// BuildStatus groups active builds by region.
type BuildStatus struct {
	CBG []Server `json:"cbg"`
	DUB []Server `json:"dub"`
	DAL []Server `json:"dal"`
}

// BuildHistory groups completed builds by region for a single date.
type BuildHistory struct {
	CBG []Server `json:"cbg"`
	DUB []Server `json:"dub"`
	DAL []Server `json:"dal"`
}

// Preconfig is a depot build preconfiguration.
type Preconfig struct {
	ID        string            `json:"id"`
	Depot     int               `json:"depot"`
	Config    map[string]string `json:"config"`
	CreatedAt time.Time         `json:"created_at"`
}

// PushPreconfigRequest asks for a preconfig push to one depot.
type PushPreconfigRequest struct {
	Depot int `json:"depot"`
}

// AssignRequest assigns a completed server to a customer.
type AssignRequest struct {
	SerialNumber string `json:"serial_number"`
	Hostname     string `json:"hostname"`
	DBID         string `json:"dbid"`
}

// ActionResponse is the common status/message payload for mutations.
type ActionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
