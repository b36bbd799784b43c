package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rackforge/dashgate/pkg/observability"
)

// Validation errors surfaced to clients as 400s.
var (
	ErrInvalidDate          = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidDepot         = errors.New("depot must be one of 1, 2, 4")
	ErrMissingHostname      = errors.New("hostname is required")
	ErrIncompleteAssignment = errors.New("serial number, hostname, and DBID are required")
)

// Service answers dashboard queries from an in-memory fixture store.
// It stands in for the build system database.
type Service struct {
	logger *observability.Logger
	clock  clockwork.Clock
}

// NewService creates a dashboard service. A nil clock selects the real
// clock.
func NewService(logger *observability.Logger, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{logger: logger, clock: clock}
}

// BuildStatus returns the active builds across all regions.
func (s *Service) BuildStatus() BuildStatus {
	return BuildStatus{
		CBG: []Server{
			{RackID: "1-E", Hostname: "cbg-srv-001", DBID: "100001", SerialNumber: "SN-CBG-001", PercentBuilt: 55, AssignedStatus: AssignedStatusNotAssigned, MachineType: "Server", Status: StatusInstalling},
			{RackID: "2-A", Hostname: "cbg-srv-002", DBID: "100002", SerialNumber: "SN-CBG-002", PercentBuilt: 75, AssignedStatus: AssignedStatusNotAssigned, MachineType: "Server", Status: StatusInstalling},
			{RackID: "3-C", Hostname: "cbg-srv-003", DBID: "100003", SerialNumber: "SN-CBG-003", PercentBuilt: 100, AssignedStatus: AssignedStatusAssigned, MachineType: "Server", Status: StatusComplete},
		},
		DUB: []Server{
			{RackID: "1-B", Hostname: "dub-srv-001", DBID: "200001", SerialNumber: "SN-DUB-001", PercentBuilt: 45, AssignedStatus: AssignedStatusNotAssigned, MachineType: "Server", Status: StatusInstalling},
			{RackID: "2-D", Hostname: "dub-srv-002", DBID: "200002", SerialNumber: "SN-DUB-002", PercentBuilt: 90, AssignedStatus: AssignedStatusNotAssigned, MachineType: "Server", Status: StatusInstalling},
		},
		DAL: []Server{
			{RackID: "1-F", Hostname: "dal-srv-001", DBID: "300001", SerialNumber: "SN-DAL-001", PercentBuilt: 30, AssignedStatus: AssignedStatusNotAssigned, MachineType: "Server", Status: StatusInstalling},
			{RackID: "3-E", Hostname: "dal-srv-002", DBID: "300002", SerialNumber: "SN-DAL-002", PercentBuilt: 15, AssignedStatus: AssignedStatusNotAssigned, MachineType: "Server", Status: StatusFailed},
		},
	}
}

// BuildHistory returns completed builds for the given date. The date
// must be in YYYY-MM-DD form.
func (s *Service) BuildHistory(date string) (BuildHistory, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return BuildHistory{}, ErrInvalidDate
	}

	return BuildHistory{
		CBG: []Server{
			{RackID: "1-A", Hostname: fmt.Sprintf("cbg-hist-%s-001", date), DBID: "400001", SerialNumber: "SN-CBG-H001", PercentBuilt: 100, AssignedStatus: AssignedStatusAssigned, MachineType: "Server", Status: StatusComplete},
			{RackID: "2-B", Hostname: fmt.Sprintf("cbg-hist-%s-002", date), DBID: "400002", SerialNumber: "SN-CBG-H002", PercentBuilt: 100, AssignedStatus: AssignedStatusNotAssigned, MachineType: "Server", Status: StatusComplete},
		},
		DUB: []Server{
			{RackID: "1-C", Hostname: fmt.Sprintf("dub-hist-%s-001", date), DBID: "500001", SerialNumber: "SN-DUB-H001", PercentBuilt: 100, AssignedStatus: AssignedStatusAssigned, MachineType: "Server", Status: StatusComplete},
		},
		DAL: []Server{
			{RackID: "1-D", Hostname: fmt.Sprintf("dal-hist-%s-001", date), DBID: "600001", SerialNumber: "SN-DAL-H001", PercentBuilt: 100, AssignedStatus: AssignedStatusNotAssigned, MachineType: "Server", Status: StatusComplete},
		},
	}, nil
}

// Preconfigs returns all depot preconfigurations.
func (s *Service) Preconfigs() []Preconfig {
	now := s.clock.Now().UTC()
	return []Preconfig{
		{
			ID:    "pre-001",
			Depot: 1,
			Config: map[string]string{
				"os":      "Ubuntu 22.04 LTS",
				"cpu":     "2x Intel Xeon Gold 6248R",
				"ram":     "128GB DDR4",
				"storage": "4x 1TB NVMe SSD",
				"raid":    "RAID 10",
				"network": "2x 25Gbps",
			},
			CreatedAt: now,
		},
		{
			ID:    "pre-002",
			Depot: 1,
			Config: map[string]string{
				"os":      "CentOS 8 Stream",
				"cpu":     "2x AMD EPYC 7502",
				"ram":     "256GB DDR4",
				"storage": "8x 2TB NVMe SSD",
				"raid":    "RAID 6",
				"network": "2x 100Gbps",
			},
			CreatedAt: now,
		},
		{
			ID:    "pre-003",
			Depot: 2,
			Config: map[string]string{
				"os":      "Ubuntu 22.04 LTS",
				"cpu":     "2x Intel Xeon Gold 6348",
				"ram":     "512GB DDR4",
				"storage": "12x 4TB NVMe SSD",
				"raid":    "RAID 10",
				"network": "2x 100Gbps",
			},
			CreatedAt: now,
		},
		{
			ID:    "pre-004",
			Depot: 4,
			Config: map[string]string{
				"os":      "Rocky Linux 9",
				"cpu":     "2x AMD EPYC 7763",
				"ram":     "1TB DDR4",
				"storage": "16x 8TB NVMe SSD",
				"raid":    "RAID 60",
				"network": "4x 100Gbps",
			},
			CreatedAt: now,
		},
	}
}

// PushPreconfig pushes a preconfiguration to the named depot.
func (s *Service) PushPreconfig(req PushPreconfigRequest) (ActionResponse, error) {
	region, ok := depotRegions[req.Depot]
	if !ok {
		return ActionResponse{}, ErrInvalidDepot
	}

	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"depot":  req.Depot,
			"region": region,
		}).Info("preconfig pushed")
	}

	return ActionResponse{
		Status:  "success",
		Message: fmt.Sprintf("Preconfig pushed to depot %d (%s) successfully", req.Depot, region),
	}, nil
}

// Assign assigns a completed server to a customer.
func (s *Service) Assign(req AssignRequest) (ActionResponse, error) {
	if req.SerialNumber == "" || req.Hostname == "" || req.DBID == "" {
		return ActionResponse{}, ErrIncompleteAssignment
	}

	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"hostname":      req.Hostname,
			"dbid":          req.DBID,
			"serial_number": req.SerialNumber,
		}).Info("server assigned")
	}

	return ActionResponse{
		Status:  "success",
		Message: fmt.Sprintf("Server %s assigned successfully", req.Hostname),
	}, nil
}

// ServerDetails returns hardware and timing detail for one host.
func (s *Service) ServerDetails(hostname string) (ServerDetails, error) {
	if hostname == "" {
		return ServerDetails{}, ErrMissingHostname
	}

	now := s.clock.Now().UTC()
	start := now.Add(-2 * time.Hour)
	eta := now.Add(1 * time.Hour)
	heartbeat := now.Add(-5 * time.Minute)

	return ServerDetails{
		Server: Server{
			RackID:         "1-E",
			Hostname:       hostname,
			DBID:           "100001",
			SerialNumber:   "SN-SERVER-001",
			PercentBuilt:   65,
			AssignedStatus: AssignedStatusNotAssigned,
			MachineType:    "Server",
			Status:         StatusInstalling,
		},
		IPAddress:           "192.168.1.100",
		MACAddress:          "00:1A:2B:3C:4D:5E",
		CPUModel:            "Intel Xeon Gold 6248R",
		RAMGB:               128,
		StorageGB:           4000,
		InstallStartTime:    &start,
		EstimatedCompletion: &eta,
		LastHeartbeat:       &heartbeat,
	}, nil
}
