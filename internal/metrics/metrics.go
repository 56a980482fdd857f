package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxSamples bounds the per-server response time window used for
// percentile calculation. Older samples fall off the front.
const maxSamples = 1000

type Metrics struct {
	mutex         sync.RWMutex
	routed        map[string]int64
	rejected      int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	healthStatus  map[string]bool
	startTime     time.Time
}

type Snapshot struct {
	TotalRouted   int64                    `json:"total_routed"`
	TotalRejected int64                    `json:"total_rejected"`
	Uptime        time.Duration            `json:"uptime"`
	Servers       map[string]ServerMetrics `json:"servers"`
	Strategy      string                   `json:"strategy"`
}

type ServerMetrics struct {
	Routed      int64         `json:"routed"`
	Healthy     bool          `json:"healthy"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		routed:        make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		healthStatus:  make(map[string]bool),
		startTime:     time.Now(),
	}
}

func (m *Metrics) RecordRouted(serverID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.routed[serverID]++
}

// RecordRejected counts a request that found no healthy server. Rejections
// carry no server attribution.
func (m *Metrics) RecordRejected() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rejected++
}

func (m *Metrics) RecordResponse(serverID string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[serverID] = append(m.responseTimes[serverID], duration)

	if len(m.responseTimes[serverID]) > maxSamples {
		m.responseTimes[serverID] = m.responseTimes[serverID][1:]
	}

	if m.statusCodes[serverID] == nil {
		m.statusCodes[serverID] = make(map[int]int64)
	}
	m.statusCodes[serverID][statusCode]++
}

func (m *Metrics) UpdateHealthStatus(serverID string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[serverID] = healthy
}

func (m *Metrics) Snapshot(strategy string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		TotalRejected: m.rejected,
		Uptime:        time.Since(m.startTime),
		Servers:       make(map[string]ServerMetrics),
		Strategy:      strategy,
	}

	// Collect every server id seen by any event stream.
	allServers := make(map[string]bool)
	for id := range m.routed {
		allServers[id] = true
	}
	for id := range m.responseTimes {
		allServers[id] = true
	}
	for id := range m.healthStatus {
		allServers[id] = true
	}

	for id := range allServers {
		snap.TotalRouted += m.routed[id]

		sm := ServerMetrics{
			Routed:      m.routed[id],
			Healthy:     m.healthStatus[id],
			StatusCodes: copyCodes(m.statusCodes[id]),
		}

		durations := m.responseTimes[id]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			sm.AvgResponse = average(sorted)
			sm.P50Response = percentile(sorted, 0.50)
			sm.P95Response = percentile(sorted, 0.95)
			sm.P99Response = percentile(sorted, 0.99)
		}

		snap.Servers[id] = sm
	}

	return snap
}

// copyCodes detaches the status code counts from the live map so a snapshot
// does not change after it is returned.
func copyCodes(codes map[int]int64) map[int]int64 {
	if codes == nil {
		return nil
	}

	out := make(map[int]int64, len(codes))
	for code, count := range codes {
		out[code] = count
	}
	return out
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
