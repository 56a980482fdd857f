package balancer

// Stats is a read-only aggregation over the pool at call time. It is not
// transactionally consistent with concurrent mutation.
type Stats struct {
	Name           string        `json:"name"`
	TotalServers   int           `json:"total_servers"`
	HealthyServers int           `json:"healthy_servers"`
	Servers        []ServerStats `json:"servers"`
}

type ServerStats struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Healthy   bool   `json:"healthy"`
	LoadCount uint64 `json:"load_count"`
}

func (lb *LoadBalancer) Stats() Stats {
	servers := lb.pool.Snapshot()

	stats := Stats{
		Name:         lb.name,
		TotalServers: len(servers),
		Servers:      make([]ServerStats, 0, len(servers)),
	}

	for _, srv := range servers {
		healthy := srv.IsHealthy()
		if healthy {
			stats.HealthyServers++
		}

		stats.Servers = append(stats.Servers, ServerStats{
			ID:        srv.ID(),
			Address:   srv.Address(),
			Healthy:   healthy,
			LoadCount: srv.LoadCount(),
		})
	}

	return stats
}
