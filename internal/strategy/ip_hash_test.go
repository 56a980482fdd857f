package strategy_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/lbcore/internal/server"
	"github.com/angeloszaimis/lbcore/internal/strategy"
)

var _ = Describe("IPHash", func() {
	var (
		strat   strategy.Strategy
		hasher  strategy.KeySetter
		servers []*server.Server
	)

	BeforeEach(func() {
		strat = strategy.NewIPHashStrategy()

		var ok bool
		hasher, ok = strat.(strategy.KeySetter)
		Expect(ok).To(BeTrue())

		servers = []*server.Server{
			server.New("server-a", "192.168.1.10", 8080),
			server.New("server-b", "192.168.1.11", 8080),
			server.New("server-c", "192.168.1.12", 8080),
		}
	})

	Describe("SelectServer", func() {
		It("should return the same server for the same key", func() {
			hasher.SetKey("192.168.1.100")
			first := strat.SelectServer(servers)
			Expect(first).NotTo(BeNil())

			for i := 0; i < 10; i++ {
				hasher.SetKey("192.168.1.100")
				Expect(strat.SelectServer(servers)).To(Equal(first))
			}
		})

		It("should spread distinct keys across servers", func() {
			seen := make(map[string]bool)
			for i := 0; i < 50; i++ {
				hasher.SetKey(fmt.Sprintf("10.0.0.%d", i))
				seen[strat.SelectServer(servers).ID()] = true
			}

			Expect(len(seen)).To(BeNumerically(">=", 2))
		})

		It("should fall through to the next healthy server", func() {
			hasher.SetKey("172.16.0.9")
			mapped := strat.SelectServer(servers)
			Expect(mapped).NotTo(BeNil())

			mapped.SetHealthy(false)

			hasher.SetKey("172.16.0.9")
			fallback := strat.SelectServer(servers)
			Expect(fallback).NotTo(BeNil())
			Expect(fallback).NotTo(Equal(mapped))
			Expect(fallback.IsHealthy()).To(BeTrue())
		})

		It("should stay deterministic while pool state is fixed", func() {
			servers[1].SetHealthy(false)

			hasher.SetKey("172.16.0.9")
			first := strat.SelectServer(servers)

			for i := 0; i < 10; i++ {
				hasher.SetKey("172.16.0.9")
				Expect(strat.SelectServer(servers)).To(Equal(first))
			}
		})

		It("should return nil when every server is unhealthy", func() {
			for _, s := range servers {
				s.SetHealthy(false)
			}

			hasher.SetKey("192.168.1.100")
			Expect(strat.SelectServer(servers)).To(BeNil())
		})

		It("should return nil for an empty server list", func() {
			hasher.SetKey("192.168.1.100")
			Expect(strat.SelectServer(nil)).To(BeNil())
		})
	})
})
