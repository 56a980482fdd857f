package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/lbcore/internal/balancer"
	"github.com/angeloszaimis/lbcore/internal/handler"
	"github.com/angeloszaimis/lbcore/internal/request"
	"github.com/angeloszaimis/lbcore/internal/server"
	"github.com/angeloszaimis/lbcore/internal/strategy"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(GinkgoWriter, nil))
}

func staticProcessor(status int, elapsed time.Duration) balancer.Processor {
	return balancer.ProcessorFunc(func(context.Context, *request.Request, *server.Server) (int, time.Duration) {
		return status, elapsed
	})
}

func newBalancer(strat strategy.Strategy) *balancer.LoadBalancer {
	lb := balancer.New("edge-lb", strat, nil, staticProcessor(http.StatusOK, 42*time.Millisecond), nil, testLogger())
	lb.AddServer(server.New("srv-a", "10.0.0.1", 8081))
	lb.AddServer(server.New("srv-b", "10.0.0.2", 8082))
	return lb
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
	return body
}

var _ = Describe("Handler", func() {
	var (
		h  *handler.LoadBalancerHandler
		lb *balancer.LoadBalancer
	)

	BeforeEach(func() {
		lb = newBalancer(strategy.NewRoundRobinStrategy())
		h = handler.New(testLogger(), lb)
	})

	Describe("New", func() {
		It("creates a handler", func() {
			Expect(h).NotTo(BeNil())
		})
	})

	Describe("ServeHTTP", func() {
		It("routes the request and writes the JSON envelope", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
			req.RemoteAddr = "192.0.2.1:51234"
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
			Expect(w.Header().Get("X-Backend-Server")).To(Equal("srv-a"))

			body := decodeBody(w)
			Expect(body).To(HaveKeyWithValue("status_code", float64(http.StatusOK)))
			Expect(body).To(HaveKeyWithValue("source_server", "srv-a"))
			Expect(body).To(HaveKeyWithValue("processing_time_ms", float64(42)))
			Expect(body["request_id"]).NotTo(BeEmpty())
			Expect(body["data"]).To(ContainSubstring("Response from srv-a"))
		})

		It("cycles across backends on consecutive requests", func() {
			var seen []string
			for i := 0; i < 4; i++ {
				req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
				req.RemoteAddr = "192.0.2.1:51234"
				w := httptest.NewRecorder()
				h.ServeHTTP(w, req)
				seen = append(seen, w.Header().Get("X-Backend-Server"))
			}

			Expect(seen).To(Equal([]string{"srv-a", "srv-b", "srv-a", "srv-b"}))
		})

		Context("with an IP-hash strategy", func() {
			BeforeEach(func() {
				lb = newBalancer(strategy.NewIPHashStrategy())
				h = handler.New(testLogger(), lb)
			})

			It("keys affinity on the first X-Forwarded-For entry", func() {
				var seen []string
				for i := 0; i < 3; i++ {
					req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
					req.RemoteAddr = "10.9.8.7:40000"
					req.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.2")
					w := httptest.NewRecorder()
					h.ServeHTTP(w, req)
					seen = append(seen, w.Header().Get("X-Backend-Server"))
				}

				Expect(seen[1]).To(Equal(seen[0]))
				Expect(seen[2]).To(Equal(seen[0]))
			})
		})

		Context("with no healthy backends", func() {
			BeforeEach(func() {
				for _, srv := range lb.Servers() {
					srv.SetHealthy(false)
				}
			})

			It("returns the 503 envelope", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
				req.RemoteAddr = "192.0.2.1:51234"
				w := httptest.NewRecorder()

				h.ServeHTTP(w, req)

				Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
				Expect(w.Header().Get("X-Backend-Server")).To(BeEmpty())

				body := decodeBody(w)
				Expect(body).To(HaveKeyWithValue("data", "Service Unavailable - No healthy backends"))
				Expect(body).NotTo(HaveKey("source_server"))
			})
		})

		Context("with a stopped balancer", func() {
			BeforeEach(func() {
				lb.Shutdown()
			})

			It("returns 503 with a plain text body", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
				req.RemoteAddr = "192.0.2.1:51234"
				w := httptest.NewRecorder()

				h.ServeHTTP(w, req)

				Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
				Expect(w.Body.String()).To(ContainSubstring("Load balancer is shut down"))
				Expect(w.Header().Get("Content-Type")).NotTo(Equal("application/json"))
			})
		})
	})
})
