package httpserver_test

import (
	"context"
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/lbcore/internal/httpserver"
)

var _ = Describe("HTTP Server", func() {
	noopHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	Context("server creation", func() {
		It("creates a server with a valid address", func() {
			srv, err := httpserver.New("localhost:18081", noopHandler)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("creates a server with an IP address", func() {
			srv, err := httpserver.New("127.0.0.1:18081", noopHandler)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("handles a port-only address", func() {
			srv, err := httpserver.New(":18081", noopHandler)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("rejects an invalid address", func() {
			srv, err := httpserver.New("invalid:host:port", noopHandler)
			Expect(err).To(HaveOccurred())
			Expect(srv).To(BeNil())
		})

		It("rejects an address without a port", func() {
			srv, err := httpserver.New("localhost:", noopHandler)
			Expect(err).To(HaveOccurred())
			Expect(srv).To(BeNil())
		})
	})

	Context("server lifecycle", func() {
		var testServer *httpserver.Server

		AfterEach(func() {
			if testServer != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
				defer cancel()
				_ = testServer.Shutdown(ctx)
			}
		})

		It("starts and handles requests", func() {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("routed"))
			})
			var err error
			testServer, err = httpserver.New(":18082", handler)
			Expect(err).NotTo(HaveOccurred())

			go func() {
				defer GinkgoRecover()
				Expect(testServer.Start()).To(Succeed())
			}()

			var resp *http.Response
			Eventually(func() error {
				resp, err = http.Get("http://localhost:18082")
				return err
			}).Should(Succeed())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(Equal("routed"))
		})

		It("shuts down gracefully", func() {
			var err error
			testServer, err = httpserver.New(":18083", noopHandler)
			Expect(err).NotTo(HaveOccurred())

			started := make(chan error, 1)
			go func() {
				started <- testServer.Start()
			}()

			Eventually(func() error {
				_, getErr := http.Get("http://localhost:18083")
				return getErr
			}).Should(Succeed())

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			Expect(testServer.Shutdown(ctx)).To(Succeed())
			Eventually(started).Should(Receive(BeNil()))
		})
	})
})
