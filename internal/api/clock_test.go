package api

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/goleak"
)

var _ = Describe("GET /ws/clock", func() {
	var (
		h    *harness
		ts   *httptest.Server
		conn *websocket.Conn
	)

	BeforeEach(func() {
		h = newHarness()
		ts, conn = dialClock(h)
	})

	AfterEach(func() {
		conn.Close()
		ts.Close()
		h.Close()
	})

	readUntil := func(match func(clockFrame) bool) clockFrame {
		return readFrame(conn, match)
	}

	It("streams bounded frames", func() {
		f := readUntil(func(f clockFrame) bool { return f.T > 0.1 })
		Expect(math.Abs(f.Left)).To(BeNumerically("<", 90))
		Expect(math.Abs(f.Right)).To(BeNumerically("<", 90))
		Expect(f.Revealed).To(BeFalse())
	})

	It("reveals once the client reports enough progress", func() {
		Expect(conn.WriteJSON(map[string]float64{"progress": 0.9})).To(Succeed())
		f := readUntil(func(f clockFrame) bool { return f.Revealed })
		Expect(f.Sync).To(BeNumerically("~", 0.9, 1e-9))

		Expect(conn.WriteJSON(map[string]float64{"progress": 0.1})).To(Succeed())
		f = readUntil(func(f clockFrame) bool { return f.Sync < 0.5 })
		Expect(f.Revealed).To(BeTrue())
	})

	It("maps scroll positions to progress", func() {
		Expect(conn.WriteJSON(map[string]float64{"scroll": 150, "start": 100, "end": 200})).To(Succeed())
		f := readUntil(func(f clockFrame) bool { return f.Sync > 0 })
		Expect(f.Sync).To(BeNumerically("~", 0.5, 1e-9))
	})

	It("ignores malformed messages", func() {
		Expect(conn.WriteMessage(websocket.TextMessage, []byte("{"))).To(Succeed())
		Expect(conn.WriteJSON(map[string]float64{"progress": 0.3})).To(Succeed())
		f := readUntil(func(f clockFrame) bool { return f.Sync > 0 })
		Expect(f.Sync).To(BeNumerically("~", 0.3, 1e-9))
	})

	It("tears the loop down when the client leaves", func() {
		ignore := goleak.IgnoreCurrent()
		ts2, conn2 := dialClock(h)
		readFrame(conn2, func(clockFrame) bool { return true })

		conn2.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		conn2.Close()
		ts2.Close()

		goleak.VerifyNone(GinkgoT(), ignore)
	})

	It("closes open streams on shutdown", func() {
		readUntil(func(clockFrame) bool { return true })

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		Expect(h.server.Shutdown(ctx)).To(Succeed())

		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var err error
		for err == nil {
			_, _, err = conn.ReadMessage()
		}
		var ne net.Error
		Expect(errors.As(err, &ne) && ne.Timeout()).To(BeFalse(), "stream still open: %v", err)

		_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/clock", nil)
		Expect(err).To(HaveOccurred())
		Expect(resp).NotTo(BeNil())
		Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
	})
})

func dialClock(h *harness) (*httptest.Server, *websocket.Conn) {
	ts := httptest.NewServer(h.server.Handler())
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/clock", nil)
	Expect(err).NotTo(HaveOccurred())
	return ts, conn
}

func readFrame(conn *websocket.Conn, match func(clockFrame) bool) clockFrame {
	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		var f clockFrame
		Expect(conn.ReadJSON(&f)).To(Succeed())
		if match(f) {
			return f
		}
	}
}
