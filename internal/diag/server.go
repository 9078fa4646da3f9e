package diag

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

const viewerPage = `<!DOCTYPE html>
<html>
<head>
<title>Heat Pump Monitor - Log</title>
<style>
body { background: #101418; color: #c8d0d8; font-family: monospace; margin: 0; }
#bar { padding: 8px 12px; background: #1a2028; position: sticky; top: 0; }
#bar span { color: #6a7684; margin-right: 16px; }
pre { padding: 12px; margin: 0; white-space: pre-wrap; word-break: break-all; }
</style>
</head>
<body>
<div id="bar"><span id="pos">pos: 0</span><span id="heap"></span></div>
<pre id="log"></pre>
<script>
let pos = 0;
async function poll() {
  try {
    const res = await fetch('/api/log?pos=' + pos);
    const data = await res.json();
    if (data.text) {
      document.getElementById('log').textContent += data.text;
      window.scrollTo(0, document.body.scrollHeight);
    }
    pos = data.pos;
    document.getElementById('pos').textContent = 'pos: ' + pos;
    document.getElementById('heap').textContent = 'mem: ' + data.heap;
  } catch (e) {}
}
poll();
setInterval(poll, 2000);
</script>
</body>
</html>`

// Server serves the log viewer and a health endpoint on the local network.
type Server struct {
	ring   *LogRing
	logger *zap.Logger
	srv    *http.Server
}

// NewServer builds the diagnostics server around the given log ring.
func NewServer(ring *LogRing, listen string, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{ring: ring, logger: logger}
	router.GET("/", s.handleIndex)
	router.GET("/api/log", s.handleLog)
	router.GET("/healthz", s.handleHealth)

	s.srv = &http.Server{Addr: listen, Handler: router}
	return s
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(viewerPage))
}

func (s *Server) handleLog(c *gin.Context) {
	pos, err := strconv.ParseUint(c.DefaultQuery("pos", "0"), 10, 64)
	if err != nil {
		pos = 0
	}

	text, next := s.ring.ReadFrom(pos, 64*1024)

	heap := "n/a"
	if vm, err := mem.VirtualMemory(); err == nil {
		heap = strconv.FormatUint(vm.Used/1024/1024, 10) + " MiB"
	}

	c.JSON(http.StatusOK, gin.H{
		"text": string(text),
		"pos":  next,
		"heap": heap,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	uptime, err := host.Uptime()
	if err != nil {
		uptime = 0
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": uptime,
	})
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Diagnostics server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Diagnostics server failed", zap.Error(err))
		}
	}()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("Diagnostics server shutdown", zap.Error(err))
	}
}
