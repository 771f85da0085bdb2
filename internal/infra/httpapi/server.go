// internal/infra/httpapi/server.go
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"student_schedule_bot/internal/app"
	"student_schedule_bot/internal/infra/metrics"
)

const (
	defaultUpcomingLimit = 10
	maxUpcomingLimit     = 100
	shutdownTimeout      = 10 * time.Second
)

// ScheduleReader is the read side of app.ScheduleService the API exposes.
type ScheduleReader interface {
	ExportDocument(ctx context.Context) (string, error)
	UpcomingAssignments(ctx context.Context, limit int) ([]app.DueAssignment, error)
}

type upcomingItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CourseCode string    `json:"courseCode"`
	DueDate    string    `json:"dueDate"`
	DueTime    string    `json:"dueTime"`
	Due        time.Time `json:"due"`
	Priority   string    `json:"priority"`
}

// NewRouter builds the gin engine. m may be nil, in which case /metrics is
// not mounted.
func NewRouter(reader ScheduleReader, m *metrics.Metrics, logger *logrus.Entry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestMetrics(m))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.GET("/calendar.ics", func(c *gin.Context) {
		doc, err := reader.ExportDocument(c.Request.Context())
		if err != nil {
			logger.WithError(err).Error("Calendar export over HTTP failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="schedule.ics"`)
		c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(doc))
	})

	r.GET("/api/upcoming", func(c *gin.Context) {
		limit := defaultUpcomingLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxUpcomingLimit {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
				return
			}
			limit = n
		}

		due, err := reader.UpcomingAssignments(c.Request.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("Listing upcoming assignments failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
			return
		}
		items := make([]upcomingItem, 0, len(due))
		for _, d := range due {
			items = append(items, upcomingItem{
				ID:         d.Assignment.ID,
				Title:      d.Assignment.Title,
				CourseCode: d.Assignment.CourseCode,
				DueDate:    d.Assignment.DueDate,
				DueTime:    d.Assignment.DueTime,
				Due:        d.Due,
				Priority:   string(d.Assignment.Priority.Normalize()),
			})
		}
		c.JSON(http.StatusOK, gin.H{"data": items})
	})

	return r
}

func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// Server runs the router until its context is cancelled.
type Server struct {
	srv    *http.Server
	logger *logrus.Entry
}

func NewServer(addr string, handler http.Handler, logger *logrus.Entry) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.WithField("component", "http_api"),
	}
}

// Run blocks until ctx is done, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.srv.Addr).Info("HTTP API listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("HTTP API stopped")
	return nil
}
