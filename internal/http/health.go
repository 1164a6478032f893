package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pr2ps/levelimporter/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// StorePinger reports the connection state of the attached stores.
type StorePinger interface {
	PingStores() map[database.Kind]error
}

type HealthController struct {
	stores  StorePinger
	version string
}

func NewHealthController(stores StorePinger, version string) *HealthController {
	return &HealthController{
		stores:  stores,
		version: version,
	}
}

// Status handles GET /health. Stores that are not attached yet do not make
// the service unhealthy; a broken connection to an attached one does.
func (h *HealthController) Status(c *gin.Context) {
	checks := map[string]string{
		string(database.KindMain):   "not attached",
		string(database.KindLevels): "not attached",
	}
	status := "healthy"

	for kind, err := range h.stores.PingStores() {
		if err != nil {
			checks[string(kind)] = "error: " + err.Error()
			status = "unhealthy"
			continue
		}
		checks[string(kind)] = "ok"
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
