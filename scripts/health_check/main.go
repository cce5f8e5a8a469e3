package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"margin-gateway/pkg/config"
	"margin-gateway/pkg/db"
)

type HealthStatus struct {
	Service   string    `json:"service"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type HealthReport struct {
	Overall  string         `json:"overall"`
	Services []HealthStatus `json:"services"`
}

var requiredTables = []string{"accounts", "orders", "nonces"}

func main() {
	fmt.Println("Margin Gateway Health Check")
	fmt.Println("===========================")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("✗ Configuration        UNHEALTHY %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report := HealthReport{Overall: "HEALTHY"}
	report.Services = append(report.Services,
		checkDatabase(ctx, cfg),
		checkVenue(ctx, cfg),
		checkAPIServer(ctx, cfg),
	)

	for _, svc := range report.Services {
		if svc.Status == "UNHEALTHY" {
			report.Overall = "UNHEALTHY"
			break
		} else if svc.Status == "DEGRADED" {
			report.Overall = "DEGRADED"
		}
	}

	fmt.Println()
	for _, svc := range report.Services {
		statusIcon := "✓"
		if svc.Status == "UNHEALTHY" {
			statusIcon = "✗"
		} else if svc.Status == "DEGRADED" {
			statusIcon = "⚠"
		}
		fmt.Printf("%s %-20s %s %s\n", statusIcon, svc.Service, svc.Status, svc.Message)
	}
	fmt.Printf("\nOverall Status: %s\n", report.Overall)

	if len(os.Args) > 1 && os.Args[1] == "--json" {
		jsonData, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(jsonData))
	}
	if report.Overall == "UNHEALTHY" {
		os.Exit(1)
	}
}

func newStatus(service string) HealthStatus {
	return HealthStatus{Service: service, Status: "HEALTHY", Timestamp: time.Now()}
}

// checkDatabase pings the store and confirms the gateway tables exist.
func checkDatabase(ctx context.Context, cfg *config.Config) HealthStatus {
	status := newStatus("Database")

	database, err := db.New(cfg.DBPath)
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Connection failed: %v", err)
		return status
	}
	defer database.Close()

	if err := database.DB.PingContext(ctx); err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Ping failed: %v", err)
		return status
	}

	for _, table := range requiredTables {
		var name string
		err := database.DB.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
		if err != nil {
			status.Status = "DEGRADED"
			status.Message = fmt.Sprintf("table %s missing, run with -init-db", table)
			return status
		}
	}

	status.Message = "Connected, schema present"
	return status
}

// checkVenue only confirms the REST endpoint answers; no credentials are used.
func checkVenue(ctx context.Context, cfg *config.Config) HealthStatus {
	status := newStatus("Venue REST")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.VenueRESTURL+"/api/v1", nil)
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = err.Error()
		return status
	}
	client := &http.Client{Timeout: cfg.UpstreamTimeout}
	resp, err := client.Do(req)
	if err != nil {
		status.Status = "DEGRADED"
		status.Message = fmt.Sprintf("Not reachable: %v", err)
		return status
	}
	resp.Body.Close()

	status.Message = fmt.Sprintf("Reachable (HTTP %d)", resp.StatusCode)
	return status
}

func checkAPIServer(ctx context.Context, cfg *config.Config) HealthStatus {
	status := newStatus("API Server")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://localhost:%s/health", cfg.Port), nil)
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = err.Error()
		return status
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		status.Status = "UNHEALTHY"
		status.Message = fmt.Sprintf("Not reachable: %v", err)
		return status
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		status.Status = "DEGRADED"
		status.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return status
	}

	status.Message = "Running"
	return status
}
