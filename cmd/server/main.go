// Package main provides the tide prediction HTTP server.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"go.ngs.io/tidepredictor/internal/config"
	httpHandler "go.ngs.io/tidepredictor/internal/http"
	"go.ngs.io/tidepredictor/internal/usecase"
)

const version = "0.1.0"

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		fmt.Printf("tidepredictor-server version %s\n", version)
		return
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	log.Printf("Starting tide prediction server...")
	log.Printf("Port: %s", cfg.Port)

	tmpl, err := cfg.Template()
	if err != nil {
		log.Fatalf("Failed to load template: %v", err)
	}
	profile, err := cfg.Profile()
	if err != nil {
		log.Fatalf("Invalid shear profile: %v", err)
	}
	log.Printf("Template: %s (reftime %.6f), shear exponent %g", tmpl.Name, tmpl.Epoch, profile.Alpha)

	repo, closer, err := cfg.OpenRepository()
	if err != nil {
		log.Fatalf("Failed to open constituent data: %v", err)
	}
	defer func() { _ = closer.Close() }()

	predictionUC := usecase.NewPredictionUseCase(
		usecase.NewLevelPredictor(repo, tmpl),
		usecase.NewCurrentPredictor(repo, tmpl, profile),
		cfg.Source(),
	)

	router := httpHandler.SetupRouter(predictionUC, cfg.CORSOrigins)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Server listening on %s", addr)
	log.Printf("Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("API endpoints:")
	log.Printf("  - GET /v1/tides/levels")
	log.Printf("  - GET /v1/currents")
	log.Printf("  - GET /v1/currents/profile")
	log.Printf("  - GET /v1/constituents")

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func printUsage() {
	fmt.Printf("Tide Prediction Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  LEVEL_DATA_PATH         NetCDF file with level constituents")
	fmt.Println("  CURRENT_DATA_PATH       NetCDF file with current ellipses and bathymetry")
	fmt.Println("  SQLITE_PATH             SQLite site database (replaces the NetCDF files)")
	fmt.Println("  SITE_MAX_DISTANCE_KM    Largest distance to a site (default: 25)")
	fmt.Println("  SAMPLING                nearest or bilinear (default: nearest)")
	fmt.Println("  GEBCO_PATH              GEBCO NetCDF file overriding bathymetry (optional)")
	fmt.Println("  LAND_MASK_PATH          Shapefile of land polygons (optional)")
	fmt.Println("  TEMPLATE_PATH           TOML basis template (optional)")
	fmt.Println("  SHEAR_ALPHA             Power-law shear exponent (default: 1/7)")
	fmt.Println("  CORS_ORIGINS            Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  GIN_MODE                Gin mode (default: release)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                    Health check")
	fmt.Println("  GET /v1/constituents           List tidal constituents")
	fmt.Println("  GET /v1/tides/levels           Water level predictions with high and low waters")
	fmt.Println("  GET /v1/currents               Depth-averaged current predictions")
	fmt.Println("  GET /v1/currents/profile       Vertical current profile")
	fmt.Println()
}
