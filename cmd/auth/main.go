// Command auth serves the PharmHub login and session API.
package main

import (
	"os"

	"github.com/seroft/pharmhub-auth/internal/auth/app"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

func main() {
	cfg := app.LoadConfig()

	// Start-up failures are logged in the same format as the running service.
	logger := slogx.New(slogx.Config{
		Service: "pharmhub-auth",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	application, err := app.New(cfg)
	if err != nil {
		logger.Error("pharmhub-auth failed to start",
			"err", err,
			"database_file", cfg.DatabaseFile,
			"otp_delivery", cfg.OTPDelivery,
		)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		logger.Error("pharmhub-auth stopped with error", "err", err)
		os.Exit(1)
	}
}
