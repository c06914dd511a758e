package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	defaultMaxUploadMB = 64
	defaultPort        = 8080
)

// GetServerPort returns the HTTP port: SERVER_PORT, then the config file,
// then the default.
func GetServerPort() int {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			return port
		}
	}
	if cfg := loadedFile(); cfg != nil && cfg.Server.Port > 0 {
		return cfg.Server.Port
	}
	return defaultPort
}

// GetCORSOrigins returns the allowed browser origins.
func GetCORSOrigins() []string {
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		return strings.Split(v, ",")
	}
	if cfg := loadedFile(); cfg != nil && len(cfg.Server.CORSOrigins) > 0 {
		return cfg.Server.CORSOrigins
	}
	// Defaults for React/Vite dev servers
	return []string{"http://localhost:3000", "http://localhost:5173", "http://localhost:5174"}
}

// GetMaxUploadBytes returns the upload size cap in bytes.
func GetMaxUploadBytes() int64 {
	mb := int64(defaultMaxUploadMB)
	if cfg := loadedFile(); cfg != nil && cfg.Upload.MaxMB > 0 {
		mb = int64(cfg.Upload.MaxMB)
	}
	if v := os.Getenv("WAVECLIP_MAX_UPLOAD_MB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			mb = n
		}
	}
	return mb << 20
}

// GetFFmpegPath returns the ffmpeg binary used to decode compressed uploads.
func GetFFmpegPath() string {
	if v := os.Getenv("FFMPEG_PATH"); v != "" {
		return v
	}
	if cfg := loadedFile(); cfg != nil && cfg.FFmpeg.Path != "" {
		return cfg.FFmpeg.Path
	}
	return "ffmpeg"
}
