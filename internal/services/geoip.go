package services

import (
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// GeoIPService resolves visitor countries from a local MaxMind database.
// Without a database every lookup returns "".
type GeoIPService struct {
	dbPath    string
	logger    *slog.Logger
	geoReader *geoip2.Reader
	geoLock   sync.RWMutex
}

func NewGeoIPService(dbPath string, logger *slog.Logger) *GeoIPService {
	return &GeoIPService{
		dbPath: dbPath,
		logger: logger,
	}
}

func (s *GeoIPService) Init() {
	if s.dbPath == "" {
		s.logger.Info("GeoIP: no database configured, country lookups disabled")
		return
	}
	if _, err := os.Stat(s.dbPath); err != nil {
		s.logger.Warn("GeoIP: database not readable, country lookups disabled", "path", s.dbPath, "error", err)
		return
	}

	reader, err := geoip2.Open(s.dbPath)
	if err != nil {
		s.logger.Error("GeoIP: Failed to open database", "path", s.dbPath, "error", err)
		return
	}

	s.geoLock.Lock()
	s.geoReader = reader
	s.geoLock.Unlock()

	meta := reader.Metadata()
	s.logger.Info("GeoIP: Loaded database", "type", meta.DatabaseType, "epoch", meta.BuildEpoch)
}

func (s *GeoIPService) Close() {
	if s == nil {
		return
	}
	s.geoLock.Lock()
	defer s.geoLock.Unlock()
	if s.geoReader != nil {
		s.geoReader.Close()
		s.geoReader = nil
	}
}

// Country returns the English country name for ipStr, or "" when unknown.
func (s *GeoIPService) Country(ipStr string) string {
	if s == nil {
		return ""
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	if ip.IsLoopback() {
		return "Localhost"
	}

	s.geoLock.RLock()
	defer s.geoLock.RUnlock()
	if s.geoReader == nil {
		return ""
	}

	record, err := s.geoReader.Country(ip)
	if err != nil {
		s.logger.Debug("GeoIP: Lookup error", "ip", ipStr, "error", err)
		return ""
	}
	if name, ok := record.Country.Names["en"]; ok {
		return name
	}
	return record.Country.IsoCode
}
