// Package stats persists monthly operational counters for the analysis
// engine: how many analyses ran, how the cache behaved and how long
// calculations took. Counters are flushed to disk by a background writer
// and survive restarts.
package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// MonthlyStats aggregates engine activity for one month.
type MonthlyStats struct {
	Analyses           int       `json:"analyses"`
	QualityAssessments int       `json:"quality_assessments"`
	CacheHits          int       `json:"cache_hits"`
	CacheMisses        int       `json:"cache_misses"`
	Errors             int       `json:"errors"`
	TotalDurationMs    float64   `json:"total_duration_ms"`
	LastUpdated        time.Time `json:"last_updated"`
}

// AvgDurationMs returns the mean calculation duration for the month.
func (m MonthlyStats) AvgDurationMs() float64 {
	total := m.Analyses + m.QualityAssessments
	if total == 0 {
		return 0
	}
	return m.TotalDurationMs / float64(total)
}

// Storage handles persistent storage of engine statistics.
type Storage struct {
	mu          sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	logger      *slog.Logger
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
}

// NewStorage creates a statistics store persisting to dataDir/stats.json.
func NewStorage(dataDir string, logger *slog.Logger) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		logger:      logger,
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()
	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, &s.stats)
}

func (s *Storage) save() error {
	s.mu.RLock()
	data, err := json.Marshal(s.stats)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	// Write to a temporary file and rename so readers never see a
	// partial file.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func (s *Storage) backgroundWriter() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			if err := s.save(); err != nil {
				s.logger.Warn("stats save failed", "error", err)
			}
		case <-ticker.C:
			if err := s.save(); err != nil {
				s.logger.Warn("stats save failed", "error", err)
			}
		case <-s.done:
			return
		}
	}
}

func currentMonth() string {
	return time.Now().Format("2006-01")
}

func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// Write already pending.
	}
}

// RecordAnalysis records one score calculation.
func (s *Storage) RecordAnalysis(durationMs float64, cacheHit, hadError bool) {
	s.record(func(m *MonthlyStats) {
		m.Analyses++
		m.TotalDurationMs += durationMs
		if cacheHit {
			m.CacheHits++
		} else {
			m.CacheMisses++
		}
		if hadError {
			m.Errors++
		}
	})
}

// RecordQualityAssessment records one quality assessment.
func (s *Storage) RecordQualityAssessment(durationMs float64) {
	s.record(func(m *MonthlyStats) {
		m.QualityAssessments++
		m.TotalDurationMs += durationMs
	})
}

func (s *Storage) record(update func(*MonthlyStats)) {
	month := currentMonth()

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.stats[month]
	if !ok {
		m = &MonthlyStats{}
		s.stats[month] = m
	}
	update(m)
	m.LastUpdated = time.Now()

	if time.Since(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = time.Now()
	}
}

// GetCurrentStats returns statistics for the current month.
func (s *Storage) GetCurrentStats() MonthlyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.stats[currentMonth()]; ok {
		return *m
	}
	return MonthlyStats{}
}

// GetMonthlyStats returns statistics for a specific "YYYY-MM" month.
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.stats[yearMonth]; ok {
		return *m, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns the months with data, newest first.
func (s *Storage) GetAllMonths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Cleanup drops all months except the current and previous one.
func (s *Storage) Cleanup() {
	now := time.Now()
	keep := map[string]bool{
		now.Format("2006-01"):                   true,
		now.AddDate(0, -1, 0).Format("2006-01"): true,
	}

	s.mu.Lock()
	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}
	s.mu.Unlock()

	s.requestWrite()
}

// Shutdown stops the background writer and flushes pending counters.
func (s *Storage) Shutdown() error {
	close(s.done)
	return s.save()
}
