package scan

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"ms-canteen/internal/models"
)

// Scanner identifies the person standing at the reader. Implementations
// return models.ErrNoMatch or models.ErrDeviceError on failure.
type Scanner interface {
	Identify(ctx context.Context) (string, error)
}

type Directory interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
}

// RandomScanner stands in for biometric hardware. It picks a random
// directory entry and fails at the configured rates, given in percent.
type RandomScanner struct {
	Directory          Directory
	NoMatchPercent     int
	DeviceErrorPercent int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomScanner(dir Directory, noMatchPercent, deviceErrorPercent int, seed int64) *RandomScanner {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomScanner{
		Directory:          dir,
		NoMatchPercent:     noMatchPercent,
		DeviceErrorPercent: deviceErrorPercent,
		rng:                rand.New(rand.NewSource(seed)),
	}
}

func (s *RandomScanner) Identify(ctx context.Context) (string, error) {
	roll := s.intn(100)
	if roll < s.DeviceErrorPercent {
		return "", models.ErrDeviceError
	}
	if roll < s.DeviceErrorPercent+s.NoMatchPercent {
		return "", models.ErrNoMatch
	}

	employees, err := s.Directory.ListEmployees(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrDeviceError, err)
	}
	if len(employees) == 0 {
		return "", models.ErrNoMatch
	}
	return employees[s.intn(len(employees))].EmployeeID, nil
}

func (s *RandomScanner) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// FixedScanner always reports the same outcome. Used by tests and for
// replaying a known badge.
type FixedScanner struct {
	EmployeeID string
	Err        error
}

func (s FixedScanner) Identify(ctx context.Context) (string, error) {
	return s.EmployeeID, s.Err
}
