package testsupport

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// Global counter for generating unique sequential IDs in tests
	testSequence uint64

	// Base timestamp to make names shorter
	baseTimestamp = time.Now().UnixNano()
)

func init() {
	// Initialize with current timestamp to ensure uniqueness across test runs
	testSequence = uint64(baseTimestamp % 1000000)
}

// NextSequence returns next unique sequence number
func NextSequence() uint64 {
	return atomic.AddUint64(&testSequence, 1)
}

// UniqueName generates a unique name with given prefix
// Example: UniqueName("test_profile") -> "test_profile_123456"
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, NextSequence())
}

// UniqueEmail generates a unique email address
// Example: UniqueEmail("user") -> "user_123456@test.local"
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@test.local", prefix, NextSequence())
}

// UniqueRouteID generates a business route identifier that cannot collide
// with the ids used by the bundled CSV data set
func UniqueRouteID() int {
	return 1000000 + int(NextSequence()%1000000000)
}

// UniqueOrderID generates a business order identifier outside the CSV range
func UniqueOrderID() int {
	return 1000000 + int(NextSequence()%1000000000)
}

// UniqueString generates a unique string identifier
// Useful when you need guaranteed uniqueness (uses UUID)
func UniqueString() string {
	return uuid.New().String()
}

// UniqueUsername generates a unique username
// Example: UniqueUsername() -> "user_123456"
func UniqueUsername() string {
	return fmt.Sprintf("user_%d", NextSequence())
}

// UniqueDriverName generates a unique driver display name
// Example: UniqueDriverName() -> "Driver 123456"
func UniqueDriverName() string {
	return fmt.Sprintf("Driver %d", NextSequence())
}
