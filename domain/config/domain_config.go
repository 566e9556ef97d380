package config

import (
	"fmt"
	"time"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Layout
	ChildSpacingX float64 // horizontal distance between generated siblings
	ChildOffsetY  float64 // vertical distance from a parent to its generated children
	RootX         float64
	RootY         float64

	// Seed root category
	RootName        string
	RootDescription string

	// Tree constraints
	MaxNodesPerTree     int
	MaxChildrenPerNode  int
	MaxItemsPerNode     int
	MaxCategoryNameLen  int
	MaxDescriptionLen   int
	MaxWarningsRetained int

	// Time constraints
	SessionTimeout time.Duration

	// Validation settings
	RequireItemObjects bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Layout
		ChildSpacingX: 200,
		ChildOffsetY:  150,
		RootX:         250,
		RootY:         5,

		RootName:        "Root",
		RootDescription: "Root Category",

		// Tree constraints
		MaxNodesPerTree:     5000,
		MaxChildrenPerNode:  50,
		MaxItemsPerNode:     10000,
		MaxCategoryNameLen:  200,
		MaxDescriptionLen:   2000,
		MaxWarningsRetained: 100,

		SessionTimeout: 24 * time.Hour,

		RequireItemObjects: true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxNodesPerTree = 2000
	config.MaxChildrenPerNode = 25
	config.SessionTimeout = 6 * time.Hour

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// More permissive for development
	config.MaxNodesPerTree = 100000
	config.MaxChildrenPerNode = 500
	config.MaxWarningsRetained = 1000

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.ChildOffsetY <= 0 {
		return fmt.Errorf("child vertical offset must be positive, got %v", c.ChildOffsetY)
	}
	if c.ChildSpacingX <= 0 {
		return fmt.Errorf("child spacing must be positive, got %v", c.ChildSpacingX)
	}
	if c.RootName == "" {
		return fmt.Errorf("root category name is required")
	}
	if c.MaxChildrenPerNode <= 0 || c.MaxNodesPerTree <= 0 {
		return fmt.Errorf("tree limits must be positive")
	}
	return nil
}
