// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The import pipeline itself lives in internal/transform; services
// own the sequencing, the library filesystem layout and persistence.
package services
