package model

import "time"

// Observer is notified while a document is decoded.
type Observer interface {
	// OnStep runs after every step, nested ones included.
	OnStep(shape Shape, elapsed time.Duration)
	// OnDocument runs once the whole document is decoded.
	OnDocument(steps int, elapsed time.Duration)
}
