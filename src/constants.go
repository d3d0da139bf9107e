package bearhug

import "time"

const (
	// Terminal
	defaultWidth  = 46
	defaultHeight = 52
	defaultFPS    = 30
	defaultHold   = 100 * time.Millisecond
	defaultColor  = "white"

	// Viewer
	viewerWidth     = 45
	viewerHeight    = 50
	boxColor        = "0xff999999"
	titleColor      = "green"
	backgroundSound = "background"
)

const (
	exitOk    = 0
	exitError = 2
)
