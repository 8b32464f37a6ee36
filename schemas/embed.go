// Package schemas embeds the JSON Schema documents for generated artifacts.
package schemas

import "embed"

// Files holds every *.schema.json in this directory.
//
//go:embed *.schema.json
var Files embed.FS

// DailyFeedbackFile is the schema for the daily coaching report.
const DailyFeedbackFile = "daily_feedback.schema.json"
