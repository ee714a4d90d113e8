// Package civet turns arbitrary HTML pages from civic-data sources
// (legislatures, campaign-finance portals, meeting calendars) into structured
// records without hand-written per-site scrapers. A one-shot LLM analysis
// produces a versioned, deterministic extraction manifest; subsequent runs
// replay the manifest, score the result against quality thresholds, and
// re-invoke analysis at most once per run when extraction degrades.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, gemini/).
package civet
