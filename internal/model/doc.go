// Package model defines the shared data types that flow between pagetrawl
// components: crawl targets and persisted page records.
package model
