// Package search resolves seed queries into candidate URLs.
package search
